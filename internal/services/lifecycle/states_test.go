package lifecycle

import (
	"testing"

	"github.com/khiari-mohamed/ARS-sub010/internal/models"
)

func TestValidEtat(t *testing.T) {
	for _, e := range Etats() {
		if !ValidEtat(e) {
			t.Errorf("%s should be valid", e)
		}
	}
	for _, e := range []models.EtatVirement{"", "PENDING", "execute", "ANNULE"} {
		if ValidEtat(e) {
			t.Errorf("%q should be invalid", e)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		etat models.EtatVirement
		want bool
	}{
		{models.EtatNonExecute, false},
		{models.EtatEnCoursExecution, false},
		{models.EtatExecute, true},
		{models.EtatExecutePartiellement, true},
		{models.EtatRejete, true},
	}
	for _, tt := range tests {
		if got := IsTerminal(tt.etat); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.etat, got, tt.want)
		}
	}
}
