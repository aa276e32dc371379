// Package lifecycle drives the execution states of an ordre de
// virement and its audit history.
package lifecycle

import "github.com/khiari-mohamed/ARS-sub010/internal/models"

var allEtats = []models.EtatVirement{
	models.EtatNonExecute,
	models.EtatEnCoursExecution,
	models.EtatExecute,
	models.EtatExecutePartiellement,
	models.EtatRejete,
}

// ValidEtat reports whether the value is one of the five known states.
func ValidEtat(e models.EtatVirement) bool {
	for _, known := range allEtats {
		if e == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state normally ends the lifecycle.
// Terminal states can still be corrected, but such moves are audited
// as corrections rather than ordinary transitions.
func IsTerminal(e models.EtatVirement) bool {
	switch e {
	case models.EtatExecute, models.EtatExecutePartiellement, models.EtatRejete:
		return true
	}
	return false
}

// Etats returns the known states in a stable order.
func Etats() []models.EtatVirement {
	out := make([]models.EtatVirement, len(allEtats))
	copy(out, allEtats)
	return out
}
