package sla

import (
	"testing"
	"time"

	"gorm.io/datatypes"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	th := DefaultThresholds // 48h, 70%, 90%

	tests := []struct {
		name       string
		created    time.Time
		wantStatus string
	}{
		{"just created", now, StatusOK},
		{"half elapsed", now.Add(-24 * time.Hour), StatusOK},
		{"alert at 70 percent", now.Add(-48 * time.Hour * 7 / 10), StatusAlerte},
		{"critical at 90 percent", now.Add(-48 * time.Hour * 9 / 10), StatusCritique},
		{"overdue at 100 percent", now.Add(-48 * time.Hour), StatusDepassement},
		{"overdue at 150 percent", now.Add(-72 * time.Hour), StatusDepassement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := Evaluate(tt.created, now, th)
			if check.Status != tt.wantStatus {
				t.Errorf("status = %s (%.1f%%), want %s", check.Status, check.PourcentEcoule, tt.wantStatus)
			}
		})
	}
}

func TestEvaluateNumbers(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	fresh := Evaluate(now, now, DefaultThresholds)
	if fresh.PourcentEcoule != 0 || fresh.HeuresEcoulees != 0 {
		t.Errorf("fresh batch = %+v, want ~0%%", fresh)
	}
	if fresh.HeuresRestantes != 48 {
		t.Errorf("fresh remaining = %.1f, want 48", fresh.HeuresRestantes)
	}

	over := Evaluate(now.Add(-72*time.Hour), now, DefaultThresholds)
	if over.PourcentEcoule != 150 {
		t.Errorf("overdue percent = %.1f, want 150", over.PourcentEcoule)
	}
	if over.HeuresRestantes != 0 {
		t.Errorf("overdue remaining = %.1f, want 0", over.HeuresRestantes)
	}

	future := Evaluate(now.Add(time.Hour), now, DefaultThresholds)
	if future.PourcentEcoule != 0 {
		t.Errorf("future creation percent = %.1f, want 0", future.PourcentEcoule)
	}
}

func TestEvaluateZeroDelayFallsBack(t *testing.T) {
	now := time.Now()
	check := Evaluate(now.Add(-24*time.Hour), now, Thresholds{})
	if check.Status != StatusOK {
		t.Errorf("status = %s, want OK under the 48h default", check.Status)
	}
}

func TestParseThresholds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
		want Thresholds
	}{
		{
			"complete",
			`{"delai_virement_heures": 24, "seuil_alerte": 60, "seuil_critique": 80}`,
			true,
			Thresholds{DelaiVirement: 24 * time.Hour, SeuilAlerte: 60, SeuilCritique: 80},
		},
		{
			"missing cutoffs get defaults",
			`{"delai_virement_heures": 24}`,
			true,
			Thresholds{DelaiVirement: 24 * time.Hour, SeuilAlerte: 70, SeuilCritique: 90},
		},
		{"zero delay", `{"delai_virement_heures": 0}`, false, Thresholds{}},
		{"garbage", `{`, false, Thresholds{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseThresholds(datatypes.JSON(tt.raw))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
