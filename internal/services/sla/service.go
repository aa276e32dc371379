// Package sla watches batch processing delays against configured
// thresholds.
package sla

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/khiari-mohamed/ARS-sub010/internal/config"
	"github.com/khiari-mohamed/ARS-sub010/internal/models"
	"github.com/khiari-mohamed/ARS-sub010/internal/repository"
)

// Statuses, ordered by severity.
const (
	StatusOK          = "OK"
	StatusAlerte      = "ALERTE"
	StatusCritique    = "CRITIQUE"
	StatusDepassement = "DEPASSEMENT"
)

var ErrNotFound = errors.New("ordre de virement not found")

// Thresholds is one resolved threshold set.
type Thresholds struct {
	DelaiVirement time.Duration `json:"delai_virement"`
	SeuilAlerte   float64       `json:"seuil_alerte"`   // percent
	SeuilCritique float64       `json:"seuil_critique"` // percent
}

// DefaultThresholds is the hard fallback when no configuration matches.
var DefaultThresholds = Thresholds{
	DelaiVirement: 48 * time.Hour,
	SeuilAlerte:   70,
	SeuilCritique: 90,
}

// Check is the result of evaluating one batch against its thresholds.
type Check struct {
	Status          string  `json:"status"`
	PourcentEcoule  float64 `json:"pourcent_ecoule"`
	HeuresEcoulees  float64 `json:"heures_ecoulees"`
	HeuresRestantes float64 `json:"heures_restantes"`
}

// Evaluate computes the SLA status of a batch created at the given
// time. Pure function; no clock or storage access.
func Evaluate(created, now time.Time, th Thresholds) Check {
	if th.DelaiVirement <= 0 {
		th = DefaultThresholds
	}
	elapsed := now.Sub(created)
	if elapsed < 0 {
		elapsed = 0
	}
	percent := elapsed.Hours() / th.DelaiVirement.Hours() * 100
	remaining := th.DelaiVirement.Hours() - elapsed.Hours()
	if remaining < 0 {
		remaining = 0
	}

	status := StatusOK
	switch {
	case percent >= 100:
		status = StatusDepassement
	case percent >= th.SeuilCritique:
		status = StatusCritique
	case percent >= th.SeuilAlerte:
		status = StatusAlerte
	}
	return Check{
		Status:          status,
		PourcentEcoule:  percent,
		HeuresEcoulees:  elapsed.Hours(),
		HeuresRestantes: remaining,
	}
}

// Notifier delivers a notification to a role.
type Notifier interface {
	Notify(n *models.Notification) error
}

type Service struct {
	db       *gorm.DB
	ordres   *repository.OrdreVirementRepository
	notifier Notifier
}

func NewService(db *gorm.DB, ordres *repository.OrdreVirementRepository, notifier Notifier) *Service {
	return &Service{db: db, ordres: ordres, notifier: notifier}
}

// seuilsJSON is the stored shape of SlaConfiguration.Seuils.
type seuilsJSON struct {
	DelaiVirementHeures float64 `json:"delai_virement_heures"`
	SeuilAlerte         float64 `json:"seuil_alerte"`
	SeuilCritique       float64 `json:"seuil_critique"`
}

// ResolveThresholds walks the configuration chain: client VIREMENT,
// global VIREMENT, client GLOBAL, global GLOBAL, then the hard default.
func (s *Service) ResolveThresholds(clientID *uuid.UUID) Thresholds {
	type probe struct {
		clientID   *uuid.UUID
		moduleType string
	}
	probes := []probe{}
	if clientID != nil {
		probes = append(probes, probe{clientID, models.SlaModuleVirement})
	}
	probes = append(probes, probe{nil, models.SlaModuleVirement})
	if clientID != nil {
		probes = append(probes, probe{clientID, models.SlaModuleGlobal})
	}
	probes = append(probes, probe{nil, models.SlaModuleGlobal})

	for _, p := range probes {
		var cfg models.SlaConfiguration
		q := s.db.Where("module_type = ? AND active = ?", p.moduleType, true)
		if p.clientID != nil {
			q = q.Where("client_id = ?", *p.clientID)
		} else {
			q = q.Where("client_id IS NULL")
		}
		if err := q.First(&cfg).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				config.Logger().WithError(err).Warn("sla configuration lookup failed")
			}
			continue
		}
		if th, ok := parseThresholds(cfg.Seuils); ok {
			return th
		}
	}
	return DefaultThresholds
}

func parseThresholds(raw datatypes.JSON) (Thresholds, bool) {
	var js seuilsJSON
	if err := json.Unmarshal(raw, &js); err != nil || js.DelaiVirementHeures <= 0 {
		return Thresholds{}, false
	}
	th := Thresholds{
		DelaiVirement: time.Duration(js.DelaiVirementHeures * float64(time.Hour)),
		SeuilAlerte:   js.SeuilAlerte,
		SeuilCritique: js.SeuilCritique,
	}
	if th.SeuilAlerte <= 0 {
		th.SeuilAlerte = DefaultThresholds.SeuilAlerte
	}
	if th.SeuilCritique <= 0 {
		th.SeuilCritique = DefaultThresholds.SeuilCritique
	}
	return th, true
}

// CheckBatch evaluates one batch by id.
func (s *Service) CheckBatch(id uuid.UUID) (*Check, error) {
	ov, err := s.ordres.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var clientID *uuid.UUID
	if ov.Bordereau != nil {
		clientID = &ov.Bordereau.ClientID
	}
	check := Evaluate(ov.DateCreation, time.Now(), s.ResolveThresholds(clientID))
	return &check, nil
}

// GenerateAlerts sweeps the non-terminal batches and notifies the
// finance role about every one at ALERTE or worse. Returns the number
// of notifications sent.
func (s *Service) GenerateAlerts() (int, error) {
	pending, err := s.ordres.ListPending()
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ov := range pending {
		var clientID *uuid.UUID
		if ov.Bordereau != nil {
			clientID = &ov.Bordereau.ClientID
		}
		check := Evaluate(ov.DateCreation, time.Now(), s.ResolveThresholds(clientID))
		if check.Status == StatusOK {
			continue
		}
		if s.notifier == nil {
			continue
		}

		data, _ := json.Marshal(map[string]any{
			"reference":       ov.Reference,
			"status":          check.Status,
			"pourcent_ecoule": check.PourcentEcoule,
		})
		err := s.notifier.Notify(&models.Notification{
			Role:    "FINANCE",
			Type:    models.NotifSlaBreach,
			Title:   fmt.Sprintf("SLA %s", check.Status),
			Message: fmt.Sprintf("L'ordre %s est à %.0f%% de son délai de traitement", ov.Reference, check.PourcentEcoule),
			Data:    datatypes.JSON(data),
		})
		if err != nil {
			config.Logger().WithError(err).WithField("reference", ov.Reference).
				Warn("sla notification failed")
			continue
		}
		sent++
	}
	return sent, nil
}
