package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khiari-mohamed/ARS-sub010/internal/config"
	"github.com/khiari-mohamed/ARS-sub010/internal/models"
	"github.com/khiari-mohamed/ARS-sub010/internal/repository"
)

var (
	ErrNotFound    = errors.New("ordre de virement not found")
	ErrUnknownEtat = errors.New("unknown etat")
)

// Notifier delivers a notification to a role.
type Notifier interface {
	Notify(n *models.Notification) error
}

type Service struct {
	ordres   *repository.OrdreVirementRepository
	notifier Notifier
}

func NewService(ordres *repository.OrdreVirementRepository, notifier Notifier) *Service {
	return &Service{ordres: ordres, notifier: notifier}
}

// TransitionInput describes one requested state change.
type TransitionInput struct {
	NouvelEtat  models.EtatVirement `json:"nouvel_etat"`
	Utilisateur string              `json:"utilisateur"`
	Commentaire string              `json:"commentaire,omitempty"`
}

// applyTransition mutates the batch for one state change and returns
// the history entry to append plus whether the linked bordereau must be
// closed. Callers pass the batch as read under the row lock so the
// entry's AncienEtat is the state actually replaced.
func applyTransition(ov *models.OrdreVirement, in TransitionInput, now time.Time) (models.VirementHistorique, bool) {
	ancien := ov.EtatVirement

	action := models.ActionChangementEtat
	if IsTerminal(ancien) && ancien != in.NouvelEtat {
		action = models.ActionCorrectionEtat
	}

	ov.EtatVirement = in.NouvelEtat
	if in.NouvelEtat == models.EtatEnCoursExecution && ov.DateTraitement == nil {
		ov.DateTraitement = &now
	}
	if IsTerminal(in.NouvelEtat) {
		ov.DateEtatFinal = &now
	} else {
		ov.DateEtatFinal = nil
	}
	if in.Commentaire != "" {
		ov.Commentaire = in.Commentaire
	}
	if in.Utilisateur != "" {
		ov.UtilisateurFinance = in.Utilisateur
	}

	entry := models.VirementHistorique{
		OrdreVirementID: ov.ID,
		Action:          action,
		AncienEtat:      ancien,
		NouvelEtat:      in.NouvelEtat,
		UtilisateurID:   in.Utilisateur,
		Commentaire:     in.Commentaire,
		DateAction:      now,
	}
	closeBordereau := in.NouvelEtat == models.EtatExecute && ov.BordereauID != nil
	return entry, closeBordereau
}

// Transition moves a batch to a new state. The batch row is locked for
// the duration of the transaction so the recorded AncienEtat is the
// state actually replaced. Every transition appends a history entry;
// moving out of a terminal state is allowed but audited as a
// correction. Reaching EXECUTE closes the linked bordereau.
func (s *Service) Transition(id uuid.UUID, in TransitionInput) (*models.OrdreVirement, error) {
	if !ValidEtat(in.NouvelEtat) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEtat, in.NouvelEtat)
	}

	var ov models.OrdreVirement
	err := s.ordres.DB().Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ov, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		entry, closeBordereau := applyTransition(&ov, in, time.Now())
		if entry.Action == models.ActionCorrectionEtat {
			config.Logger().WithFields(map[string]any{
				"reference":   ov.Reference,
				"ancien_etat": entry.AncienEtat,
				"nouvel_etat": entry.NouvelEtat,
			}).Warn("correction of a terminal etat")
		}

		if err := tx.Save(&ov).Error; err != nil {
			return err
		}
		if err := s.ordres.AppendHistorique(tx, &entry); err != nil {
			return err
		}

		if closeBordereau {
			if err := tx.Model(&models.Bordereau{}).
				Where("id = ?", *ov.BordereauID).
				Updates(map[string]any{
					"statut":       "VIREMENT_EXECUTE",
					"date_cloture": entry.DateAction,
				}).Error; err != nil {
				return fmt.Errorf("closing bordereau: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyTransition(&ov, in)
	return &ov, nil
}

// Historique returns a batch's audit trail, oldest entry first.
func (s *Service) Historique(id uuid.UUID) ([]models.VirementHistorique, error) {
	if _, err := s.ordres.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.ordres.Historique(id)
}

func (s *Service) notifyTransition(ov *models.OrdreVirement, in TransitionInput) {
	if s.notifier == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{
		"reference":   ov.Reference,
		"nouvel_etat": string(in.NouvelEtat),
	})
	n := &models.Notification{
		Role:    "SANTE",
		Type:    models.NotifEtatVirement,
		Title:   "Etat de virement modifié",
		Message: fmt.Sprintf("L'ordre %s est passé à %s", ov.Reference, in.NouvelEtat),
		Data:    datatypes.JSON(data),
	}
	if err := s.notifier.Notify(n); err != nil {
		config.Logger().WithError(err).Warn("notification delivery failed")
	}
}
