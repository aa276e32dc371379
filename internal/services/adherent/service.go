// Package adherent resolves and manages batch beneficiaries.
package adherent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/khiari-mohamed/ARS-sub010/internal/config"
	"github.com/khiari-mohamed/ARS-sub010/internal/models"
	"github.com/khiari-mohamed/ARS-sub010/internal/repository"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/bankformat"
)

var (
	ErrNotFound   = errors.New("adherent not found")
	ErrReferenced = errors.New("adherent is referenced by virement items")
)

// Notifier delivers a notification to a role.
type Notifier interface {
	Notify(n *models.Notification) error
}

type Service struct {
	repo     *repository.AdherentRepository
	notifier Notifier
}

func NewService(repo *repository.AdherentRepository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Resolve is a pure lookup by (matricule, client).
func (s *Service) Resolve(matricule string, clientID uuid.UUID) (*models.Adherent, error) {
	a, err := s.find(matricule, clientID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// find maps the repository's record-not-found to a nil result.
func (s *Service) find(matricule string, clientID uuid.UUID) (*models.Adherent, error) {
	a, err := s.repo.FindByMatricule(matricule, clientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return a, err
}

// Candidate is the data available for creating a missing beneficiary
// on the fly during an import.
type Candidate struct {
	Nom     string `json:"nom"`
	Prenom  string `json:"prenom"`
	RIB     string `json:"rib"`
	Societe string `json:"societe,omitempty"`
}

func (c Candidate) valid() bool {
	return strings.TrimSpace(c.Nom) != "" && bankformat.ValidRib(c.RIB)
}

// Resolution is the outcome of ResolveOrCreate. When Unresolved is set
// the candidate data was insufficient and Matricule carries the raw
// identifier so the caller can report the line without aborting.
type Resolution struct {
	Adherent   *models.Adherent `json:"adherent,omitempty"`
	Unresolved bool             `json:"unresolved,omitempty"`
	Matricule  string           `json:"matricule"`
	Created    bool             `json:"created,omitempty"`
}

// ResolveOrCreate looks the matricule up and, when absent, creates the
// beneficiary if the candidate passes minimum validity.
func (s *Service) ResolveOrCreate(matricule string, clientID uuid.UUID, c Candidate) (Resolution, error) {
	a, err := s.find(matricule, clientID)
	if err != nil {
		return Resolution{}, err
	}
	if a != nil {
		return Resolution{Adherent: a, Matricule: matricule}, nil
	}
	if !c.valid() {
		return Resolution{Unresolved: true, Matricule: matricule}, nil
	}

	created := &models.Adherent{
		Matricule: matricule,
		ClientID:  clientID,
		Nom:       strings.TrimSpace(c.Nom),
		Prenom:    strings.TrimSpace(c.Prenom),
		RIB:       c.RIB,
	}
	if err := s.repo.Create(created); err != nil {
		if errors.Is(err, repository.ErrDuplicateMatricule) {
			// Lost a race with a concurrent import; the row exists now.
			if again, lookupErr := s.find(matricule, clientID); lookupErr == nil && again != nil {
				return Resolution{Adherent: again, Matricule: matricule}, nil
			}
		}
		return Resolution{}, err
	}
	return Resolution{Adherent: created, Matricule: matricule, Created: true}, nil
}

// DetectDuplicateRibs returns the RIBs shared by more than one
// beneficiary among those given.
func (s *Service) DetectDuplicateRibs(ribs []string) ([]string, error) {
	return s.repo.DuplicateRibs(ribs)
}

// UpdateInput carries the mutable fields of a beneficiary.
type UpdateInput struct {
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	RIB       string `json:"rib"`
	Statut    string `json:"statut,omitempty"`
	UpdatedBy string `json:"-"`
}

// Update applies the input. A RIB change is recorded in the RIB history
// and announced to the finance role, since it redirects future
// payments.
func (s *Service) Update(id uuid.UUID, in UpdateInput) (*models.Adherent, error) {
	a, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if in.RIB != "" && in.RIB != a.RIB {
		if !bankformat.ValidRib(in.RIB) {
			return nil, fmt.Errorf("RIB must be exactly 20 digits")
		}
		if n, err := s.repo.CountByRib(in.RIB, a.ID); err == nil && n > 0 {
			config.Logger().WithFields(map[string]any{
				"matricule": a.Matricule,
				"rib":       in.RIB,
				"partages":  n,
			}).Warn("RIB déjà utilisé par un autre adhérent")
		}
		if err := s.repo.AddRibHistory(a.ID, a.RIB, in.RIB, in.UpdatedBy); err != nil {
			return nil, fmt.Errorf("recording RIB history: %w", err)
		}
		s.notifyRibChange(a, in.RIB)
		a.RIB = in.RIB
	}
	if in.Nom != "" {
		a.Nom = in.Nom
	}
	if in.Prenom != "" {
		a.Prenom = in.Prenom
	}
	if in.Statut != "" {
		a.Statut = in.Statut
	}

	if err := s.repo.Update(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) notifyRibChange(a *models.Adherent, newRib string) {
	if s.notifier == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{
		"adherent_id": a.ID.String(),
		"matricule":   a.Matricule,
		"ancien_rib":  a.RIB,
		"nouveau_rib": newRib,
	})
	n := &models.Notification{
		Role:    "FINANCE",
		Type:    models.NotifRibUpdate,
		Title:   "RIB modifié",
		Message: fmt.Sprintf("Le RIB de l'adhérent %s (%s %s) a changé", a.Matricule, a.Nom, a.Prenom),
		Data:    datatypes.JSON(data),
	}
	if err := s.notifier.Notify(n); err != nil {
		config.Logger().WithError(err).Warn("notification delivery failed")
	}
}

// ImportRow is one line of a bulk beneficiary import.
type ImportRow struct {
	Matricule string `json:"matricule"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	RIB       string `json:"rib"`
}

// ImportResult reports each row's outcome; the import never aborts on a
// bad row.
type ImportResult struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Errors  []ImportError `json:"errors,omitempty"`
}

type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Import upserts beneficiaries row by row.
func (s *Service) Import(rows []ImportRow, clientID uuid.UUID, updatedBy string) (*ImportResult, error) {
	res := &ImportResult{}
	for i, row := range rows {
		num := i + 1
		matricule := strings.TrimSpace(row.Matricule)
		if matricule == "" {
			res.Errors = append(res.Errors, ImportError{Row: num, Reason: "matricule is empty"})
			continue
		}
		if row.RIB != "" && !bankformat.ValidRib(row.RIB) {
			res.Errors = append(res.Errors, ImportError{Row: num, Reason: fmt.Sprintf("invalid RIB %q", row.RIB)})
			continue
		}

		existing, err := s.find(matricule, clientID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			if strings.TrimSpace(row.Nom) == "" {
				res.Errors = append(res.Errors, ImportError{Row: num, Reason: "nom is required for a new adherent"})
				continue
			}
			err := s.repo.Create(&models.Adherent{
				Matricule: matricule,
				ClientID:  clientID,
				Nom:       strings.TrimSpace(row.Nom),
				Prenom:    strings.TrimSpace(row.Prenom),
				RIB:       row.RIB,
			})
			if err != nil {
				res.Errors = append(res.Errors, ImportError{Row: num, Reason: err.Error()})
				continue
			}
			res.Created++
			continue
		}

		if _, err := s.Update(existing.ID, UpdateInput{
			Nom:       row.Nom,
			Prenom:    row.Prenom,
			RIB:       row.RIB,
			UpdatedBy: updatedBy,
		}); err != nil {
			res.Errors = append(res.Errors, ImportError{Row: num, Reason: err.Error()})
			continue
		}
		res.Updated++
	}
	return res, nil
}

// SearchEntry pairs a beneficiary with its duplicate-RIB flag.
type SearchEntry struct {
	models.Adherent
	DuplicateRib bool `json:"duplicate_rib"`
}

// Search finds beneficiaries by matricule, name or RIB fragment and
// flags the ones sharing a RIB.
func (s *Service) Search(query string, clientID *uuid.UUID) ([]SearchEntry, error) {
	adherents, err := s.repo.Search(query, clientID)
	if err != nil {
		return nil, err
	}
	ribs := make([]string, 0, len(adherents))
	for _, a := range adherents {
		if a.RIB != "" {
			ribs = append(ribs, a.RIB)
		}
	}
	dups, err := s.repo.DuplicateRibs(ribs)
	if err != nil {
		return nil, err
	}
	dupSet := make(map[string]bool, len(dups))
	for _, r := range dups {
		dupSet[r] = true
	}

	out := make([]SearchEntry, 0, len(adherents))
	for _, a := range adherents {
		out = append(out, SearchEntry{Adherent: a, DuplicateRib: dupSet[a.RIB]})
	}
	return out, nil
}

// Delete removes a beneficiary unless virement items reference it.
func (s *Service) Delete(id uuid.UUID) error {
	count, err := s.repo.CountVirementItems(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrReferenced
	}
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// RibHistory returns the audit trail of RIB changes.
func (s *Service) RibHistory(id uuid.UUID) ([]models.AdherentRibHistory, error) {
	return s.repo.RibHistory(id)
}
