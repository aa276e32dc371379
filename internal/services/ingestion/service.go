package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/khiari-mohamed/ARS-sub010/internal/config"
	"github.com/khiari-mohamed/ARS-sub010/internal/models"
	"github.com/khiari-mohamed/ARS-sub010/internal/repository"
	"github.com/khiari-mohamed/ARS-sub010/internal/services/bankformat"
)

// ErrUnknownMatricule tags lines whose matricule resolves to nobody.
var ErrUnknownMatricule = errors.New("matricule inconnu")

// ErrNoValidLines means a batch cannot be created because every line
// failed validation.
var ErrNoValidLines = errors.New("no valid lines in reconciliation result")

// Resolver looks beneficiaries up in batch. Satisfied by
// repository.AdherentRepository.
type Resolver interface {
	FindByMatricules(matricules []string, clientID uuid.UUID) ([]models.Adherent, error)
}

// Notifier delivers a notification to a role. Failures are logged, not
// propagated.
type Notifier interface {
	Notify(n *models.Notification) error
}

// Line is one aggregated, classified payment line.
type Line struct {
	Matricule  string          `json:"matricule"`
	AdherentID uuid.UUID       `json:"adherent_id,omitempty"`
	Nom        string          `json:"nom,omitempty"`
	Prenom     string          `json:"prenom,omitempty"`
	RIB        string          `json:"rib,omitempty"`
	Montant    decimal.Decimal `json:"montant"`
	Statut     string          `json:"statut"`
	Erreur     string          `json:"erreur,omitempty"`
}

// Summary describes a reconciliation result at a glance.
type Summary struct {
	TotalRows       int             `json:"total_rows"`
	ValidRows       int             `json:"valid_rows"`
	ErrorRows       int             `json:"error_rows"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	UniqueAdherents int             `json:"unique_adherents"`
}

// Result is the outcome of reconciling one uploaded file.
type Result struct {
	Lines     []Line     `json:"lines"`
	RowErrors []RowError `json:"row_errors,omitempty"`
	Summary   Summary    `json:"summary"`
}

type Service struct {
	resolver Resolver
	ordres   *repository.OrdreVirementRepository
	donneurs *repository.DonneurOrdreRepository
	registry *bankformat.Registry
	notifier Notifier
}

func NewService(
	resolver Resolver,
	ordres *repository.OrdreVirementRepository,
	donneurs *repository.DonneurOrdreRepository,
	registry *bankformat.Registry,
	notifier Notifier,
) *Service {
	return &Service{
		resolver: resolver,
		ordres:   ordres,
		donneurs: donneurs,
		registry: registry,
		notifier: notifier,
	}
}

// Reconcile aggregates raw rows by matricule, resolves the
// beneficiaries and classifies every aggregated line. Aggregation sums
// amounts, so the outcome does not depend on row order.
func (s *Service) Reconcile(rows []RawRow, rowErrs []RowError, clientID uuid.UUID) (*Result, error) {
	type agg struct {
		matricule string
		montant   decimal.Decimal
		count     int
	}
	totals := make(map[string]*agg)
	var order []string
	for _, row := range rows {
		a, ok := totals[row.Matricule]
		if !ok {
			a = &agg{matricule: row.Matricule}
			totals[row.Matricule] = a
			order = append(order, row.Matricule)
		}
		a.montant = a.montant.Add(row.Montant)
		a.count++
	}

	matricules := make([]string, len(order))
	copy(matricules, order)
	adherents, err := s.resolver.FindByMatricules(matricules, clientID)
	if err != nil {
		return nil, fmt.Errorf("resolving matricules: %w", err)
	}
	byMatricule := make(map[string]models.Adherent, len(adherents))
	ribOwners := make(map[string]int)
	for _, a := range adherents {
		byMatricule[a.Matricule] = a
		if a.RIB != "" {
			ribOwners[a.RIB]++
		}
	}

	res := &Result{RowErrors: rowErrs}
	res.Summary.TotalRows = len(rows) + len(rowErrs)
	res.Summary.UniqueAdherents = len(order)
	res.Summary.ErrorRows = len(rowErrs)

	for _, m := range order {
		a := totals[m]
		line := Line{Matricule: m, Montant: a.montant}

		adh, found := byMatricule[m]
		switch {
		case !a.montant.IsPositive():
			line.Statut = models.StatutItemErreur
			line.Erreur = fmt.Sprintf("montant non positif %s", a.montant)
		case !found:
			line.Statut = models.StatutItemErreur
			line.Erreur = ErrUnknownMatricule.Error()
		case adh.RIB == "":
			line.adopt(adh)
			line.Statut = models.StatutItemErreur
			line.Erreur = "RIB manquant"
		case !bankformat.ValidRib(adh.RIB):
			line.adopt(adh)
			line.Statut = models.StatutItemErreur
			line.Erreur = fmt.Sprintf("RIB invalide %q", adh.RIB)
		case ribOwners[adh.RIB] > 1:
			line.adopt(adh)
			line.Statut = models.StatutItemErreur
			line.Erreur = "RIB partagé par plusieurs adhérents"
		default:
			line.adopt(adh)
			line.Statut = models.StatutItemValide
			res.Summary.ValidRows++
			res.Summary.TotalAmount = res.Summary.TotalAmount.Add(a.montant)
		}
		if line.Statut == models.StatutItemErreur {
			res.Summary.ErrorRows++
		}
		res.Lines = append(res.Lines, line)
	}

	return res, nil
}

func (l *Line) adopt(a models.Adherent) {
	l.AdherentID = a.ID
	l.Nom = a.Nom
	l.Prenom = a.Prenom
	l.RIB = a.RIB
}

// ReconcileFile is the one-call path from uploaded bytes to a result.
func (s *Service) ReconcileFile(filename string, content []byte, clientID uuid.UUID) (*Result, error) {
	rows, rowErrs, err := ExtractFromFile(filename, content)
	if err != nil {
		return nil, err
	}
	return s.Reconcile(rows, rowErrs, clientID)
}

// CreateInput carries everything needed to turn a result into a batch.
type CreateInput struct {
	DonneurOrdreID uuid.UUID
	BordereauID    *uuid.UUID
	Utilisateur    string
	Result         *Result
}

// CreateOrdreVirement persists a batch from a reconciliation result,
// generates its bank file and notifies the finance role. Error lines
// are stored alongside valid ones so the batch keeps its full trace.
func (s *Service) CreateOrdreVirement(in CreateInput) (*models.OrdreVirement, error) {
	if in.Result == nil || in.Result.Summary.ValidRows == 0 {
		return nil, ErrNoValidLines
	}

	donneur, err := s.donneurs.GetByID(in.DonneurOrdreID)
	if err != nil {
		return nil, fmt.Errorf("loading donneur d'ordre: %w", err)
	}

	ov := &models.OrdreVirement{
		DonneurOrdreID:   donneur.ID,
		BordereauID:      in.BordereauID,
		MontantTotal:     in.Result.Summary.TotalAmount,
		NombreAdherents:  in.Result.Summary.ValidRows,
		EtatVirement:     models.EtatNonExecute,
		UtilisateurSante: in.Utilisateur,
		DateCreation:     time.Now(),
	}

	items := make([]models.VirementItem, 0, len(in.Result.Lines))
	for _, line := range in.Result.Lines {
		items = append(items, models.VirementItem{
			AdherentID: line.AdherentID,
			Montant:    line.Montant,
			Statut:     line.Statut,
			Erreur:     line.Erreur,
		})
	}

	if err := s.ordres.Create(ov, items); err != nil {
		return nil, fmt.Errorf("persisting ordre de virement: %w", err)
	}

	if err := s.ordres.AppendHistorique(nil, &models.VirementHistorique{
		OrdreVirementID: ov.ID,
		Action:          models.ActionCreation,
		NouvelEtat:      models.EtatNonExecute,
		UtilisateurID:   in.Utilisateur,
		Commentaire:     fmt.Sprintf("Création: %d lignes valides, %d en erreur", in.Result.Summary.ValidRows, in.Result.Summary.ErrorRows),
	}); err != nil {
		return nil, fmt.Errorf("writing creation history: %w", err)
	}

	if path, err := s.generateFile(donneur, ov, in.Result); err != nil {
		config.Logger().WithError(err).WithField("reference", ov.Reference).
			Warn("bank file generation failed, batch kept without file")
	} else {
		ov.FichierTxt = path
		if err := s.ordres.DB().Model(ov).Update("fichier_txt", path).Error; err != nil {
			return nil, fmt.Errorf("recording file path: %w", err)
		}
	}

	s.notifyCreation(ov, donneur)
	return ov, nil
}

// generateFile encodes the VALIDE lines with the donneur's bank profile
// and writes the result under the configured output directory.
func (s *Service) generateFile(donneur *models.DonneurOrdre, ov *models.OrdreVirement, res *Result) (string, error) {
	profile := s.registry.ProfileForDonneur(donneur.FormatTxtType, donneur.RIB)

	batch := bankformat.Batch{
		Reference:    ov.Reference,
		DateCreation: ov.DateCreation,
		DonneurNom:   donneur.Nom,
		DonneurRIB:   donneur.RIB,
	}
	for _, line := range res.Lines {
		if line.Statut != models.StatutItemValide {
			continue
		}
		batch.Virements = append(batch.Virements, bankformat.Virement{
			Matricule: line.Matricule,
			Nom:       line.Nom,
			Prenom:    line.Prenom,
			RIB:       line.RIB,
			Montant:   line.Montant,
		})
	}

	content, err := bankformat.Encode(profile, batch)
	if err != nil {
		return "", err
	}

	dir := config.OutputDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, bankformat.FileName(ov.Reference, time.Now()))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing bank file: %w", err)
	}
	return path, nil
}

func (s *Service) notifyCreation(ov *models.OrdreVirement, donneur *models.DonneurOrdre) {
	if s.notifier == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"reference":     ov.Reference,
		"montant_total": ov.MontantTotal,
		"donneur":       donneur.Nom,
	})
	n := &models.Notification{
		Role:    "FINANCE",
		Type:    models.NotifNouveauVirement,
		Title:   "Nouvel ordre de virement",
		Message: fmt.Sprintf("Ordre %s créé (%s TND, %d adhérents)", ov.Reference, ov.MontantTotal.StringFixed(3), ov.NombreAdherents),
		Data:    datatypes.JSON(data),
	}
	if err := s.notifier.Notify(n); err != nil {
		config.Logger().WithError(err).Warn("notification delivery failed")
	}
}
