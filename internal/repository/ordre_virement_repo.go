package repository

import (
	"fmt"
	"time"

	"github.com/khiari-mohamed/ARS-sub010/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrdreVirementRepository struct {
	db *gorm.DB
}

func NewOrdreVirementRepository(db *gorm.DB) *OrdreVirementRepository {
	return &OrdreVirementRepository{db: db}
}

func (r *OrdreVirementRepository) DB() *gorm.DB {
	return r.db
}

// Create persists the ordre with its items and generates the
// day-sequential reference inside the same transaction.
func (r *OrdreVirementRepository) Create(ov *models.OrdreVirement, items []models.VirementItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ref, err := nextReference(tx)
		if err != nil {
			return err
		}
		if ov.ID == uuid.Nil {
			ov.ID = uuid.New()
		}
		ov.Reference = ref
		if ov.DateCreation.IsZero() {
			ov.DateCreation = time.Now()
		}
		if err := tx.Create(ov).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.New()
			items[i].OrdreVirementID = ov.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// nextReference builds VIR-YYYYMMDD-NNNN, sequential per day.
func nextReference(tx *gorm.DB) (string, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	err := tx.Model(&models.OrdreVirement{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("VIR-%s-%04d", now.Format("20060102"), count+1), nil
}

func (r *OrdreVirementRepository) GetByID(id uuid.UUID) (*models.OrdreVirement, error) {
	var ov models.OrdreVirement
	err := r.db.
		Preload("DonneurOrdre").
		Preload("Bordereau").
		Preload("Bordereau.Client").
		Preload("Items").
		Preload("Items.Adherent").
		Preload("Items.Adherent.Client").
		First(&ov, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

func (r *OrdreVirementRepository) GetByReference(reference string) (*models.OrdreVirement, error) {
	var ov models.OrdreVirement
	err := r.db.Preload("DonneurOrdre").First(&ov, "reference = ?", reference).Error
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

// ListFilters narrows the ordre listing.
type ListFilters struct {
	EtatVirement   string
	DonneurOrdreID *uuid.UUID
	DateStart      *time.Time
	DateEnd        *time.Time
}

func (r *OrdreVirementRepository) List(f ListFilters) ([]models.OrdreVirement, error) {
	q := r.db.Preload("DonneurOrdre").Preload("Bordereau").Order("created_at DESC")
	if f.EtatVirement != "" {
		q = q.Where("etat_virement = ?", f.EtatVirement)
	}
	if f.DonneurOrdreID != nil {
		q = q.Where("donneur_ordre_id = ?", *f.DonneurOrdreID)
	}
	if f.DateStart != nil {
		q = q.Where("date_creation >= ?", *f.DateStart)
	}
	if f.DateEnd != nil {
		q = q.Where("date_creation <= ?", *f.DateEnd)
	}
	var ordres []models.OrdreVirement
	err := q.Find(&ordres).Error
	return ordres, err
}

// ListPending returns batches still awaiting a terminal state, for the SLA sweep.
func (r *OrdreVirementRepository) ListPending() ([]models.OrdreVirement, error) {
	var ordres []models.OrdreVirement
	err := r.db.Preload("Bordereau").
		Where("etat_virement IN ?", []models.EtatVirement{
			models.EtatNonExecute,
			models.EtatEnCoursExecution,
		}).
		Find(&ordres).Error
	return ordres, err
}

func (r *OrdreVirementRepository) Historique(ordreVirementID uuid.UUID) ([]models.VirementHistorique, error) {
	var entries []models.VirementHistorique
	err := r.db.Where("ordre_virement_id = ?", ordreVirementID).
		Order("date_action ASC").
		Find(&entries).Error
	return entries, err
}

// AppendHistorique writes one immutable audit entry.
func (r *OrdreVirementRepository) AppendHistorique(tx *gorm.DB, entry *models.VirementHistorique) error {
	if tx == nil {
		tx = r.db
	}
	entry.ID = uuid.New()
	if entry.DateAction.IsZero() {
		entry.DateAction = time.Now()
	}
	return tx.Create(entry).Error
}
