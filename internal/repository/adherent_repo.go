package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/khiari-mohamed/ARS-sub010/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateMatricule means the (matricule, client) pair already exists.
var ErrDuplicateMatricule = errors.New("matricule already exists for this client")

type AdherentRepository struct {
	db *gorm.DB
}

func NewAdherentRepository(db *gorm.DB) *AdherentRepository {
	return &AdherentRepository{db: db}
}

func (r *AdherentRepository) DB() *gorm.DB {
	return r.db
}

func (r *AdherentRepository) GetByID(id uuid.UUID) (*models.Adherent, error) {
	var a models.Adherent
	err := r.db.Preload("Client").First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByMatricule looks up one adherent within a client.
func (r *AdherentRepository) FindByMatricule(matricule string, clientID uuid.UUID) (*models.Adherent, error) {
	var a models.Adherent
	err := r.db.Preload("Client").
		Where("matricule = ? AND client_id = ?", matricule, clientID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByMatricules resolves a whole batch of matricules in one query.
func (r *AdherentRepository) FindByMatricules(matricules []string, clientID uuid.UUID) ([]models.Adherent, error) {
	var adherents []models.Adherent
	err := r.db.Preload("Client").
		Where("matricule IN ? AND client_id = ?", matricules, clientID).
		Find(&adherents).Error
	return adherents, err
}

// Create inserts a new adherent. The check and the insert run in one
// transaction so concurrent uploads cannot double-create a matricule;
// the unique index backs this up at the database level.
func (r *AdherentRepository) Create(a *models.Adherent) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Adherent{}).
			Where("matricule = ? AND client_id = ?", a.Matricule, a.ClientID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateMatricule
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		return tx.Create(a).Error
	})
}

func (r *AdherentRepository) Update(a *models.Adherent) error {
	return r.db.Save(a).Error
}

// CountByRib returns how many adherents other than excludeID use the RIB.
func (r *AdherentRepository) CountByRib(rib string, excludeID uuid.UUID) (int64, error) {
	var count int64
	q := r.db.Model(&models.Adherent{}).Where("rib = ?", rib)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count, err
}

// DuplicateRibs returns, among the given RIBs, those used by more than
// one adherent in the whole registry.
func (r *AdherentRepository) DuplicateRibs(ribs []string) ([]string, error) {
	if len(ribs) == 0 {
		return nil, nil
	}
	var dups []string
	err := r.db.Model(&models.Adherent{}).
		Select("rib").
		Where("rib IN ?", ribs).
		Group("rib").
		Having("COUNT(*) > 1").
		Scan(&dups).Error
	return dups, err
}

// Search filters adherents by free text over identifying fields.
func (r *AdherentRepository) Search(query string, clientID *uuid.UUID) ([]models.Adherent, error) {
	q := r.db.Model(&models.Adherent{}).Preload("Client").Order("matricule ASC")
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where(
			"LOWER(matricule) LIKE ? OR LOWER(nom) LIKE ? OR LOWER(prenom) LIKE ? OR rib LIKE ?",
			like, like, like, like,
		)
	}
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}
	var adherents []models.Adherent
	err := q.Find(&adherents).Error
	return adherents, err
}

// CountVirementItems reports how many batch lines reference the adherent.
func (r *AdherentRepository) CountVirementItems(adherentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.VirementItem{}).
		Where("adherent_id = ?", adherentID).
		Count(&count).Error
	return count, err
}

func (r *AdherentRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("adherent_id = ?", id).
			Delete(&models.AdherentRibHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Adherent{}, "id = ?", id).Error
	})
}

func (r *AdherentRepository) AddRibHistory(adherentID uuid.UUID, oldRib, newRib, updatedBy string) error {
	return r.db.Create(&models.AdherentRibHistory{
		ID:          uuid.New(),
		AdherentID:  adherentID,
		OldRib:      oldRib,
		NewRib:      newRib,
		UpdatedByID: updatedBy,
		CreatedAt:   time.Now(),
	}).Error
}

func (r *AdherentRepository) RibHistory(adherentID uuid.UUID) ([]models.AdherentRibHistory, error) {
	var history []models.AdherentRibHistory
	err := r.db.Where("adherent_id = ?", adherentID).
		Order("created_at DESC").
		Find(&history).Error
	return history, err
}

// FindClient accepts a client id or a client name, as uploads may carry either.
func (r *AdherentRepository) FindClient(idOrName string) (*models.Client, error) {
	var c models.Client
	if id, err := uuid.Parse(idOrName); err == nil {
		if err := r.db.First(&c, "id = ?", id).Error; err == nil {
			return &c, nil
		}
	}
	err := r.db.First(&c, "name = ?", idOrName).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
