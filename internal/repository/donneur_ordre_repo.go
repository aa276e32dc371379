package repository

import (
	"errors"

	"github.com/khiari-mohamed/ARS-sub010/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDonneurReferenced means the profile is used by at least one batch.
var ErrDonneurReferenced = errors.New("donneur d'ordre is referenced by existing batches")

type DonneurOrdreRepository struct {
	db *gorm.DB
}

func NewDonneurOrdreRepository(db *gorm.DB) *DonneurOrdreRepository {
	return &DonneurOrdreRepository{db: db}
}

func (r *DonneurOrdreRepository) GetByID(id uuid.UUID) (*models.DonneurOrdre, error) {
	var d models.DonneurOrdre
	err := r.db.First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DonneurOrdreRepository) ListActive() ([]models.DonneurOrdre, error) {
	var donneurs []models.DonneurOrdre
	err := r.db.Where("statut = ?", "ACTIF").Order("nom ASC").Find(&donneurs).Error
	return donneurs, err
}

func (r *DonneurOrdreRepository) Create(d *models.DonneurOrdre) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return r.db.Create(d).Error
}

func (r *DonneurOrdreRepository) Update(d *models.DonneurOrdre) error {
	return r.db.Save(d).Error
}

// Delete refuses to remove a profile still referenced by batches.
func (r *DonneurOrdreRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.OrdreVirement{}).
			Where("donneur_ordre_id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDonneurReferenced
		}
		return tx.Delete(&models.DonneurOrdre{}, "id = ?", id).Error
	})
}
