package models

import (
	"time"

	"github.com/google/uuid"
)

// DonneurOrdre is the originator profile issuing virement batches.
type DonneurOrdre struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nom           string    `json:"nom"`
	RIB           string    `gorm:"uniqueIndex" json:"rib"`
	Banque        string    `json:"banque"`
	FormatTxtType string    `json:"format_txt_type"`
	Statut        string    `gorm:"default:ACTIF" json:"statut"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
