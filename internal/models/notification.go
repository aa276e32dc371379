package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification types.
const (
	NotifNouveauVirement = "NOUVEAU_VIREMENT"
	NotifEtatVirement    = "ETAT_VIREMENT"
	NotifRibUpdate       = "RIB_UPDATE"
	NotifSlaBreach       = "SLA_BREACH"
)

// Notification is an in-process message for a user role.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Role      string         `gorm:"index" json:"role"`
	Type      string         `gorm:"index" json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      datatypes.JSON `json:"data,omitempty"`
	Read      bool           `gorm:"default:false" json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}
