package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the owning entity (société) of adherents and bordereaux.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	Statut    string    `gorm:"default:ACTIF" json:"statut"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bordereau is the upstream source document a batch may originate from.
// Its status is advanced by the lifecycle service when a virement executes.
type Bordereau struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Reference   string     `gorm:"uniqueIndex" json:"reference"`
	ClientID    uuid.UUID  `gorm:"type:uuid;index" json:"client_id"`
	Statut      string     `gorm:"index" json:"statut"`
	DateCloture *time.Time `json:"date_cloture,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Client *Client `json:"client,omitempty"`
}
