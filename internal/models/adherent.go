package models

import (
	"time"

	"github.com/google/uuid"
)

// Adherent is a payment beneficiary, identified by matricule within a client.
type Adherent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Matricule     string    `gorm:"index:idx_adherent_matricule_client,unique" json:"matricule"`
	ClientID      uuid.UUID `gorm:"type:uuid;index:idx_adherent_matricule_client,unique" json:"client_id"`
	Nom           string    `json:"nom"`
	Prenom        string    `json:"prenom"`
	RIB           string    `gorm:"index" json:"rib"`
	CodeAssure    string    `json:"code_assure,omitempty"`
	NumeroContrat string    `json:"numero_contrat,omitempty"`
	Assurance     string    `json:"assurance,omitempty"`
	Statut        string    `gorm:"default:ACTIF" json:"statut"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Client *Client `json:"client,omitempty"`
}

// AdherentRibHistory records every RIB change for audit.
type AdherentRibHistory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AdherentID  uuid.UUID `gorm:"type:uuid;index" json:"adherent_id"`
	OldRib      string    `json:"old_rib"`
	NewRib      string    `json:"new_rib"`
	UpdatedByID string    `json:"updated_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}
