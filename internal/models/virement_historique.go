package models

import (
	"time"

	"github.com/google/uuid"
)

// History actions.
const (
	ActionCreation       = "CREATION"
	ActionChangementEtat = "CHANGEMENT_ETAT"
	ActionCorrectionEtat = "CORRECTION_ETAT"
)

// VirementHistorique is an immutable audit entry for a batch state change.
// Rows are append-only and never updated.
type VirementHistorique struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrdreVirementID uuid.UUID    `gorm:"type:uuid;index" json:"ordre_virement_id"`
	Action          string       `json:"action"`
	AncienEtat      EtatVirement `json:"ancien_etat,omitempty"`
	NouvelEtat      EtatVirement `json:"nouvel_etat"`
	UtilisateurID   string       `json:"utilisateur_id"`
	Commentaire     string       `json:"commentaire,omitempty"`
	DateAction      time.Time    `gorm:"index" json:"date_action"`
}
