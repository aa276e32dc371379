package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EtatVirement is the execution state of an ordre de virement.
type EtatVirement string

const (
	EtatNonExecute           EtatVirement = "NON_EXECUTE"
	EtatEnCoursExecution     EtatVirement = "EN_COURS_EXECUTION"
	EtatExecute              EtatVirement = "EXECUTE"
	EtatExecutePartiellement EtatVirement = "EXECUTE_PARTIELLEMENT"
	EtatRejete               EtatVirement = "REJETE"
)

// Item statuses.
const (
	StatutItemValide = "VALIDE"
	StatutItemErreur = "ERREUR"
)

// OrdreVirement is a validated batch of payment lines for one donneur d'ordre.
type OrdreVirement struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Reference       string          `gorm:"uniqueIndex" json:"reference"`
	DonneurOrdreID  uuid.UUID       `gorm:"type:uuid;index" json:"donneur_ordre_id"`
	BordereauID     *uuid.UUID      `gorm:"type:uuid;index" json:"bordereau_id,omitempty"`
	MontantTotal    decimal.Decimal `gorm:"type:numeric(15,3)" json:"montant_total"`
	NombreAdherents int             `json:"nombre_adherents"`
	EtatVirement    EtatVirement    `gorm:"index;default:NON_EXECUTE" json:"etat_virement"`
	Commentaire     string          `json:"commentaire,omitempty"`

	UtilisateurSante   string     `json:"utilisateur_sante"`
	UtilisateurFinance string     `json:"utilisateur_finance,omitempty"`
	DateCreation       time.Time  `json:"date_creation"`
	DateTraitement     *time.Time `json:"date_traitement,omitempty"`
	DateEtatFinal      *time.Time `json:"date_etat_final,omitempty"`

	FichierTxt string `json:"fichier_txt,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DonneurOrdre *DonneurOrdre  `json:"donneur_ordre,omitempty"`
	Bordereau    *Bordereau     `json:"bordereau,omitempty"`
	Items        []VirementItem `json:"items,omitempty"`
}

// VirementItem is one aggregated payment line of a batch.
type VirementItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrdreVirementID uuid.UUID       `gorm:"type:uuid;index" json:"ordre_virement_id"`
	AdherentID      uuid.UUID       `gorm:"type:uuid;index" json:"adherent_id"`
	Montant         decimal.Decimal `gorm:"type:numeric(15,3)" json:"montant"`
	Statut          string          `gorm:"index" json:"statut"`
	Erreur          string          `json:"erreur,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`

	Adherent *Adherent `json:"adherent,omitempty"`
}
