package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SLA module types.
const (
	SlaModuleVirement = "VIREMENT"
	SlaModuleGlobal   = "GLOBAL"
)

// SlaConfiguration holds per-client or global SLA thresholds as JSON
// so thresholds can evolve without schema changes.
type SlaConfiguration struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID   *uuid.UUID     `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ModuleType string         `gorm:"index" json:"module_type"`
	Seuils     datatypes.JSON `json:"seuils"`
	Alertes    datatypes.JSON `json:"alertes,omitempty"`
	Active     bool           `gorm:"default:true" json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
