package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Journal is the append-only audit trail: one row per mutating
// operation. It is never read by the backend itself and never updated
// or deleted.
type Journal struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"createdAt"`
	EntiteType string    `json:"entiteType"`
	EntiteID   uuid.UUID `json:"entiteId"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	Acteur     string    `json:"acteur"`
}

// RecordJournal appends an audit line. A failing journal write must
// never fail the business mutation it documents, so errors are only
// logged.
func RecordJournal(db *gorm.DB, entiteType string, entiteID uuid.UUID, action, detail, acteur string) {
	entry := Journal{
		EntiteType: entiteType,
		EntiteID:   entiteID,
		Action:     action,
		Detail:     detail,
		Acteur:     acteur,
	}

	err := db.Create(&entry).Error
	if err != nil {
		log.Error().
			Err(err).
			Str("entite", entiteType).
			Str("action", action).
			Msg("journal write failed")
	}
}
