package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Devis is a pre-sale quote. Lots attached to a devis are in the quote
// phase and carry a detailed cost breakdown, see Lot.
type Devis struct {
	DefaultModel
	ProjetID uuid.UUID `json:"projetId" gorm:"index"`
	Libelle  string    `json:"libelle"`
}

func (d *Devis) BeforeSave(_ *gorm.DB) error {
	d.Libelle = strings.TrimSpace(d.Libelle)
	if d.Libelle == "" {
		return ErrLibelleRequis
	}

	return nil
}
