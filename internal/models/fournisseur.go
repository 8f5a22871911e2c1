package models

import (
	"strings"

	"gorm.io/gorm"
)

// Fournisseur is a supplier. Subcontractors are flagged because their
// achats fall under the reverse-charge VAT rule.
type Fournisseur struct {
	DefaultModel
	Nom          string `json:"nom"`
	SIRET        string `json:"siret" gorm:"uniqueIndex"`
	SousTraitant bool   `json:"sousTraitant"`
	Actif        bool   `json:"actif"`
	Contact      string `json:"contact,omitempty"`
}

func (f *Fournisseur) BeforeSave(_ *gorm.DB) error {
	f.Nom = strings.TrimSpace(f.Nom)
	f.SIRET = strings.TrimSpace(f.SIRET)
	f.Contact = strings.TrimSpace(f.Contact)

	if f.Nom == "" {
		return FieldError{Field: "nom", Message: "must not be empty"}
	}

	return nil
}
