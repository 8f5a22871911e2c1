package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/ryanuber/go-glob"
	"gorm.io/gorm"
)

// RegleAffectation assigns a default lot to new achats whose supplier
// name matches a glob pattern. Rules are evaluated in ascending
// priority order, first match wins.
type RegleAffectation struct {
	DefaultModel
	Priorite uint      `json:"priorite"`
	Motif    string    `json:"motif" gorm:"uniqueIndex"`
	LotID    uuid.UUID `json:"lotId"`
}

func (r *RegleAffectation) BeforeSave(_ *gorm.DB) error {
	r.Motif = strings.TrimSpace(r.Motif)
	if r.Motif == "" {
		return FieldError{Field: "motif", Message: "must not be empty"}
	}

	return nil
}

// MatchLotForFournisseur returns the lot assigned by the first matching
// affectation rule for a supplier name, or nil when no rule matches.
func MatchLotForFournisseur(db *gorm.DB, fournisseurNom string) (*uuid.UUID, error) {
	var regles []RegleAffectation

	err := db.Order("priorite ASC").Find(&regles).Error
	if err != nil {
		return nil, err
	}

	nom := strings.ToLower(fournisseurNom)
	for _, regle := range regles {
		if glob.Glob(strings.ToLower(regle.Motif), nom) {
			lotID := regle.LotID
			return &lotID, nil
		}
	}

	return nil, nil
}
