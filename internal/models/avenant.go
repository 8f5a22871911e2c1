package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AvenantStatutBrouillon = "brouillon"
	AvenantStatutValide    = "valide"
)

// Avenant is a signed change order adjusting a budget's envelope, in
// either direction. Only validated avenants count into the revised
// amount.
type Avenant struct {
	DefaultModel
	BudgetID uuid.UUID       `json:"budgetId" gorm:"index"`
	Budget   Budget          `json:"-"`
	Numero   string          `json:"numero"`
	Libelle  string          `json:"libelle"`
	Montant  decimal.Decimal `json:"montant" gorm:"type:DECIMAL(20,8)"`
	Statut   string          `json:"statut"`
	ValideLe *time.Time      `json:"valideLe"`
}

func (a *Avenant) BeforeSave(_ *gorm.DB) error {
	a.Libelle = strings.TrimSpace(a.Libelle)
	if a.Libelle == "" {
		return ErrLibelleRequis
	}

	return nil
}

// CreateAvenant creates an avenant in draft state with a sequential
// number per budget and year.
func CreateAvenant(db *gorm.DB, avenant Avenant) (Avenant, error) {
	// The budget must exist
	var budget Budget
	err := db.First(&budget, "id = ?", avenant.BudgetID).Error
	if err != nil {
		return Avenant{}, err
	}

	avenant.Statut = AvenantStatutBrouillon
	avenant.ValideLe = nil

	err = db.Transaction(func(tx *gorm.DB) error {
		year := time.Now().In(time.UTC).Year()

		counter, err := NextSequence(tx, "avenant:"+budget.ID.String(), year)
		if err != nil {
			return err
		}
		avenant.Numero = FormatNumber("AV", year, counter)

		return tx.Create(&avenant).Error
	})
	if err != nil {
		return Avenant{}, err
	}

	return avenant, nil
}

// Validate transitions the avenant from draft to validated and
// recomputes the owning budget's avenant sum. Validation is terminal.
//
// The whole operation is transactional: when the recomputed revised
// amount would be negative, the avenant stays in draft.
func (a *Avenant) Validate(db *gorm.DB) error {
	if a.Statut != AvenantStatutBrouillon {
		return TransitionError{Entity: "avenant", ID: a.ID, From: a.Statut, To: AvenantStatutValide}
	}

	now := time.Now().In(time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(a).Updates(map[string]interface{}{
			"statut":    AvenantStatutValide,
			"valide_le": now,
		}).Error
		if err != nil {
			return err
		}

		var budget Budget
		err = tx.First(&budget, "id = ?", a.BudgetID).Error
		if err != nil {
			return err
		}

		return budget.RecomputeAvenants(tx)
	})
	if err != nil {
		return err
	}

	a.Statut = AvenantStatutValide
	a.ValideLe = &now

	return nil
}

// DeleteAvenant tombstones an avenant and recomputes the budget sum.
// The deletion is refused when removing a validated avenant would make
// the revised amount negative.
func DeleteAvenant(db *gorm.DB, avenant *Avenant) error {
	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Delete(avenant).Error
		if err != nil {
			return err
		}

		var budget Budget
		err = tx.First(&budget, "id = ?", avenant.BudgetID).Error
		if err != nil {
			return err
		}

		return budget.RecomputeAvenants(tx)
	})
}
