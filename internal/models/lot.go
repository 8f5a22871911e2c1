package models

import (
	"strings"

	"github.com/chantierflow/backend/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Lot is a cost breakdown line, optionally hierarchical. It belongs to
// exactly one budget (site phase) or exactly one devis (quote phase),
// never both and never neither.
//
// In the quote phase it additionally carries a detailed cost breakdown
// from which a sale price is derived.
type Lot struct {
	DefaultModel
	BudgetID *uuid.UUID `json:"budgetId" gorm:"uniqueIndex:lot_code_budget"`
	DevisID  *uuid.UUID `json:"devisId"`
	ParentID *uuid.UUID `json:"parentId"`
	Code     string     `json:"code" gorm:"uniqueIndex:lot_code_budget"`
	Libelle  string     `json:"libelle"`

	Quantite     decimal.Decimal `json:"quantite" gorm:"type:DECIMAL(20,8)"`
	PrixUnitaire decimal.Decimal `json:"prixUnitaire" gorm:"type:DECIMAL(20,8)"`

	// Quote-phase cost breakdown
	CoutMainOeuvre    decimal.Decimal  `json:"coutMainOeuvre" gorm:"type:DECIMAL(20,8)"`
	CoutMateriaux     decimal.Decimal  `json:"coutMateriaux" gorm:"type:DECIMAL(20,8)"`
	CoutSousTraitance decimal.Decimal  `json:"coutSousTraitance" gorm:"type:DECIMAL(20,8)"`
	CoutMateriel      decimal.Decimal  `json:"coutMateriel" gorm:"type:DECIMAL(20,8)"`
	CoutAutres        decimal.Decimal  `json:"coutAutres" gorm:"type:DECIMAL(20,8)"`
	MargePct          *decimal.Decimal `json:"margePct" gorm:"type:DECIMAL(20,8)"`
}

func (l *Lot) BeforeSave(_ *gorm.DB) error {
	l.Code = strings.TrimSpace(l.Code)
	l.Libelle = strings.TrimSpace(l.Libelle)

	if l.Code == "" {
		return FieldError{Field: "code", Message: "must not be empty"}
	}

	// A lot belongs to a budget or to a devis, never both, never neither
	if (l.BudgetID == nil) == (l.DevisID == nil) {
		return ErrLotRattachement
	}

	if l.Quantite.IsNegative() {
		return FieldError{Field: "quantite", Message: "must not be negative"}
	}

	if l.PrixUnitaire.IsNegative() {
		return FieldError{Field: "prixUnitaire", Message: "must not be negative"}
	}

	return nil
}

// MontantPrevu is the planned amount of the lot.
func (l Lot) MontantPrevu() decimal.Decimal {
	return money.RoundHalfUp(l.Quantite.Mul(l.PrixUnitaire))
}

// CoutTotal is the sum of the quote-phase cost breakdown.
func (l Lot) CoutTotal() decimal.Decimal {
	return l.CoutMainOeuvre.
		Add(l.CoutMateriaux).
		Add(l.CoutSousTraitance).
		Add(l.CoutMateriel).
		Add(l.CoutAutres)
}

// PrixVente derives the sale price from the cost breakdown and the
// margin. The second return value is false when the breakdown sums to
// zero, in which case no sale price is defined.
func (l Lot) PrixVente() (decimal.Decimal, bool) {
	marge := decimal.Zero
	if l.MargePct != nil {
		marge = *l.MargePct
	}

	return money.SalePrice(l.CoutTotal(), marge)
}

// ActiveLotsForBudget returns all live lots of a budget, parents first.
func ActiveLotsForBudget(db *gorm.DB, budgetID uuid.UUID) ([]Lot, error) {
	var lots []Lot

	err := db.
		Where("budget_id = ?", budgetID).
		Order("code ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}

	return lots, nil
}
