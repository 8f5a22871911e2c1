package models

import (
	"github.com/chantierflow/backend/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget is the financial envelope of a project. There is exactly one
// per project.
//
// MontantAvenants is the sum of all validated avenants. It is never
// incremented in place: every avenant validation or deletion recomputes
// it from the avenants table, so it self-heals from any missed event.
type Budget struct {
	DefaultModel
	ProjetID             uuid.UUID       `json:"projetId" gorm:"uniqueIndex"`
	MontantInitial       decimal.Decimal `json:"montantInitial" gorm:"type:DECIMAL(20,8)"`
	MontantAvenants      decimal.Decimal `json:"montantAvenants" gorm:"type:DECIMAL(20,8)"`
	RetenueGarantiePct   decimal.Decimal `json:"retenueGarantiePct" gorm:"type:DECIMAL(20,8)"`
	SeuilAlertePct       decimal.Decimal `json:"seuilAlertePct" gorm:"type:DECIMAL(20,8)"`
	SeuilValidationAchat decimal.Decimal `json:"seuilValidationAchat" gorm:"type:DECIMAL(20,8)"`
}

func (b *Budget) BeforeSave(_ *gorm.DB) error {
	if b.RetenueGarantiePct.IsNegative() || b.RetenueGarantiePct.GreaterThan(money.RetentionMaxPercent) {
		return ErrRetenueGarantieInvalide
	}

	if b.SeuilAlertePct.IsNegative() {
		return FieldError{Field: "seuilAlertePct", Message: "must not be negative"}
	}

	if b.SeuilValidationAchat.IsNegative() {
		return FieldError{Field: "seuilValidationAchat", Message: "must not be negative"}
	}

	return nil
}

// MontantRevise is the revised envelope: initial amount plus the sum of
// validated avenants.
func (b Budget) MontantRevise() decimal.Decimal {
	return b.MontantInitial.Add(b.MontantAvenants)
}

// NeedsApproval reports whether an achat of the given amount requires a
// manual approval. The boundary value requires approval.
func (b Budget) NeedsApproval(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(b.SeuilValidationAchat)
}

// BudgetForProjet returns the live budget of a project.
func BudgetForProjet(db *gorm.DB, projetID uuid.UUID) (Budget, error) {
	var budget Budget

	err := db.First(&budget, "projet_id = ?", projetID).Error
	if err != nil {
		return Budget{}, err
	}

	return budget, nil
}

// RecomputeAvenants recomputes the validated-avenant sum from the
// avenants table and persists it. It refuses the update when the
// resulting revised amount would be negative.
func (b *Budget) RecomputeAvenants(tx *gorm.DB) error {
	var sum decimal.NullDecimal

	err := tx.
		Model(&Avenant{}).
		Select("SUM(montant)").
		Where("budget_id = ?", b.ID).
		Where("statut = ?", AvenantStatutValide).
		Find(&sum).Error
	if err != nil {
		return err
	}

	total := decimal.Zero
	if sum.Valid {
		total = sum.Decimal
	}

	if b.MontantInitial.Add(total).IsNegative() {
		return ErrBudgetNegatif
	}

	b.MontantAvenants = total

	return tx.Model(b).Update("montant_avenants", total).Error
}
