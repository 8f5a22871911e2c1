package models

import (
	"strings"
	"time"

	"github.com/chantierflow/backend/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CoutMainOeuvre is an internal labor cost entry for a project.
type CoutMainOeuvre struct {
	DefaultModel
	ProjetID    uuid.UUID       `json:"projetId" gorm:"index"`
	Libelle     string          `json:"libelle"`
	Heures      decimal.Decimal `json:"heures" gorm:"type:DECIMAL(20,8)"`
	TauxHoraire decimal.Decimal `json:"tauxHoraire" gorm:"type:DECIMAL(20,8)"`
	Date        time.Time       `json:"date"`
}

func (c *CoutMainOeuvre) BeforeSave(_ *gorm.DB) error {
	c.Libelle = strings.TrimSpace(c.Libelle)

	if c.Heures.IsNegative() {
		return FieldError{Field: "heures", Message: "must not be negative"}
	}

	if c.TauxHoraire.IsNegative() {
		return FieldError{Field: "tauxHoraire", Message: "must not be negative"}
	}

	if c.Date.IsZero() {
		c.Date = time.Now().In(time.UTC)
	}

	return nil
}

// Montant is the cost of the entry.
func (c CoutMainOeuvre) Montant() decimal.Decimal {
	return money.RoundHalfUp(c.Heures.Mul(c.TauxHoraire))
}

// UtilisationMateriel is an equipment usage cost entry for a project.
// Interne marks usage of the company's own fleet; usage invoiced by a
// supplier goes through achats instead and is flagged false here to
// avoid double counting in realized sums.
type UtilisationMateriel struct {
	DefaultModel
	ProjetID uuid.UUID       `json:"projetId" gorm:"index"`
	Libelle  string          `json:"libelle"`
	Cout     decimal.Decimal `json:"cout" gorm:"type:DECIMAL(20,8)"`
	Interne  bool            `json:"interne"`
	Date     time.Time       `json:"date"`
}

func (u *UtilisationMateriel) BeforeSave(_ *gorm.DB) error {
	u.Libelle = strings.TrimSpace(u.Libelle)

	if u.Cout.IsNegative() {
		return FieldError{Field: "cout", Message: "must not be negative"}
	}

	if u.Date.IsZero() {
		u.Date = time.Now().In(time.UTC)
	}

	return nil
}

// LaborCostSum is the summed labor cost of a project.
func LaborCostSum(db *gorm.DB, projetID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := db.
		Model(&CoutMainOeuvre{}).
		Select("SUM(heures * taux_horaire)").
		Where("projet_id = ?", projetID).
		Find(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}

	return money.RoundHalfUp(sum.Decimal), nil
}

// InternalEquipmentCostSum is the summed internal-fleet equipment cost
// of a project. Supplier-invoiced usage is excluded, it is already part
// of the realized achats.
func InternalEquipmentCostSum(db *gorm.DB, projetID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := db.
		Model(&UtilisationMateriel{}).
		Select("SUM(cout)").
		Where("projet_id = ?", projetID).
		Where("interne = ?", true).
		Find(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}

	return money.RoundHalfUp(sum.Decimal), nil
}
