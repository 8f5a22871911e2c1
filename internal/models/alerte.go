package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Alert types.
const (
	AlerteTypeSeuilEngage  = "seuil_engage"
	AlerteTypeSeuilRealise = "seuil_realise"
)

// Alerte records one threshold breach found by a detection run.
//
// Alertes are append-only: repeated detection runs over the same breach
// produce repeated rows, forming a historical trail. The only permitted
// mutation is the one-way acknowledgement.
type Alerte struct {
	DefaultModel
	ProjetID uuid.UUID `json:"projetId" gorm:"index"`
	BudgetID uuid.UUID `json:"budgetId"`

	TypeAlerte         string          `json:"typeAlerte"`
	PourcentageAtteint decimal.Decimal `json:"pourcentageAtteint" gorm:"type:DECIMAL(20,8)"`
	SeuilConfigure     decimal.Decimal `json:"seuilConfigure" gorm:"type:DECIMAL(20,8)"`
	MontantConstate    decimal.Decimal `json:"montantConstate" gorm:"type:DECIMAL(20,8)"`
	MontantBudget      decimal.Decimal `json:"montantBudget" gorm:"type:DECIMAL(20,8)"`

	Acquittee    bool       `json:"acquittee"`
	AcquitteePar string     `json:"acquitteePar,omitempty"`
	AcquitteeLe  *time.Time `json:"acquitteeLe"`
}

// Acknowledge marks the alerte as seen by an actor. Acknowledgement is
// irreversible.
func (a *Alerte) Acknowledge(db *gorm.DB, acteur string) error {
	acteur = strings.TrimSpace(acteur)
	if acteur == "" {
		return ErrActeurRequis
	}

	if a.Acquittee {
		return ErrAlerteDejaAcquittee
	}

	now := time.Now().In(time.UTC)

	err := db.Model(a).Updates(map[string]interface{}{
		"acquittee":     true,
		"acquittee_par": acteur,
		"acquittee_le":  now,
	}).Error
	if err != nil {
		return err
	}

	a.Acquittee = true
	a.AcquitteePar = acteur
	a.AcquitteeLe = &now

	return nil
}
