// Package alert implements the threshold alert engine: deterministic
// comparisons between the aggregated purchase sums of a project and its
// revised budget.
package alert

import (
	"errors"

	"github.com/chantierflow/backend/internal/models"
	"github.com/chantierflow/backend/internal/money"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Metrics are the aggregates a detection run compares. They are always
// recomputed from source, never cached.
type Metrics struct {
	Engaged     decimal.Decimal `json:"engaged"`
	Realized    decimal.Decimal `json:"realized"`
	Revised     decimal.Decimal `json:"revised"`
	EngagedPct  decimal.Decimal `json:"engagedPct"`
	RealizedPct decimal.Decimal `json:"realizedPct"`
}

// CollectMetrics computes the engaged and realized aggregates of a
// project against its revised budget.
//
// Realized is the sum of invoiced achats, internal labor cost and
// internal-fleet equipment cost. Supplier-invoiced equipment is already
// part of the invoiced achats and is not counted again.
func CollectMetrics(db *gorm.DB, projetID uuid.UUID, budget models.Budget) (Metrics, error) {
	engaged, err := models.EngagedSum(db, projetID)
	if err != nil {
		return Metrics{}, err
	}

	realizedAchats, err := models.RealizedSum(db, projetID)
	if err != nil {
		return Metrics{}, err
	}

	labor, err := models.LaborCostSum(db, projetID)
	if err != nil {
		return Metrics{}, err
	}

	equipment, err := models.InternalEquipmentCostSum(db, projetID)
	if err != nil {
		return Metrics{}, err
	}

	revised := budget.MontantRevise()
	realized := realizedAchats.Add(labor).Add(equipment)

	return Metrics{
		Engaged:     engaged,
		Realized:    realized,
		Revised:     revised,
		EngagedPct:  money.Percentage(engaged, revised),
		RealizedPct: money.Percentage(realized, revised),
	}, nil
}

// Detect runs one alert detection pass for a project and appends one
// alerte per breached metric. Without a budget, or with a revised
// amount of zero or less, no alerts are produced.
//
// Detection is deliberately not deduplicated against open alertes of
// the same type: repeated runs over a persisting breach build a
// historical trail.
func Detect(db *gorm.DB, projetID uuid.UUID) ([]models.Alerte, error) {
	budget, err := models.BudgetForProjet(db, projetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, models.ErrResourceNotFound) {
			return nil, nil
		}

		return nil, err
	}

	if !budget.MontantRevise().IsPositive() {
		return nil, nil
	}

	metrics, err := CollectMetrics(db, projetID, budget)
	if err != nil {
		return nil, err
	}

	checks := []struct {
		typeAlerte string
		pct        decimal.Decimal
		montant    decimal.Decimal
	}{
		{models.AlerteTypeSeuilEngage, metrics.EngagedPct, metrics.Engaged},
		{models.AlerteTypeSeuilRealise, metrics.RealizedPct, metrics.Realized},
	}

	var created []models.Alerte
	for _, check := range checks {
		if check.pct.LessThan(budget.SeuilAlertePct) {
			continue
		}

		alerte := models.Alerte{
			ProjetID:           projetID,
			BudgetID:           budget.ID,
			TypeAlerte:         check.typeAlerte,
			PourcentageAtteint: check.pct,
			SeuilConfigure:     budget.SeuilAlertePct,
			MontantConstate:    check.montant,
			MontantBudget:      metrics.Revised,
		}

		err := db.Create(&alerte).Error
		if err != nil {
			return created, err
		}

		log.Info().
			Str("projet", projetID.String()).
			Str("type", alerte.TypeAlerte).
			Str("pourcentage", alerte.PourcentageAtteint.String()).
			Msg("alerte created")

		models.RecordJournal(db, "alerte", alerte.ID, "creation", alerte.TypeAlerte, "systeme")

		created = append(created, alerte)
	}

	return created, nil
}

// Sweep runs Detect for every project that has a live budget. Errors on
// one project do not stop the sweep.
func Sweep(db *gorm.DB) {
	var budgets []models.Budget

	err := db.Find(&budgets).Error
	if err != nil {
		log.Error().Err(err).Msg("alert sweep could not list budgets")
		return
	}

	for _, budget := range budgets {
		_, err := Detect(db, budget.ProjetID)
		if err != nil {
			log.Error().
				Err(err).
				Str("projet", budget.ProjetID.String()).
				Msg("alert detection failed")
		}
	}
}
