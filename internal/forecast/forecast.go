// Package forecast implements the deterministic burn-rate projection
// and the rule-based advisories built on top of the budget aggregates,
// optionally merged with suggestions from an external advisory source.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chantierflow/backend/internal/alert"
	"github.com/chantierflow/backend/internal/models"
	"github.com/chantierflow/backend/internal/money"
	"github.com/chantierflow/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// Suggestion severities, in display order.
const (
	SeveriteCritique      = "critique"
	SeveriteAvertissement = "avertissement"
	SeveriteInfo          = "info"
)

// MaxSuggestions caps how many suggestions a report carries.
const MaxSuggestions = 5

// DefaultDurationMonths is the assumed project duration used to derive
// the planned monthly budget. Using the assumed duration instead of the
// elapsed months avoids over-alerting in a project's early months.
const DefaultDurationMonths = 12

// grandChantierSeuil is the revised-budget threshold above which a
// project counts as a large project.
var grandChantierSeuil = decimal.NewFromInt(1_000_000)

var severiteRank = map[string]int{
	SeveriteCritique:      0,
	SeveriteAvertissement: 1,
	SeveriteInfo:          2,
}

// Suggestion is one advisory. Categorie identifies the concern and is
// the dedupe key when merging with an external advisory source.
type Suggestion struct {
	Categorie string `json:"categorie"`
	Severite  string `json:"severite"`
	Titre     string `json:"titre"`
	Detail    string `json:"detail"`
}

// KPI is the flat snapshot of a project's financial indicators.
type KPI struct {
	alert.Metrics
	MargePct       decimal.Decimal `json:"margePct"`
	BurnRate       decimal.Decimal `json:"burnRate"`
	PlannedMonthly decimal.Decimal `json:"plannedMonthly"`
	ElapsedMonths  int             `json:"elapsedMonths"`
}

// Snapshot renders the KPIs as the flat string map the advisory
// provider port consumes. Monetary values are exact decimal strings.
func (k KPI) Snapshot() map[string]string {
	return map[string]string{
		"engage":         k.Engaged.String(),
		"realise":        k.Realized.String(),
		"budget_revise":  k.Revised.String(),
		"engage_pct":     k.EngagedPct.String(),
		"realise_pct":    k.RealizedPct.String(),
		"marge_pct":      k.MargePct.String(),
		"burn_rate":      k.BurnRate.String(),
		"budget_mensuel": k.PlannedMonthly.String(),
		"mois_ecoules":   fmt.Sprintf("%d", k.ElapsedMonths),
	}
}

// CollectKPI computes the full indicator snapshot for a project. The
// boolean is false when the project has no budget to measure against.
func CollectKPI(db *gorm.DB, projetID uuid.UUID, now time.Time) (KPI, models.Budget, bool, error) {
	budget, err := models.BudgetForProjet(db, projetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, models.ErrResourceNotFound) {
			return KPI{}, models.Budget{}, false, nil
		}

		return KPI{}, models.Budget{}, false, err
	}

	metrics, err := alert.CollectMetrics(db, projetID, budget)
	if err != nil {
		return KPI{}, models.Budget{}, false, err
	}

	elapsed := types.MonthsSince(budget.CreatedAt, now)
	burnRate := decimal.Zero
	if elapsed > 0 {
		burnRate = money.RoundHalfUp(metrics.Realized.Div(decimal.NewFromInt(int64(elapsed))))
	}

	plannedMonthly := decimal.Zero
	if metrics.Revised.IsPositive() {
		plannedMonthly = money.RoundHalfUp(metrics.Revised.Div(decimal.NewFromInt(DefaultDurationMonths)))
	}

	kpi := KPI{
		Metrics:        metrics,
		MargePct:       decimal.NewFromInt(100).Sub(metrics.EngagedPct),
		BurnRate:       burnRate,
		PlannedMonthly: plannedMonthly,
		ElapsedMonths:  elapsed,
	}

	return kpi, budget, true, nil
}

// RuleSuggestions evaluates the deterministic rule set against the
// KPIs. Each rule fires at most one suggestion, except the per-lot
// overrun rule which fires once per offending lot.
func RuleSuggestions(db *gorm.DB, projetID uuid.UUID, budget models.Budget, kpi KPI) ([]Suggestion, error) {
	var suggestions []Suggestion

	ninety := decimal.NewFromInt(90)
	ten := decimal.NewFromInt(10)

	if kpi.EngagedPct.GreaterThan(ninety) && kpi.MargePct.LessThan(ten) {
		suggestions = append(suggestions, Suggestion{
			Categorie: "avenant",
			Severite:  SeveriteCritique,
			Titre:     "Budget presque entierement engage",
			Detail: fmt.Sprintf("%s%% du budget revise est engage et la marge restante est de %s%%. Un avenant devrait etre etabli.",
				kpi.EngagedPct, kpi.MargePct),
		})
	}

	if kpi.RealizedPct.Sub(kpi.EngagedPct).GreaterThan(ten) {
		suggestions = append(suggestions, Suggestion{
			Categorie: "facturation_anticipee",
			Severite:  SeveriteAvertissement,
			Titre:     "Realise en avance sur l'engage",
			Detail: fmt.Sprintf("Le realise (%s%%) depasse l'engage (%s%%) de plus de 10 points: des factures arrivent sans commande correspondante.",
				kpi.RealizedPct, kpi.EngagedPct),
		})
	}

	// Per-lot overrun: engaged more than 30% above the planned amount
	lots, err := models.ActiveLotsForBudget(db, budget.ID)
	if err != nil {
		return nil, err
	}

	overrunFactor := decimal.RequireFromString("1.3")
	for _, lot := range lots {
		engagedLot, err := models.EngagedSumForLot(db, projetID, lot.ID)
		if err != nil {
			return nil, err
		}

		if engagedLot.GreaterThan(lot.MontantPrevu().Mul(overrunFactor)) {
			suggestions = append(suggestions, Suggestion{
				Categorie: "depassement_lot:" + lot.Code,
				Severite:  SeveriteAvertissement,
				Titre:     fmt.Sprintf("Depassement sur le lot %s", lot.Code),
				Detail: fmt.Sprintf("Le lot %s est engage a %s pour un montant prevu de %s.",
					lot.Code, engagedLot, lot.MontantPrevu()),
			})
		}
	}

	if kpi.BurnRate.GreaterThan(kpi.PlannedMonthly.Mul(decimal.RequireFromString("1.2"))) && kpi.PlannedMonthly.IsPositive() {
		suggestions = append(suggestions, Suggestion{
			Categorie: "rythme_depense",
			Severite:  SeveriteAvertissement,
			Titre:     "Rythme de depense trop eleve",
			Detail: fmt.Sprintf("Le rythme constate (%s/mois) depasse de plus de 20%% le budget mensuel prevu (%s/mois).",
				kpi.BurnRate, kpi.PlannedMonthly),
		})
	}

	if kpi.Revised.GreaterThan(grandChantierSeuil) {
		suggestions = append(suggestions, Suggestion{
			Categorie: "grand_chantier",
			Severite:  SeveriteInfo,
			Titre:     "Situation de travaux reguliere recommandee",
			Detail:    "Le budget revise depasse le seuil des grands chantiers: pensez a emettre des situations de travaux regulieres.",
		})
	}

	return sortAndCap(suggestions), nil
}

// Merge combines externally provided suggestions with the rule-based
// ones. Deduplication is by category, the first occurrence wins and the
// external source wins ties. The result is sorted by severity and
// capped.
func Merge(external, ruleBased []Suggestion) []Suggestion {
	seen := map[string]bool{}
	var merged []Suggestion

	for _, s := range append(append([]Suggestion{}, external...), ruleBased...) {
		if seen[s.Categorie] {
			continue
		}
		seen[s.Categorie] = true
		merged = append(merged, s)
	}

	return sortAndCap(merged)
}

// sortAndCap sorts critical before warning before info, keeping the
// relative order inside each severity, and caps the list.
func sortAndCap(suggestions []Suggestion) []Suggestion {
	slices.SortStableFunc(suggestions, func(a, b Suggestion) int {
		return severiteRank[a.Severite] - severiteRank[b.Severite]
	})

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}

	return suggestions
}

// Suggestions produces the full advisory list for a project: the
// deterministic rules, merged with the external advisory source when
// one is configured. A failing external source never fails the request,
// the engine falls back to the rule-based list.
func Suggestions(ctx context.Context, db *gorm.DB, projetID uuid.UUID, provider AdvisoryProvider) ([]Suggestion, error) {
	kpi, budget, ok, err := CollectKPI(db, projetID, time.Now().In(time.UTC))
	if err != nil {
		return nil, err
	}

	if !ok {
		return []Suggestion{}, nil
	}

	ruleBased, err := RuleSuggestions(db, projetID, budget, kpi)
	if err != nil {
		return nil, err
	}

	if provider == nil {
		return ruleBased, nil
	}

	external, err := provider.GenerateSuggestions(ctx, kpi.Snapshot())
	if err != nil {
		log.Warn().Err(err).Str("projet", projetID.String()).Msg("advisory provider failed, using rule-based suggestions only")
		return ruleBased, nil
	}

	return Merge(external, ruleBased), nil
}
