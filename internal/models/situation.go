package models

import (
	"errors"
	"strings"
	"time"

	"github.com/chantierflow/backend/internal/money"
	"github.com/chantierflow/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Situation lifecycle states.
const (
	SituationStatutBrouillon     = "brouillon"
	SituationStatutEnValidation  = "en_validation"
	SituationStatutValidee       = "validee"
	SituationStatutValideeClient = "validee_client"
	SituationStatutFacturee      = "facturee"
)

// situationTransitions is the closed transition table of the situation
// state machine. Every transition is one-way.
var situationTransitions = map[string][]string{
	SituationStatutBrouillon:     {SituationStatutEnValidation},
	SituationStatutEnValidation:  {SituationStatutValidee},
	SituationStatutValidee:       {SituationStatutValideeClient},
	SituationStatutValideeClient: {SituationStatutFacturee},
}

// situationBilledStatuts are the states in which a situation has passed
// the internal validation step and seeds the carry-forward of the next
// situation.
var situationBilledStatuts = []string{
	SituationStatutValidee,
	SituationStatutValideeClient,
	SituationStatutFacturee,
}

// Situation is a periodic cumulative billing statement: one line per
// live lot of the budget, with carry-forward from the previous
// validated situation of the project.
type Situation struct {
	DefaultModel
	ProjetID uuid.UUID `json:"projetId" gorm:"index"`
	BudgetID uuid.UUID `json:"budgetId"`
	Budget   Budget    `json:"-"`

	Numero       string      `json:"numero"`
	PeriodeDebut types.Month `json:"periodeDebut"`
	PeriodeFin   types.Month `json:"periodeFin"`

	RetenueGarantiePct decimal.Decimal `json:"retenueGarantiePct" gorm:"type:DECIMAL(20,8)"`
	TauxTVA            decimal.Decimal `json:"tauxTVA" gorm:"type:DECIMAL(20,8)"`

	Statut     string     `json:"statut"`
	ValideePar string     `json:"valideePar,omitempty"`
	ValideeLe  *time.Time `json:"valideeLe"`
	FactureeLe *time.Time `json:"factureeLe"`

	Lignes []LigneSituation `json:"lignes" gorm:"foreignKey:SituationID"`

	// Totals, recomputed from the lines on every change
	CumulHT         decimal.Decimal `json:"cumulHT" gorm:"type:DECIMAL(20,8)"`
	PeriodeHT       decimal.Decimal `json:"periodeHT" gorm:"type:DECIMAL(20,8)"`
	MontantTVA      decimal.Decimal `json:"montantTVA" gorm:"type:DECIMAL(20,8)"`
	MontantTTC      decimal.Decimal `json:"montantTTC" gorm:"type:DECIMAL(20,8)"`
	RetenueGarantie decimal.Decimal `json:"retenueGarantie" gorm:"type:DECIMAL(20,8)"`
	NetAPayer       decimal.Decimal `json:"netAPayer" gorm:"type:DECIMAL(20,8)"`
}

// LigneSituation is the per-lot line of a situation.
//
// MontantPeriode may be negative when a later situation records less
// cumulative progress than an earlier one. This is deliberately not
// clamped, see DESIGN.md.
type LigneSituation struct {
	DefaultModel
	SituationID uuid.UUID `json:"situationId" gorm:"index"`
	LotID       uuid.UUID `json:"lotId"`

	MontantMarche  decimal.Decimal `json:"montantMarche" gorm:"type:DECIMAL(20,8)"`
	AvancementPct  decimal.Decimal `json:"avancementPct" gorm:"type:DECIMAL(20,8)"`
	CumulPrecedent decimal.Decimal `json:"cumulPrecedent" gorm:"type:DECIMAL(20,8)"`
	CumulActuel    decimal.Decimal `json:"cumulActuel" gorm:"type:DECIMAL(20,8)"`
	MontantPeriode decimal.Decimal `json:"montantPeriode" gorm:"type:DECIMAL(20,8)"`
}

// compute derives the cumulative and period amounts of the line from
// the contract amount and the progress percentage.
func (l *LigneSituation) compute() {
	l.CumulActuel = money.ApplyPercent(l.MontantMarche, l.AvancementPct)
	l.MontantPeriode = l.CumulActuel.Sub(l.CumulPrecedent)
}

// computeTotals recomputes the situation totals from its lines. The
// monetary derivation runs on the cumulative HT total.
func (s *Situation) computeTotals() {
	s.CumulHT = decimal.Zero
	s.PeriodeHT = decimal.Zero

	for _, ligne := range s.Lignes {
		s.CumulHT = s.CumulHT.Add(ligne.CumulActuel)
		s.PeriodeHT = s.PeriodeHT.Add(ligne.MontantPeriode)
	}

	breakdown := money.Compute(s.CumulHT, s.TauxTVA, s.RetenueGarantiePct)
	s.MontantTVA = breakdown.VAT
	s.MontantTTC = breakdown.TTC
	s.RetenueGarantie = breakdown.Retention
	s.NetAPayer = breakdown.Net
}

// LatestBilledSituation returns the most recent situation of a project
// that has passed the internal validation step, with its lines loaded.
// The boolean is false when there is none.
func LatestBilledSituation(db *gorm.DB, projetID uuid.UUID) (Situation, bool, error) {
	var situation Situation

	err := db.
		Preload("Lignes").
		Where("projet_id = ?", projetID).
		Where("statut IN ?", situationBilledStatuts).
		Order("created_at DESC").
		First(&situation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrResourceNotFound) {
			return Situation{}, false, nil
		}

		return Situation{}, false, err
	}

	return situation, true, nil
}

// CreateSituation creates a new draft situation for the budget.
//
// One line is generated for every live lot of the budget, seeded with
// the caller-supplied progress percentage (zero when absent) and with
// the previous cumulative of the corresponding line in the latest
// billed situation (zero when the lot is new or there is none).
func CreateSituation(db *gorm.DB, situation Situation, avancements map[uuid.UUID]decimal.Decimal) (Situation, error) {
	if situation.PeriodeDebut.After(situation.PeriodeFin) {
		return Situation{}, ErrPeriodeInvalide
	}

	if situation.RetenueGarantiePct.IsNegative() || situation.RetenueGarantiePct.GreaterThan(money.RetentionMaxPercent) {
		return Situation{}, ErrRetenueGarantieInvalide
	}

	if !money.IsLegalVATRate(situation.TauxTVA) {
		return Situation{}, ErrTauxTVAInvalide
	}

	var budget Budget
	err := db.First(&budget, "id = ?", situation.BudgetID).Error
	if err != nil {
		return Situation{}, err
	}

	previous, hasPrevious, err := LatestBilledSituation(db, situation.ProjetID)
	if err != nil {
		return Situation{}, err
	}

	carryForward := map[uuid.UUID]decimal.Decimal{}
	if hasPrevious {
		for _, ligne := range previous.Lignes {
			carryForward[ligne.LotID] = ligne.CumulActuel
		}
	}

	lots, err := ActiveLotsForBudget(db, budget.ID)
	if err != nil {
		return Situation{}, err
	}

	situation.Statut = SituationStatutBrouillon
	situation.Lignes = make([]LigneSituation, 0, len(lots))

	for _, lot := range lots {
		avancement := decimal.Zero
		if pct, ok := avancements[lot.ID]; ok {
			if pct.IsNegative() {
				return Situation{}, ErrPourcentageInvalide
			}
			avancement = pct
		}

		ligne := LigneSituation{
			LotID:          lot.ID,
			MontantMarche:  lot.MontantPrevu(),
			AvancementPct:  avancement,
			CumulPrecedent: carryForward[lot.ID],
		}
		ligne.compute()

		situation.Lignes = append(situation.Lignes, ligne)
	}

	situation.computeTotals()

	err = db.Transaction(func(tx *gorm.DB) error {
		year := time.Now().In(time.UTC).Year()

		counter, err := NextSequence(tx, "situation:"+situation.ProjetID.String(), year)
		if err != nil {
			return err
		}
		situation.Numero = FormatNumber("SIT", year, counter)

		return tx.Create(&situation).Error
	})
	if err != nil {
		return Situation{}, err
	}

	return situation, nil
}

// UpdateProgress replaces the progress percentages of a draft situation
// and recomputes the per-line and statement totals. The carry-forward
// captured at creation is kept as is.
func (s *Situation) UpdateProgress(db *gorm.DB, avancements map[uuid.UUID]decimal.Decimal) error {
	if s.Statut != SituationStatutBrouillon {
		return ErrSituationNonModifiable
	}

	for i := range s.Lignes {
		if pct, ok := avancements[s.Lignes[i].LotID]; ok {
			if pct.IsNegative() {
				return ErrPourcentageInvalide
			}
			s.Lignes[i].AvancementPct = pct
		}

		s.Lignes[i].compute()
	}

	s.computeTotals()

	return db.Transaction(func(tx *gorm.DB) error {
		for i := range s.Lignes {
			err := tx.Save(&s.Lignes[i]).Error
			if err != nil {
				return err
			}
		}

		return tx.Save(s).Error
	})
}

// transitionTo moves the situation to the target state if the
// transition table allows it.
func (s *Situation) transitionTo(db *gorm.DB, target string, updates map[string]interface{}) error {
	allowed := false
	for _, t := range situationTransitions[s.Statut] {
		if t == target {
			allowed = true
			break
		}
	}

	if !allowed {
		return TransitionError{Entity: "situation", ID: s.ID, From: s.Statut, To: target}
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["statut"] = target

	err := db.Model(s).Updates(updates).Error
	if err != nil {
		return err
	}

	s.Statut = target

	return nil
}

// Submit moves a draft situation into internal review.
func (s *Situation) Submit(db *gorm.DB) error {
	return s.transitionTo(db, SituationStatutEnValidation, nil)
}

// Validate stamps the internal validation with validator and time.
func (s *Situation) Validate(db *gorm.DB, acteur string) error {
	acteur = strings.TrimSpace(acteur)
	if acteur == "" {
		return ErrActeurRequis
	}

	now := time.Now().In(time.UTC)

	err := s.transitionTo(db, SituationStatutValidee, map[string]interface{}{
		"validee_par": acteur,
		"validee_le":  now,
	})
	if err != nil {
		return err
	}

	s.ValideePar = acteur
	s.ValideeLe = &now

	return nil
}

// ValidateByClient records the client's validation of the situation.
func (s *Situation) ValidateByClient(db *gorm.DB) error {
	return s.transitionTo(db, SituationStatutValideeClient, nil)
}

// MarkInvoiced stamps the billing timestamp. When at is nil, the
// current time is used.
func (s *Situation) MarkInvoiced(db *gorm.DB, at *time.Time) error {
	stamp := time.Now().In(time.UTC)
	if at != nil {
		stamp = at.In(time.UTC)
	}

	err := s.transitionTo(db, SituationStatutFacturee, map[string]interface{}{
		"facturee_le": stamp,
	})
	if err != nil {
		return err
	}

	s.FactureeLe = &stamp

	return nil
}

// DeleteSituation tombstones a draft situation and its lines. Once a
// situation left the draft state it is part of the billing trail and
// cannot be deleted.
func DeleteSituation(db *gorm.DB, situation *Situation) error {
	if situation.Statut != SituationStatutBrouillon {
		return ErrSituationNonModifiable
	}

	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("situation_id = ?", situation.ID).Delete(&LigneSituation{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(situation).Error
	})
}
