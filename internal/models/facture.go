package models

import (
	"time"

	"github.com/chantierflow/backend/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Facture lifecycle states.
const (
	FactureStatutBrouillon = "brouillon"
	FactureStatutEmise     = "emise"
	FactureStatutEnvoyee   = "envoyee"
	FactureStatutPayee     = "payee"
	FactureStatutAnnulee   = "annulee"
)

// Facture types.
const (
	FactureTypeSituation = "situation"
	FactureTypeAcompte   = "acompte"
)

// factureTransitions is the closed transition table of the facture
// state machine. Cancellation is only possible before the facture was
// sent to the client.
var factureTransitions = map[string][]string{
	FactureStatutBrouillon: {FactureStatutEmise, FactureStatutAnnulee},
	FactureStatutEmise:     {FactureStatutEnvoyee, FactureStatutAnnulee},
	FactureStatutEnvoyee:   {FactureStatutPayee},
}

// Facture is a client invoice, generated from a validated situation or
// created standalone as a deposit.
//
// MontantEncaisse and DateEncaissement are set only by external
// reconciliation.
type Facture struct {
	DefaultModel
	ProjetID    uuid.UUID  `json:"projetId" gorm:"index"`
	SituationID *uuid.UUID `json:"situationId" gorm:"uniqueIndex"`

	Numero string `json:"numero"`
	Type   string `json:"type"`

	MontantHT          decimal.Decimal `json:"montantHT" gorm:"type:DECIMAL(20,8)"`
	TauxTVA            decimal.Decimal `json:"tauxTVA" gorm:"type:DECIMAL(20,8)"`
	RetenueGarantiePct decimal.Decimal `json:"retenueGarantiePct" gorm:"type:DECIMAL(20,8)"`

	// Derived by the monetary calculator on every save
	MontantTVA      decimal.Decimal `json:"montantTVA" gorm:"type:DECIMAL(20,8)"`
	MontantTTC      decimal.Decimal `json:"montantTTC" gorm:"type:DECIMAL(20,8)"`
	RetenueGarantie decimal.Decimal `json:"retenueGarantie" gorm:"type:DECIMAL(20,8)"`
	NetAPayer       decimal.Decimal `json:"netAPayer" gorm:"type:DECIMAL(20,8)"`

	Statut    string     `json:"statut"`
	EmiseLe   *time.Time `json:"emiseLe"`
	EnvoyeeLe *time.Time `json:"envoyeeLe"`
	PayeeLe   *time.Time `json:"payeeLe"`

	MontantEncaisse  decimal.Decimal `json:"montantEncaisse" gorm:"type:DECIMAL(20,8)"`
	DateEncaissement *time.Time      `json:"dateEncaissement"`
}

// BeforeSave validates the rates and rederives the dependent amounts.
func (f *Facture) BeforeSave(_ *gorm.DB) error {
	if !money.IsLegalVATRate(f.TauxTVA) {
		return ErrTauxTVAInvalide
	}

	if f.RetenueGarantiePct.IsNegative() || f.RetenueGarantiePct.GreaterThan(money.RetentionMaxPercent) {
		return ErrRetenueGarantieInvalide
	}

	breakdown := money.Compute(f.MontantHT, f.TauxTVA, f.RetenueGarantiePct)
	f.MontantTVA = breakdown.VAT
	f.MontantTTC = breakdown.TTC
	f.RetenueGarantie = breakdown.Retention
	f.NetAPayer = breakdown.Net

	return nil
}

// CreateFacture creates a standalone facture (deposit or manual
// invoice) with a sequential number per calendar year.
func CreateFacture(db *gorm.DB, facture Facture) (Facture, error) {
	if facture.Type == "" {
		facture.Type = FactureTypeAcompte
	}

	facture.Statut = FactureStatutBrouillon
	facture.MontantEncaisse = decimal.Zero

	err := db.Transaction(func(tx *gorm.DB) error {
		year := time.Now().In(time.UTC).Year()

		counter, err := NextSequence(tx, "facture", year)
		if err != nil {
			return err
		}
		facture.Numero = FormatNumber("FAC", year, counter)

		return tx.Create(&facture).Error
	})
	if err != nil {
		return Facture{}, err
	}

	return facture, nil
}

// CreateFactureFromSituation converts a client-validated situation into
// a facture, copying its period amount and rates. A situation can be
// converted at most once.
func CreateFactureFromSituation(db *gorm.DB, situation Situation) (Facture, error) {
	if situation.Statut != SituationStatutValideeClient {
		return Facture{}, ErrSituationNonFacturable
	}

	situationID := situation.ID
	facture := Facture{
		ProjetID:           situation.ProjetID,
		SituationID:        &situationID,
		Type:               FactureTypeSituation,
		MontantHT:          situation.PeriodeHT,
		TauxTVA:            situation.TauxTVA,
		RetenueGarantiePct: situation.RetenueGarantiePct,
	}

	return CreateFacture(db, facture)
}

// transitionTo moves the facture to the target state if the transition
// table allows it.
func (f *Facture) transitionTo(db *gorm.DB, target string, updates map[string]interface{}) error {
	allowed := false
	for _, t := range factureTransitions[f.Statut] {
		if t == target {
			allowed = true
			break
		}
	}

	if !allowed {
		return TransitionError{Entity: "facture", ID: f.ID, From: f.Statut, To: target}
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["statut"] = target

	err := db.Model(f).Updates(updates).Error
	if err != nil {
		return err
	}

	f.Statut = target

	return nil
}

// Issue moves a draft facture to the issued state.
func (f *Facture) Issue(db *gorm.DB) error {
	now := time.Now().In(time.UTC)

	err := f.transitionTo(db, FactureStatutEmise, map[string]interface{}{"emise_le": now})
	if err != nil {
		return err
	}

	f.EmiseLe = &now

	return nil
}

// Send moves an issued facture to the sent state.
func (f *Facture) Send(db *gorm.DB) error {
	now := time.Now().In(time.UTC)

	err := f.transitionTo(db, FactureStatutEnvoyee, map[string]interface{}{"envoyee_le": now})
	if err != nil {
		return err
	}

	f.EnvoyeeLe = &now

	return nil
}

// Cancel cancels a facture. Only possible before it was sent.
func (f *Facture) Cancel(db *gorm.DB) error {
	return f.transitionTo(db, FactureStatutAnnulee, nil)
}

// MarkPaid moves a sent facture to the paid state. When the facture
// originates from a situation still in the client-validated state, the
// situation advances to its invoiced state as well.
func (f *Facture) MarkPaid(db *gorm.DB) error {
	now := time.Now().In(time.UTC)

	err := f.transitionTo(db, FactureStatutPayee, map[string]interface{}{"payee_le": now})
	if err != nil {
		return err
	}

	f.PayeeLe = &now

	if f.SituationID != nil {
		var situation Situation
		err := db.First(&situation, "id = ?", *f.SituationID).Error
		if err != nil {
			return err
		}

		if situation.Statut == SituationStatutValideeClient {
			err = situation.MarkInvoiced(db, &now)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// RecordCollection records a collected amount reported by external
// reconciliation. Collections are additive. Once the running collected
// amount reaches the net payable, a sent facture is marked paid.
func (f *Facture) RecordCollection(db *gorm.DB, montant decimal.Decimal, date *time.Time) error {
	if montant.IsNegative() {
		return ErrMontantEncaisseNegatif
	}

	if f.Statut == FactureStatutAnnulee {
		return ErrFactureAnnulee
	}

	total := f.MontantEncaisse.Add(montant)

	stamp := time.Now().In(time.UTC)
	if date != nil {
		stamp = date.In(time.UTC)
	}

	err := db.Model(f).Updates(map[string]interface{}{
		"montant_encaisse":  total,
		"date_encaissement": stamp,
	}).Error
	if err != nil {
		return err
	}

	f.MontantEncaisse = total
	f.DateEncaissement = &stamp

	if f.Statut == FactureStatutEnvoyee && total.GreaterThanOrEqual(f.NetAPayer) {
		return f.MarkPaid(db)
	}

	return nil
}
