package models

import (
	"errors"
	"strings"
	"time"

	"github.com/chantierflow/backend/internal/money"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Achat lifecycle states.
const (
	AchatStatutDemande     = "demande"
	AchatStatutValide      = "valide"
	AchatStatutRejete      = "rejete"
	AchatStatutCommande    = "commande"
	AchatStatutReceptionne = "receptionne"
	AchatStatutFacture     = "facture"
)

// achatTransitions is the closed transition table of the achat state
// machine. Rejete and facture are terminal.
var achatTransitions = map[string][]string{
	AchatStatutDemande:     {AchatStatutValide, AchatStatutRejete},
	AchatStatutValide:      {AchatStatutCommande, AchatStatutRejete},
	AchatStatutCommande:    {AchatStatutReceptionne},
	AchatStatutReceptionne: {AchatStatutFacture},
}

// achatEngagedStatuts are the states whose achats count as engaged.
var achatEngagedStatuts = []string{
	AchatStatutValide,
	AchatStatutCommande,
	AchatStatutReceptionne,
	AchatStatutFacture,
}

// Achat is a purchase order against a project, optionally attached to a
// fournisseur and a lot.
//
// MontantReel and DateFactureReelle are set only by external
// reconciliation. When present, MontantReel overrides the nominal total
// for all aggregation purposes.
type Achat struct {
	DefaultModel
	ProjetID      uuid.UUID   `json:"projetId" gorm:"index"`
	FournisseurID *uuid.UUID  `json:"fournisseurId"`
	Fournisseur   Fournisseur `json:"-"`
	LotID         *uuid.UUID  `json:"lotId"`

	Libelle      string          `json:"libelle"`
	Quantite     decimal.Decimal `json:"quantite" gorm:"type:DECIMAL(20,8)"`
	PrixUnitaire decimal.Decimal `json:"prixUnitaire" gorm:"type:DECIMAL(20,8)"`
	TauxTVA      decimal.Decimal `json:"tauxTVA" gorm:"type:DECIMAL(20,8)"`

	Statut     string `json:"statut"`
	MotifRejet string `json:"motifRejet,omitempty"`
	RefFacture string `json:"refFacture,omitempty"`

	MontantReel       *decimal.Decimal `json:"montantReel" gorm:"type:DECIMAL(20,8)"`
	DateFactureReelle *time.Time       `json:"dateFactureReelle"`
}

// BeforeSave validates the achat and enforces the reverse-charge VAT
// rule: an achat against a subcontractor always carries VAT rate 0,
// whatever rate was requested, on creation and on any later edit that
// touches the fournisseur or the VAT field.
func (a *Achat) BeforeSave(tx *gorm.DB) error {
	a.Libelle = strings.TrimSpace(a.Libelle)
	a.MotifRejet = strings.TrimSpace(a.MotifRejet)
	a.RefFacture = strings.TrimSpace(a.RefFacture)

	if a.Libelle == "" {
		return ErrLibelleRequis
	}

	if !a.Quantite.IsPositive() {
		return ErrQuantiteNotPositive
	}

	if a.PrixUnitaire.IsNegative() {
		return ErrPrixUnitaireNegative
	}

	if !money.IsLegalVATRate(a.TauxTVA) {
		return ErrTauxTVAInvalide
	}

	if a.FournisseurID != nil && !a.TauxTVA.IsZero() {
		var fournisseur Fournisseur
		err := tx.First(&fournisseur, "id = ?", *a.FournisseurID).Error
		if err != nil {
			return err
		}

		if fournisseur.SousTraitant {
			log.Info().
				Str("achat", a.Libelle).
				Str("fournisseur", fournisseur.Nom).
				Str("taux", a.TauxTVA.String()).
				Msg("autoliquidation: forcing VAT rate to 0 for subcontractor achat")
			a.TauxTVA = decimal.Zero
		}
	}

	return nil
}

// MontantHT is the nominal total excluding tax.
func (a Achat) MontantHT() decimal.Decimal {
	return money.RoundHalfUp(a.Quantite.Mul(a.PrixUnitaire))
}

// MontantTVA is the VAT on the nominal total.
func (a Achat) MontantTVA() decimal.Decimal {
	return money.VATAmount(a.MontantHT(), a.TauxTVA)
}

// MontantTTC is the nominal total including tax.
func (a Achat) MontantTTC() decimal.Decimal {
	return a.MontantHT().Add(a.MontantTVA())
}

// MontantEffectif is the amount used by all aggregations: the
// reconciled real amount when present, the nominal total otherwise.
func (a Achat) MontantEffectif() decimal.Decimal {
	if a.MontantReel != nil {
		return *a.MontantReel
	}

	return a.MontantHT()
}

// CreateAchat creates a new achat in the requested state, or directly in
// the approved state when the owning budget's auto-approval rule is
// satisfied.
func CreateAchat(db *gorm.DB, achat Achat) (Achat, error) {
	if achat.FournisseurID != nil {
		var fournisseur Fournisseur
		err := db.First(&fournisseur, "id = ?", *achat.FournisseurID).Error
		if err != nil {
			return Achat{}, err
		}

		if !fournisseur.Actif {
			return Achat{}, ErrFournisseurInactif
		}

		// Affectation rules assign a default lot from the supplier name
		if achat.LotID == nil {
			lotID, err := MatchLotForFournisseur(db, fournisseur.Nom)
			if err != nil {
				return Achat{}, err
			}
			achat.LotID = lotID
		}
	}

	achat.Statut = AchatStatutDemande

	// Below the budget's validation threshold, the achat skips the
	// pending review state entirely. A project without a budget has no
	// threshold, every achat then needs the manual review.
	budget, err := BudgetForProjet(db, achat.ProjetID)
	switch {
	case err == nil:
		if !budget.NeedsApproval(achat.MontantHT()) {
			achat.Statut = AchatStatutValide
			log.Info().
				Str("achat", achat.Libelle).
				Str("montant", achat.MontantHT().String()).
				Str("seuil", budget.SeuilValidationAchat.String()).
				Msg("achat auto-approved below budget threshold")
		}
	case errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrResourceNotFound):
		// no budget, keep the requested state
	default:
		return Achat{}, err
	}

	err = db.Create(&achat).Error
	if err != nil {
		return Achat{}, err
	}

	return achat, nil
}

// transitionTo moves the achat to the target state if the transition
// table allows it, and persists the given extra columns alongside.
func (a *Achat) transitionTo(db *gorm.DB, target string, updates map[string]interface{}) error {
	allowed := false
	for _, t := range achatTransitions[a.Statut] {
		if t == target {
			allowed = true
			break
		}
	}

	if !allowed {
		return TransitionError{Entity: "achat", ID: a.ID, From: a.Statut, To: target}
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["statut"] = target

	err := db.Model(a).Updates(updates).Error
	if err != nil {
		return err
	}

	a.Statut = target

	return nil
}

// Approve moves a requested achat to the approved state.
func (a *Achat) Approve(db *gorm.DB) error {
	if a.Statut != AchatStatutDemande {
		return TransitionError{Entity: "achat", ID: a.ID, From: a.Statut, To: AchatStatutValide}
	}

	return a.transitionTo(db, AchatStatutValide, nil)
}

// Reject rejects an achat. A non-empty reason is required.
func (a *Achat) Reject(db *gorm.DB, motif string) error {
	motif = strings.TrimSpace(motif)
	if motif == "" {
		return ErrMotifRejetRequis
	}

	err := a.transitionTo(db, AchatStatutRejete, map[string]interface{}{"motif_rejet": motif})
	if err != nil {
		return err
	}

	a.MotifRejet = motif

	return nil
}

// Order moves an approved achat to the ordered state.
func (a *Achat) Order(db *gorm.DB) error {
	return a.transitionTo(db, AchatStatutCommande, nil)
}

// Receive moves an ordered achat to the received state.
func (a *Achat) Receive(db *gorm.DB) error {
	return a.transitionTo(db, AchatStatutReceptionne, nil)
}

// Invoice moves a received achat to the invoiced state. The supplier
// invoice reference is required.
func (a *Achat) Invoice(db *gorm.DB, refFacture string) error {
	refFacture = strings.TrimSpace(refFacture)
	if refFacture == "" {
		return ErrRefFactureRequise
	}

	err := a.transitionTo(db, AchatStatutFacture, map[string]interface{}{"ref_facture": refFacture})
	if err != nil {
		return err
	}

	a.RefFacture = refFacture

	return nil
}

// Reconcile records the real amount and real invoice date reported by
// the external ledger synchronization.
func (a *Achat) Reconcile(db *gorm.DB, montantReel decimal.Decimal, dateFacture *time.Time) error {
	if montantReel.IsNegative() {
		return FieldError{Field: "montantReel", Message: "must not be negative"}
	}

	err := db.Model(a).Updates(map[string]interface{}{
		"montant_reel":        montantReel,
		"date_facture_reelle": dateFacture,
	}).Error
	if err != nil {
		return err
	}

	a.MontantReel = &montantReel
	a.DateFactureReelle = dateFacture

	return nil
}

// achatSum is the aggregation primitive: the sum of effective amounts
// over live achats in the given states, optionally restricted to a lot.
// The nominal amount is rounded per row so the sum equals the sum of
// the per-achat totals.
//
// Sums are recomputed from the achats table on every call, never
// cached, so they stay correct under out-of-band reconciliation writes.
func achatSum(db *gorm.DB, projetID uuid.UUID, statuts []string, lotID *uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	query := db.
		Model(&Achat{}).
		Select("SUM(CASE WHEN montant_reel IS NOT NULL THEN montant_reel ELSE ROUND(quantite * prix_unitaire, 2) END)").
		Where("projet_id = ?", projetID).
		Where("statut IN ?", statuts)

	if lotID != nil {
		query = query.Where("lot_id = ?", *lotID)
	}

	err := query.Find(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}

	return money.RoundHalfUp(sum.Decimal), nil
}

// EngagedSum is the engaged amount of a project: the sum over all
// non-rejected, non-pending achats.
func EngagedSum(db *gorm.DB, projetID uuid.UUID) (decimal.Decimal, error) {
	return achatSum(db, projetID, achatEngagedStatuts, nil)
}

// RealizedSum is the realized amount of a project: the sum over
// invoiced achats only.
func RealizedSum(db *gorm.DB, projetID uuid.UUID) (decimal.Decimal, error) {
	return achatSum(db, projetID, []string{AchatStatutFacture}, nil)
}

// EngagedSumForLot is the engaged amount restricted to one lot.
func EngagedSumForLot(db *gorm.DB, projetID uuid.UUID, lotID uuid.UUID) (decimal.Decimal, error) {
	return achatSum(db, projetID, achatEngagedStatuts, &lotID)
}

// RealizedSumForLot is the realized amount restricted to one lot.
func RealizedSumForLot(db *gorm.DB, projetID uuid.UUID, lotID uuid.UUID) (decimal.Decimal, error) {
	return achatSum(db, projetID, []string{AchatStatutFacture}, &lotID)
}
