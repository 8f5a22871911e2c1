package models_test

import (
	"github.com/chantierflow/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// billableSituation creates a situation and advances it to the
// client-validated state.
func (suite *TestSuiteStandard) billableSituation() models.Situation {
	_, budget, lot := suite.situationFixture()

	situation := suite.createTestSituation(models.Situation{
		ProjetID:           budget.ProjetID,
		BudgetID:           budget.ID,
		TauxTVA:            decimal.NewFromInt(20),
		RetenueGarantiePct: decimal.NewFromInt(5),
	}, map[uuid.UUID]decimal.Decimal{lot.ID: decimal.NewFromInt(40)})

	require.Nil(suite.T(), situation.Submit(models.DB))
	require.Nil(suite.T(), situation.Validate(models.DB, "chef"))
	require.Nil(suite.T(), situation.ValidateByClient(models.DB))

	return situation
}

func (suite *TestSuiteStandard) TestFactureDerivedAmounts() {
	facture, err := models.CreateFacture(models.DB, models.Facture{
		ProjetID:           suite.createTestProjet(models.Projet{}).ID,
		MontantHT:          decimal.NewFromInt(1000),
		TauxTVA:            decimal.NewFromInt(20),
		RetenueGarantiePct: decimal.NewFromInt(5),
	})
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), models.FactureStatutBrouillon, facture.Statut)
	assert.Equal(suite.T(), models.FactureTypeAcompte, facture.Type)
	assert.Regexp(suite.T(), `^FAC-\d{4}-001$`, facture.Numero)

	assert.True(suite.T(), facture.MontantTVA.Equal(decimal.NewFromInt(200)), "TVA is %s", facture.MontantTVA)
	assert.True(suite.T(), facture.MontantTTC.Equal(decimal.NewFromInt(1200)))
	assert.True(suite.T(), facture.RetenueGarantie.Equal(decimal.NewFromInt(60)), "retention is %s", facture.RetenueGarantie)
	assert.True(suite.T(), facture.NetAPayer.Equal(decimal.NewFromInt(1140)))
}

func (suite *TestSuiteStandard) TestFactureFromSituation() {
	situation := suite.billableSituation()

	facture, err := models.CreateFactureFromSituation(models.DB, situation)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), models.FactureTypeSituation, facture.Type)
	require.NotNil(suite.T(), facture.SituationID)
	assert.Equal(suite.T(), situation.ID, *facture.SituationID)

	// The facture bills the period amount, not the cumulative
	assert.True(suite.T(), facture.MontantHT.Equal(situation.PeriodeHT))
	assert.True(suite.T(), facture.TauxTVA.Equal(situation.TauxTVA))

	// One facture per situation
	_, err = models.CreateFactureFromSituation(models.DB, situation)
	assert.ErrorIs(suite.T(), err, models.ErrSituationDejaFacturee)
}

func (suite *TestSuiteStandard) TestFactureFromSituationRequiresClientValidation() {
	_, budget, lot := suite.situationFixture()

	situation := suite.createTestSituation(models.Situation{
		ProjetID: budget.ProjetID,
		BudgetID: budget.ID,
	}, map[uuid.UUID]decimal.Decimal{lot.ID: decimal.NewFromInt(40)})

	require.Nil(suite.T(), situation.Submit(models.DB))
	require.Nil(suite.T(), situation.Validate(models.DB, "chef"))

	// Internally validated is not enough
	_, err := models.CreateFactureFromSituation(models.DB, situation)
	assert.ErrorIs(suite.T(), err, models.ErrSituationNonFacturable)
}

func (suite *TestSuiteStandard) TestFactureLifecycle() {
	facture, err := models.CreateFacture(models.DB, models.Facture{
		ProjetID:  suite.createTestProjet(models.Projet{}).ID,
		MontantHT: decimal.NewFromInt(500),
	})
	require.Nil(suite.T(), err)

	// Cannot skip the issued state
	assert.ErrorIs(suite.T(), facture.Send(models.DB), models.ErrInvalidTransition)

	require.Nil(suite.T(), facture.Issue(models.DB))
	assert.Equal(suite.T(), models.FactureStatutEmise, facture.Statut)
	assert.NotNil(suite.T(), facture.EmiseLe)

	require.Nil(suite.T(), facture.Send(models.DB))
	assert.Equal(suite.T(), models.FactureStatutEnvoyee, facture.Statut)

	// Cancellation is only possible before the facture was sent
	assert.ErrorIs(suite.T(), facture.Cancel(models.DB), models.ErrInvalidTransition)

	require.Nil(suite.T(), facture.MarkPaid(models.DB))
	assert.Equal(suite.T(), models.FactureStatutPayee, facture.Statut)
	assert.NotNil(suite.T(), facture.PayeeLe)
}

func (suite *TestSuiteStandard) TestFacturePaidAdvancesSituation() {
	situation := suite.billableSituation()

	facture, err := models.CreateFactureFromSituation(models.DB, situation)
	require.Nil(suite.T(), err)

	require.Nil(suite.T(), facture.Issue(models.DB))
	require.Nil(suite.T(), facture.Send(models.DB))
	require.Nil(suite.T(), facture.MarkPaid(models.DB))

	var reloaded models.Situation
	require.Nil(suite.T(), models.DB.First(&reloaded, "id = ?", situation.ID).Error)
	assert.Equal(suite.T(), models.SituationStatutFacturee, reloaded.Statut)
}

func (suite *TestSuiteStandard) TestFactureRecordCollection() {
	facture, err := models.CreateFacture(models.DB, models.Facture{
		ProjetID:  suite.createTestProjet(models.Projet{}).ID,
		MontantHT: decimal.NewFromInt(1000),
		TauxTVA:   decimal.NewFromInt(20),
	})
	require.Nil(suite.T(), err)
	require.Nil(suite.T(), facture.Issue(models.DB))
	require.Nil(suite.T(), facture.Send(models.DB))

	assert.ErrorIs(suite.T(), facture.RecordCollection(models.DB, decimal.NewFromInt(-1), nil), models.ErrMontantEncaisseNegatif)

	// Collections are additive
	require.Nil(suite.T(), facture.RecordCollection(models.DB, decimal.NewFromInt(500), nil))
	assert.True(suite.T(), facture.MontantEncaisse.Equal(decimal.NewFromInt(500)))
	assert.Equal(suite.T(), models.FactureStatutEnvoyee, facture.Statut)

	// Reaching the net payable marks the facture paid
	require.Nil(suite.T(), facture.RecordCollection(models.DB, decimal.NewFromInt(700), nil))
	assert.True(suite.T(), facture.MontantEncaisse.Equal(decimal.NewFromInt(1200)))
	assert.Equal(suite.T(), models.FactureStatutPayee, facture.Statut)
}

func (suite *TestSuiteStandard) TestFactureCollectionOnCanceled() {
	facture, err := models.CreateFacture(models.DB, models.Facture{
		ProjetID:  suite.createTestProjet(models.Projet{}).ID,
		MontantHT: decimal.NewFromInt(100),
	})
	require.Nil(suite.T(), err)
	require.Nil(suite.T(), facture.Cancel(models.DB))

	err = facture.RecordCollection(models.DB, decimal.NewFromInt(10), nil)
	assert.ErrorIs(suite.T(), err, models.ErrFactureAnnulee)
}

func (suite *TestSuiteStandard) TestFactureNumbering() {
	projet := suite.createTestProjet(models.Projet{})

	first, err := models.CreateFacture(models.DB, models.Facture{ProjetID: projet.ID})
	require.Nil(suite.T(), err)
	second, err := models.CreateFacture(models.DB, models.Facture{ProjetID: projet.ID})
	require.Nil(suite.T(), err)

	assert.Regexp(suite.T(), `^FAC-\d{4}-001$`, first.Numero)
	assert.Regexp(suite.T(), `^FAC-\d{4}-002$`, second.Numero)
}
