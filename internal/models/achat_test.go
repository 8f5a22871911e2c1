package models_test

import (
	"testing"
	"time"

	"github.com/chantierflow/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestAchatAmounts() {
	achat := models.Achat{
		Quantite:     decimal.NewFromInt(10),
		PrixUnitaire: decimal.NewFromInt(50),
		TauxTVA:      decimal.NewFromInt(20),
	}

	assert.True(suite.T(), achat.MontantHT().Equal(decimal.NewFromInt(500)), "HT is %s", achat.MontantHT())
	assert.True(suite.T(), achat.MontantTVA().Equal(decimal.NewFromInt(100)), "TVA is %s", achat.MontantTVA())
	assert.True(suite.T(), achat.MontantTTC().Equal(decimal.NewFromInt(600)), "TTC is %s", achat.MontantTTC())
}

func (suite *TestSuiteStandard) TestAchatMontantEffectif() {
	achat := models.Achat{
		Quantite:     decimal.NewFromInt(10),
		PrixUnitaire: decimal.NewFromInt(50),
	}

	assert.True(suite.T(), achat.MontantEffectif().Equal(decimal.NewFromInt(500)))

	reel := decimal.RequireFromString("512.34")
	achat.MontantReel = &reel
	assert.True(suite.T(), achat.MontantEffectif().Equal(reel))
}

func (suite *TestSuiteStandard) TestAchatValidation() {
	projet := suite.createTestProjet(models.Projet{})

	tests := []struct {
		name  string
		achat models.Achat
		err   error
	}{
		{
			"valid",
			models.Achat{ProjetID: projet.ID, Libelle: "Parpaings", Quantite: decimal.NewFromInt(100), PrixUnitaire: decimal.NewFromInt(2), TauxTVA: decimal.NewFromInt(20)},
			nil,
		},
		{
			"empty libelle",
			models.Achat{ProjetID: projet.ID, Libelle: "  ", Quantite: decimal.NewFromInt(1)},
			models.ErrLibelleRequis,
		},
		{
			"zero quantity",
			models.Achat{ProjetID: projet.ID, Libelle: "Sable", Quantite: decimal.Zero},
			models.ErrQuantiteNotPositive,
		},
		{
			"negative unit price",
			models.Achat{ProjetID: projet.ID, Libelle: "Ciment", Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(-5)},
			models.ErrPrixUnitaireNegative,
		},
		{
			"illegal VAT rate",
			models.Achat{ProjetID: projet.ID, Libelle: "Gravier", Quantite: decimal.NewFromInt(1), TauxTVA: decimal.NewFromInt(7)},
			models.ErrTauxTVAInvalide,
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			_, err := models.CreateAchat(models.DB, tt.achat)
			if tt.err == nil {
				assert.Nil(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestAchatSousTraitantAutoliquidation() {
	projet := suite.createTestProjet(models.Projet{})
	sousTraitant := suite.createTestFournisseur(models.Fournisseur{SousTraitant: true, Actif: true})

	achat, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:      projet.ID,
		FournisseurID: &sousTraitant.ID,
		Libelle:       "Pose placo",
		Quantite:      decimal.NewFromInt(10),
		PrixUnitaire:  decimal.NewFromInt(100),
		TauxTVA:       decimal.NewFromInt(20),
	})
	require.Nil(suite.T(), err)

	// Reverse charge: the requested rate is discarded
	assert.True(suite.T(), achat.TauxTVA.IsZero(), "VAT rate is %s", achat.TauxTVA)
	assert.True(suite.T(), achat.MontantTVA().IsZero())

	// The rule also holds on later edits
	achat.TauxTVA = decimal.NewFromInt(10)
	require.Nil(suite.T(), models.DB.Save(&achat).Error)
	assert.True(suite.T(), achat.TauxTVA.IsZero())
}

func (suite *TestSuiteStandard) TestAchatFournisseurInactif() {
	projet := suite.createTestProjet(models.Projet{})
	fournisseur := suite.createTestFournisseur(models.Fournisseur{Actif: false})

	_, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:      projet.ID,
		FournisseurID: &fournisseur.ID,
		Libelle:       "Commande refusee",
		Quantite:      decimal.NewFromInt(1),
	})
	assert.ErrorIs(suite.T(), err, models.ErrFournisseurInactif)
}

func (suite *TestSuiteStandard) TestAchatAutoApproval() {
	projet := suite.createTestProjet(models.Projet{})
	suite.createTestBudget(models.Budget{
		ProjetID:             projet.ID,
		MontantInitial:       decimal.NewFromInt(100000),
		SeuilValidationAchat: decimal.NewFromInt(1000),
	})

	below, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:     projet.ID,
		Libelle:      "Petite fourniture",
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(500),
	})
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), models.AchatStatutValide, below.Statut)

	// The boundary value still goes through the manual review
	boundary, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:     projet.ID,
		Libelle:      "Fourniture au seuil",
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(1000),
	})
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), models.AchatStatutDemande, boundary.Statut)
}

func (suite *TestSuiteStandard) TestAchatLifecycle() {
	projet := suite.createTestProjet(models.Projet{})

	achat, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:     projet.ID,
		Libelle:      "Charpente",
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(20000),
	})
	require.Nil(suite.T(), err)
	require.Equal(suite.T(), models.AchatStatutDemande, achat.Statut)

	require.Nil(suite.T(), achat.Approve(models.DB))
	assert.Equal(suite.T(), models.AchatStatutValide, achat.Statut)

	require.Nil(suite.T(), achat.Order(models.DB))
	assert.Equal(suite.T(), models.AchatStatutCommande, achat.Statut)

	require.Nil(suite.T(), achat.Receive(models.DB))
	assert.Equal(suite.T(), models.AchatStatutReceptionne, achat.Statut)

	require.Nil(suite.T(), achat.Invoice(models.DB, "F-2026-1234"))
	assert.Equal(suite.T(), models.AchatStatutFacture, achat.Statut)
	assert.Equal(suite.T(), "F-2026-1234", achat.RefFacture)
}

func (suite *TestSuiteStandard) TestAchatInvalidTransitions() {
	projet := suite.createTestProjet(models.Projet{})

	achat, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:     projet.ID,
		Libelle:      "Couverture",
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(5000),
	})
	require.Nil(suite.T(), err)

	// Skipping states is not possible
	assert.ErrorIs(suite.T(), achat.Order(models.DB), models.ErrInvalidTransition)
	assert.ErrorIs(suite.T(), achat.Receive(models.DB), models.ErrInvalidTransition)
	assert.ErrorIs(suite.T(), achat.Invoice(models.DB, "F-1"), models.ErrInvalidTransition)

	// The failed transitions left the state untouched
	var reloaded models.Achat
	require.Nil(suite.T(), models.DB.First(&reloaded, "id = ?", achat.ID).Error)
	assert.Equal(suite.T(), models.AchatStatutDemande, reloaded.Statut)

	// Rejete is terminal
	require.Nil(suite.T(), achat.Reject(models.DB, "hors budget"))
	assert.Equal(suite.T(), "hors budget", achat.MotifRejet)
	assert.ErrorIs(suite.T(), achat.Approve(models.DB), models.ErrInvalidTransition)
}

func (suite *TestSuiteStandard) TestAchatRejectRequiresMotif() {
	projet := suite.createTestProjet(models.Projet{})

	achat, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:     projet.ID,
		Libelle:      "Serrurerie",
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(800),
	})
	require.Nil(suite.T(), err)

	assert.ErrorIs(suite.T(), achat.Reject(models.DB, "  "), models.ErrMotifRejetRequis)
	assert.Equal(suite.T(), models.AchatStatutDemande, achat.Statut)
}

func (suite *TestSuiteStandard) TestAchatInvoiceRequiresRef() {
	projet := suite.createTestProjet(models.Projet{})

	achat := suite.createTestAchat(models.Achat{
		ProjetID:     projet.ID,
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(100),
		Statut:       models.AchatStatutReceptionne,
	})

	assert.ErrorIs(suite.T(), achat.Invoice(models.DB, ""), models.ErrRefFactureRequise)
}

func (suite *TestSuiteStandard) TestAchatReconcile() {
	projet := suite.createTestProjet(models.Projet{})

	achat := suite.createTestAchat(models.Achat{
		ProjetID:     projet.ID,
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(1000),
		Statut:       models.AchatStatutFacture,
	})

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	require.Nil(suite.T(), achat.Reconcile(models.DB, decimal.RequireFromString("1023.45"), &date))

	var reloaded models.Achat
	require.Nil(suite.T(), models.DB.First(&reloaded, "id = ?", achat.ID).Error)
	require.NotNil(suite.T(), reloaded.MontantReel)
	assert.True(suite.T(), reloaded.MontantReel.Equal(decimal.RequireFromString("1023.45")))

	err := achat.Reconcile(models.DB, decimal.NewFromInt(-1), nil)
	assert.ErrorIs(suite.T(), err, models.ErrValidation)
}

func (suite *TestSuiteStandard) TestAchatSums() {
	projet := suite.createTestProjet(models.Projet{})

	// Pending and rejected achats never count
	suite.createTestAchat(models.Achat{ProjetID: projet.ID, Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(111), Statut: models.AchatStatutDemande})
	suite.createTestAchat(models.Achat{ProjetID: projet.ID, Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(222), Statut: models.AchatStatutRejete})

	suite.createTestAchat(models.Achat{ProjetID: projet.ID, Quantite: decimal.NewFromInt(2), PrixUnitaire: decimal.NewFromInt(500), Statut: models.AchatStatutValide})
	suite.createTestAchat(models.Achat{ProjetID: projet.ID, Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(3000), Statut: models.AchatStatutCommande})

	// The reconciled amount overrides the nominal one
	reel := decimal.NewFromInt(2100)
	facture := suite.createTestAchat(models.Achat{ProjetID: projet.ID, Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(2000), Statut: models.AchatStatutFacture})
	require.Nil(suite.T(), facture.Reconcile(models.DB, reel, nil))

	engaged, err := models.EngagedSum(models.DB, projet.ID)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), engaged.Equal(decimal.NewFromInt(6100)), "engaged is %s", engaged)

	realized, err := models.RealizedSum(models.DB, projet.ID)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), realized.Equal(decimal.NewFromInt(2100)), "realized is %s", realized)
}

func (suite *TestSuiteStandard) TestAchatSumsRoundPerOrder() {
	projet := suite.createTestProjet(models.Projet{})

	// 1.2 × 1.13 = 1.356, rounded to 1.36 per order. Rounding only the
	// final sum would give 2.71 instead of 1.36 + 1.36.
	for i := 0; i < 2; i++ {
		suite.createTestAchat(models.Achat{
			ProjetID:     projet.ID,
			Quantite:     decimal.RequireFromString("1.2"),
			PrixUnitaire: decimal.RequireFromString("1.13"),
			Statut:       models.AchatStatutValide,
		})
	}

	engaged, err := models.EngagedSum(models.DB, projet.ID)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), engaged.Equal(decimal.RequireFromString("2.72")), "engaged is %s", engaged)
}

func (suite *TestSuiteStandard) TestAchatCreatePropagatesBudgetLookupError() {
	projet := suite.createTestProjet(models.Projet{})
	suite.CloseDB()

	_, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:     projet.ID,
		Libelle:      "Echafaudage",
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromInt(100),
	})
	assert.ErrorIs(suite.T(), err, models.ErrGeneral)
}

func (suite *TestSuiteStandard) TestAchatSumsExcludeDeleted() {
	projet := suite.createTestProjet(models.Projet{})

	achat := suite.createTestAchat(models.Achat{ProjetID: projet.ID, Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(900), Statut: models.AchatStatutValide})
	require.Nil(suite.T(), models.DB.Delete(&achat).Error)

	engaged, err := models.EngagedSum(models.DB, projet.ID)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), engaged.IsZero(), "engaged is %s", engaged)
}

func (suite *TestSuiteStandard) TestAchatSumsPerLot() {
	projet := suite.createTestProjet(models.Projet{})
	budget := suite.createTestBudget(models.Budget{ProjetID: projet.ID})
	lot := suite.createTestLot(models.Lot{BudgetID: &budget.ID, Code: "02", Libelle: "Gros oeuvre"})

	suite.createTestAchat(models.Achat{ProjetID: projet.ID, LotID: &lot.ID, Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(400), Statut: models.AchatStatutValide})
	suite.createTestAchat(models.Achat{ProjetID: projet.ID, Quantite: decimal.NewFromInt(1), PrixUnitaire: decimal.NewFromInt(600), Statut: models.AchatStatutValide})

	engagedLot, err := models.EngagedSumForLot(models.DB, projet.ID, lot.ID)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), engagedLot.Equal(decimal.NewFromInt(400)), "lot engaged is %s", engagedLot)
}

func (suite *TestSuiteStandard) TestAchatRegleAffectation() {
	projet := suite.createTestProjet(models.Projet{})
	budget := suite.createTestBudget(models.Budget{ProjetID: projet.ID, SeuilValidationAchat: decimal.NewFromInt(1)})
	lot := suite.createTestLot(models.Lot{BudgetID: &budget.ID, Code: "03", Libelle: "Beton"})

	fournisseur := suite.createTestFournisseur(models.Fournisseur{Nom: "Beton Express", Actif: true})
	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 1, Motif: "beton*", LotID: lot.ID})

	achat, err := models.CreateAchat(models.DB, models.Achat{
		ProjetID:      projet.ID,
		FournisseurID: &fournisseur.ID,
		Libelle:       "Toupie beton",
		Quantite:      decimal.NewFromInt(1),
		PrixUnitaire:  decimal.NewFromInt(1500),
	})
	require.Nil(suite.T(), err)
	require.NotNil(suite.T(), achat.LotID)
	assert.Equal(suite.T(), lot.ID, *achat.LotID)
}
