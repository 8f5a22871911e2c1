package models_test

import (
	"testing"

	"github.com/chantierflow/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestLotRattachement() {
	budget := suite.createTestBudget(models.Budget{})
	devis := suite.createTestDevis(models.Devis{ProjetID: budget.ProjetID})

	tests := []struct {
		name string
		lot  models.Lot
		err  error
	}{
		{"budget only", models.Lot{BudgetID: &budget.ID, Code: "01"}, nil},
		{"devis only", models.Lot{DevisID: &devis.ID, Code: "02"}, nil},
		{"neither", models.Lot{Code: "03"}, models.ErrLotRattachement},
		{"both", models.Lot{BudgetID: &budget.ID, DevisID: &devis.ID, Code: "04"}, models.ErrLotRattachement},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			err := models.DB.Create(&tt.lot).Error
			if tt.err == nil {
				assert.Nil(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestLotCodeUniquePerBudget() {
	budget := suite.createTestBudget(models.Budget{})
	suite.createTestLot(models.Lot{BudgetID: &budget.ID, Code: "01"})

	duplicate := models.Lot{BudgetID: &budget.ID, Code: "01"}
	err := models.DB.Create(&duplicate).Error
	assert.ErrorIs(suite.T(), err, models.ErrLotCodeNotUnique)

	// The same code on another budget is fine
	other := suite.createTestBudget(models.Budget{})
	suite.createTestLot(models.Lot{BudgetID: &other.ID, Code: "01"})
}

func (suite *TestSuiteStandard) TestLotMontantPrevu() {
	lot := models.Lot{
		Quantite:     decimal.RequireFromString("12.5"),
		PrixUnitaire: decimal.RequireFromString("99.99"),
	}

	assert.True(suite.T(), lot.MontantPrevu().Equal(decimal.RequireFromString("1249.88")), "planned amount is %s", lot.MontantPrevu())
}

func (suite *TestSuiteStandard) TestLotPrixVente() {
	marge := decimal.NewFromInt(20)
	lot := models.Lot{
		CoutMainOeuvre: decimal.NewFromInt(1000),
		CoutMateriaux:  decimal.NewFromInt(500),
		MargePct:       &marge,
	}

	require.True(suite.T(), lot.CoutTotal().Equal(decimal.NewFromInt(1500)))

	prix, ok := lot.PrixVente()
	require.True(suite.T(), ok)
	assert.True(suite.T(), prix.Equal(decimal.NewFromInt(1800)), "sale price is %s", prix)
}

func (suite *TestSuiteStandard) TestLotPrixVenteUndefined() {
	// No cost breakdown, no sale price
	_, ok := models.Lot{}.PrixVente()
	assert.False(suite.T(), ok)
}

func (suite *TestSuiteStandard) TestActiveLotsOrdering() {
	budget := suite.createTestBudget(models.Budget{})
	suite.createTestLot(models.Lot{BudgetID: &budget.ID, Code: "03"})
	suite.createTestLot(models.Lot{BudgetID: &budget.ID, Code: "01"})
	suite.createTestLot(models.Lot{BudgetID: &budget.ID, Code: "02"})

	lots, err := models.ActiveLotsForBudget(models.DB, budget.ID)
	require.Nil(suite.T(), err)
	require.Len(suite.T(), lots, 3)
	assert.Equal(suite.T(), "01", lots[0].Code)
	assert.Equal(suite.T(), "02", lots[1].Code)
	assert.Equal(suite.T(), "03", lots[2].Code)
}

func (suite *TestSuiteStandard) TestActiveLotsExcludeDeleted() {
	budget := suite.createTestBudget(models.Budget{})
	lot := suite.createTestLot(models.Lot{BudgetID: &budget.ID, Code: "01"})
	require.Nil(suite.T(), models.DB.Delete(&lot).Error)

	lots, err := models.ActiveLotsForBudget(models.DB, budget.ID)
	require.Nil(suite.T(), err)
	assert.Len(suite.T(), lots, 0)
}
