package models_test

import (
	"github.com/chantierflow/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestRegleAffectationMatch() {
	betonLot := uuid.New()
	elecLot := uuid.New()
	fallback := uuid.New()

	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 10, Motif: "beton*", LotID: betonLot})
	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 20, Motif: "*electricite*", LotID: elecLot})
	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 30, Motif: "*", LotID: fallback})

	tests := []struct {
		nom  string
		want uuid.UUID
	}{
		{"Beton Express", betonLot},
		{"BETON DU NORD", betonLot},
		{"Sud Electricite SARL", elecLot},
		{"Menuiserie Dupont", fallback},
	}

	for _, tt := range tests {
		lotID, err := models.MatchLotForFournisseur(models.DB, tt.nom)
		require.Nil(suite.T(), err)
		require.NotNil(suite.T(), lotID, "no rule matched %q", tt.nom)
		assert.Equal(suite.T(), tt.want, *lotID, "wrong lot for %q", tt.nom)
	}
}

func (suite *TestSuiteStandard) TestRegleAffectationNoMatch() {
	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 1, Motif: "beton*", LotID: uuid.New()})

	lotID, err := models.MatchLotForFournisseur(models.DB, "Menuiserie Dupont")
	require.Nil(suite.T(), err)
	assert.Nil(suite.T(), lotID)
}

func (suite *TestSuiteStandard) TestRegleAffectationPriority() {
	first := uuid.New()
	second := uuid.New()

	// Lower priority value wins
	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 20, Motif: "beton*", LotID: second})
	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 10, Motif: "*", LotID: first})

	lotID, err := models.MatchLotForFournisseur(models.DB, "Beton Express")
	require.Nil(suite.T(), err)
	require.NotNil(suite.T(), lotID)
	assert.Equal(suite.T(), first, *lotID)
}

func (suite *TestSuiteStandard) TestRegleAffectationMotifUnique() {
	suite.createTestRegleAffectation(models.RegleAffectation{Priorite: 1, Motif: "beton*", LotID: uuid.New()})

	duplicate := models.RegleAffectation{Priorite: 2, Motif: "beton*", LotID: uuid.New()}
	err := models.DB.Create(&duplicate).Error
	assert.ErrorIs(suite.T(), err, models.ErrMotifRegleNotUnique)
}

func (suite *TestSuiteStandard) TestRegleAffectationMotifRequired() {
	regle := models.RegleAffectation{Priorite: 1, Motif: "   ", LotID: uuid.New()}
	err := models.DB.Create(&regle).Error
	assert.ErrorIs(suite.T(), err, models.ErrValidation)
}
