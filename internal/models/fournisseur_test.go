package models_test

import (
	"github.com/chantierflow/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestFournisseurSIRETUnique() {
	suite.createTestFournisseur(models.Fournisseur{SIRET: "12345678900011"})

	duplicate := models.Fournisseur{Nom: "Doublon", SIRET: "12345678900011"}
	err := models.DB.Create(&duplicate).Error
	assert.ErrorIs(suite.T(), err, models.ErrSIRETNotUnique)
}

func (suite *TestSuiteStandard) TestFournisseurTrimWhitespace() {
	fournisseur := suite.createTestFournisseur(models.Fournisseur{
		Nom:     "  Beton Express \t",
		SIRET:   " 98765432100015 ",
		Contact: " contact@beton.example ",
	})

	assert.Equal(suite.T(), "Beton Express", fournisseur.Nom)
	assert.Equal(suite.T(), "98765432100015", fournisseur.SIRET)
	assert.Equal(suite.T(), "contact@beton.example", fournisseur.Contact)
}

func (suite *TestSuiteStandard) TestFournisseurNomRequired() {
	fournisseur := models.Fournisseur{Nom: "   "}
	err := models.DB.Create(&fournisseur).Error
	assert.ErrorIs(suite.T(), err, models.ErrValidation)
}
