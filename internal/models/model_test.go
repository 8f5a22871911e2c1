package models_test

import (
	"github.com/chantierflow/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestDefaultModelUUID() {
	projet := suite.createTestProjet(models.Projet{})
	assert.NotEqual(suite.T(), uuid.Nil, projet.ID)

	// A caller-provided ID is kept
	id := uuid.New()
	withID := suite.createTestProjet(models.Projet{DefaultModel: models.DefaultModel{ID: id}})
	assert.Equal(suite.T(), id, withID.ID)
}

func (suite *TestSuiteStandard) TestSoftDelete() {
	projet := suite.createTestProjet(models.Projet{})
	require.Nil(suite.T(), models.DB.Delete(&projet).Error)

	// Tombstoned rows are gone from the default query path
	var found models.Projet
	err := models.DB.First(&found, "id = ?", projet.ID).Error
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)

	// But stay retrievable for audit
	err = models.DB.Unscoped().First(&found, "id = ?", projet.ID).Error
	require.Nil(suite.T(), err)
	assert.NotNil(suite.T(), found.DeletedAt)
}

func (suite *TestSuiteStandard) TestNotFoundMessage() {
	var projet models.Projet
	err := models.DB.First(&projet, "id = ?", uuid.New()).Error

	require.NotNil(suite.T(), err)
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
	assert.Contains(suite.T(), err.Error(), "there is no projet matching your query")
}
