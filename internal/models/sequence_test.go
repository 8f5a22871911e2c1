package models_test

import (
	"github.com/chantierflow/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestNextSequence() {
	for expected := int64(1); expected <= 3; expected++ {
		counter, err := models.NextSequence(models.DB, "facture", 2026)
		require.Nil(suite.T(), err)
		assert.Equal(suite.T(), expected, counter)
	}

	// Kinds and years count independently
	counter, err := models.NextSequence(models.DB, "facture", 2027)
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), int64(1), counter)

	counter, err = models.NextSequence(models.DB, "situation:abc", 2026)
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), int64(1), counter)
}

func (suite *TestSuiteStandard) TestFormatNumber() {
	assert.Equal(suite.T(), "FAC-2026-007", models.FormatNumber("FAC", 2026, 7))
	assert.Equal(suite.T(), "SIT-2026-123", models.FormatNumber("SIT", 2026, 123))
	assert.Equal(suite.T(), "AV-2026-1000", models.FormatNumber("AV", 2026, 1000))
}
