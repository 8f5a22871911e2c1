package models_test

import (
	"github.com/chantierflow/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestRecordJournal() {
	id := uuid.New()
	models.RecordJournal(models.DB, "achat", id, "creation", "Parpaings", "chef")

	var entries []models.Journal
	require.Nil(suite.T(), models.DB.Find(&entries).Error)
	require.Len(suite.T(), entries, 1)

	assert.Equal(suite.T(), "achat", entries[0].EntiteType)
	assert.Equal(suite.T(), id, entries[0].EntiteID)
	assert.Equal(suite.T(), "creation", entries[0].Action)
	assert.Equal(suite.T(), "chef", entries[0].Acteur)
	assert.False(suite.T(), entries[0].CreatedAt.IsZero())
}

func (suite *TestSuiteStandard) TestRecordJournalNeverFails() {
	suite.CloseDB()

	// Must not panic even though the write cannot succeed
	models.RecordJournal(models.DB, "achat", uuid.New(), "creation", "", "chef")
}
