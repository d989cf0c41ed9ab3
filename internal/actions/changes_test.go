package actions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

func TestPollChangesAdvancesCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	since := time.Now().Add(-time.Second)

	createTask(t, db, featureID, "Build API", models.RoleBackendDev, models.LevelJunior)
	_, err := CreateDocument(db, store.CreateDocumentParams{
		ProjectID: projectID,
		Type:      models.DocUpdate,
		Author:    "pm_1",
		Title:     "Plan",
		Content:   "Kickoff",
	})
	require.NoError(t, err)

	feed := PollChanges(db, since, projectID)
	require.NotEmpty(t, feed.Events)
	assert.True(t, feed.Latest.After(since))

	// Polling from the returned cursor yields nothing new.
	feed = PollChanges(db, feed.Latest, projectID)
	assert.Empty(t, feed.Events)
}
