package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

func TestRegisterDeliversMentionsExactlyOnce(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	// The mention predates the agent; delivery happens at registration.
	_, err := CreateDocument(db, store.CreateDocumentParams{
		ProjectID: projectID,
		Type:      models.DocUpdate,
		Author:    "pm_1",
		Title:     "Review request",
		Content:   "Please review the checkout flow @dev_1",
	})
	require.NoError(t, err)

	params := store.RegisterAgentParams{
		AgentID:    "dev_1",
		ProjectID:  projectID,
		Role:       models.RoleBackendDev,
		Level:      models.LevelSenior,
		Connection: models.ConnectionDirect,
	}
	result, err := Register(context.Background(), db, params, testTimings())
	require.NoError(t, err)

	require.Len(t, result.Mentions, 1)
	assert.Equal(t, "dev_1", result.Mentions[0].AgentID)
	assert.Equal(t, "pm_1", result.Mentions[0].CreatedBy)

	// Re-registering must not replay the mention.
	result, err = Register(context.Background(), db, params, testTimings())
	require.NoError(t, err)
	assert.Empty(t, result.Mentions)
}

func TestRegisterIncludesImmediateDispatch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	task := createTask(t, db, featureID, "Ready to go", models.RoleBackendDev, models.LevelJunior)

	result, err := Register(context.Background(), db, store.RegisterAgentParams{
		AgentID:    "dev_1",
		ProjectID:  projectID,
		Role:       models.RoleBackendDev,
		Level:      models.LevelSenior,
		Connection: models.ConnectionDirect,
	}, testTimings())
	require.NoError(t, err)

	require.NotNil(t, result.NextTask)
	assert.Equal(t, task.ID, result.NextTask.ID)
	// Dispatch offers without locking; claiming is a separate step.
	assert.Nil(t, result.NextTask.LockedBy)
}

func TestRegisterWithEmptyBacklogYieldsWaitingToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	result, err := Register(context.Background(), db, store.RegisterAgentParams{
		AgentID:    "dev_1",
		ProjectID:  projectID,
		Role:       models.RoleBackendDev,
		Level:      models.LevelSenior,
		Connection: models.ConnectionDirect,
	}, testTimings())
	require.NoError(t, err)

	require.NotNil(t, result.NextTask)
	assert.True(t, result.NextTask.IsWaitingToken())
}

func TestRegisterUpserts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	first, err := Register(context.Background(), db, store.RegisterAgentParams{
		AgentID:    "dev_1",
		ProjectID:  projectID,
		Role:       models.RoleBackendDev,
		Level:      models.LevelJunior,
		Connection: models.ConnectionDirect,
	}, testTimings())
	require.NoError(t, err)

	second, err := Register(context.Background(), db, store.RegisterAgentParams{
		AgentID:    "dev_1",
		ProjectID:  projectID,
		Role:       models.RoleBackendDev,
		Level:      models.LevelSenior,
		Connection: models.ConnectionBridged,
	}, testTimings())
	require.NoError(t, err)

	assert.Equal(t, first.Agent.ID, second.Agent.ID)
	assert.Equal(t, models.LevelSenior, second.Agent.Level)
	assert.Equal(t, models.ConnectionBridged, second.Agent.Connection)
}
