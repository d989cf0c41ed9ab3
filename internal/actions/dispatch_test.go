package actions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

func TestNextTaskReturnsEligibleWork(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	registerAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)
	created := createTask(t, db, featureID, "Build API", models.RoleBackendDev, models.LevelJunior)

	task, err := NextTask(context.Background(), db, NextTaskParams{
		ProjectID: projectID,
		AgentID:   "dev_1",
		Role:      models.RoleBackendDev,
		Level:     models.LevelSenior,
	}, testTimings())
	require.NoError(t, err)
	assert.Equal(t, created.ID, task.ID)
	assert.False(t, task.IsWaitingToken())
}

func TestNextTaskTimeoutYieldsWaitingToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	registerAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)

	start := time.Now()
	task, err := NextTask(context.Background(), db, NextTaskParams{
		ProjectID: projectID,
		AgentID:   "dev_1",
		Role:      models.RoleBackendDev,
		Level:     models.LevelSenior,
		Timeout:   50 * time.Millisecond,
	}, testTimings())
	require.NoError(t, err)

	require.True(t, task.IsWaitingToken())
	assert.Equal(t, models.WaitingTokenID, task.ID)
	assert.Equal(t, models.TaskTypeWaiting, task.TaskType)
	assert.Equal(t, "dev_1", task.LockedByAgentID)
	assert.Equal(t, models.DefaultPollInterval, task.PollInterval)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestNextTaskSyntheticView(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, featureID := createHierarchy(t, db, "webshop")
	created := createTask(t, db, featureID, "Anywhere", models.RoleBackendDev, models.LevelJunior)

	// No registered agent, no project scope.
	task, err := NextTask(context.Background(), db, NextTaskParams{
		Role:  models.RoleBackendDev,
		Level: models.LevelSenior,
	}, testTimings())
	require.NoError(t, err)
	assert.Equal(t, created.ID, task.ID)
}

func TestNextTaskCancellation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	registerAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NextTask(ctx, db, NextTaskParams{
		ProjectID: projectID,
		AgentID:   "dev_1",
		Role:      models.RoleBackendDev,
		Level:     models.LevelSenior,
		Timeout:   time.Second,
	}, testTimings())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextTaskReapsBeforeResolving(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	stale := registerAgent(t, db, projectID, "dev_stale", models.RoleBackendDev, models.LevelSenior)
	registerAgent(t, db, projectID, "dev_live", models.RoleBackendDev, models.LevelSenior)

	task := createTask(t, db, featureID, "Abandoned", models.RoleBackendDev, models.LevelJunior)
	_, err := store.LockTask(db, task.ID, "dev_stale", projectID)
	require.NoError(t, err)
	backdateAgent(t, db, stale.ID, time.Hour)

	// The stale lock is reclaimed within the same dispatch call, so the
	// abandoned task is offered immediately.
	got, err := NextTask(context.Background(), db, NextTaskParams{
		ProjectID: projectID,
		AgentID:   "dev_live",
		Role:      models.RoleBackendDev,
		Level:     models.LevelSenior,
	}, testTimings())
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Nil(t, got.LockedBy)
}

func TestNextTaskUnknownAgent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	_, err := NextTask(context.Background(), db, NextTaskParams{
		ProjectID: projectID,
		AgentID:   "ghost",
		Role:      models.RoleBackendDev,
		Level:     models.LevelSenior,
	}, testTimings())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
