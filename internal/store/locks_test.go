package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
)

func TestLockTask(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	agent := createTestAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)
	task := createTestTask(t, db, featureID, "Build API", models.RoleBackendDev, models.LevelSenior)

	locked, err := LockTask(db, task.ID, "dev_1", projectID)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusUnderWork, locked.Status)
	require.NotNil(t, locked.LockedBy)
	assert.Equal(t, agent.ID, *locked.LockedBy)
	assert.Equal(t, "dev_1", locked.LockedByAgentID)
	assert.NotNil(t, locked.LockedAt)

	// Holder flips to working with the task as its current work.
	holder, err := GetAgent(db, "dev_1", projectID)
	require.NoError(t, err)
	assert.Equal(t, models.AgentWorking, holder.Status)
	require.NotNil(t, holder.CurrentTaskID)
	assert.Equal(t, task.ID, *holder.CurrentTaskID)

	// The acquisition is audited.
	entries, err := ListChangelog(db, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.TaskStatusCreated, entries[1].OldStatus)
	assert.Equal(t, models.TaskStatusUnderWork, entries[1].NewStatus)
	assert.Equal(t, "dev_1", entries[1].ChangedBy)
}

func TestLockTaskContention(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	createTestAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)
	createTestAgent(t, db, projectID, "dev_2", models.RoleBackendDev, models.LevelSenior)
	task := createTestTask(t, db, featureID, "Build API", models.RoleBackendDev, models.LevelSenior)

	_, err := LockTask(db, task.ID, "dev_1", projectID)
	require.NoError(t, err)

	_, err = LockTask(db, task.ID, "dev_2", projectID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockContention)

	var contention *LockContentionError
	require.ErrorAs(t, err, &contention)
	assert.Equal(t, "dev_1", contention.CurrentOwner)
	assert.Equal(t, "dev_2", contention.RequestedBy)
}

func TestLockTaskAtMostOneActive(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	createTestAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)
	first := createTestTask(t, db, featureID, "First", models.RoleBackendDev, models.LevelSenior)
	second := createTestTask(t, db, featureID, "Second", models.RoleBackendDev, models.LevelSenior)

	_, err := LockTask(db, first.ID, "dev_1", projectID)
	require.NoError(t, err)

	_, err = LockTask(db, second.ID, "dev_1", projectID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAgentBusy)

	var busy *AgentBusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, first.ID, busy.HeldTaskID)
	assert.Equal(t, second.ID, busy.WantedTask)
}

func TestLockTaskCrossProjectForbidden(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	firstProject, _ := createHierarchy(t, db, "webshop")
	_, secondFeature := createHierarchy(t, db, "billing")

	createTestAgent(t, db, firstProject, "dev_1", models.RoleBackendDev, models.LevelSenior)
	foreign := createTestTask(t, db, secondFeature, "Billing work", models.RoleBackendDev, models.LevelSenior)

	_, err := LockTask(db, foreign.ID, "dev_1", firstProject)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReleaseTaskLock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	createTestAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)
	task := createTestTask(t, db, featureID, "Build API", models.RoleBackendDev, models.LevelSenior)
	lockTestTask(t, db, task.ID, "dev_1", projectID)

	err := Transact(db, func(tx *sql.Tx) error {
		return ReleaseTaskLockTx(tx, task.ID)
	})
	require.NoError(t, err)

	reloaded, err := GetTask(db, task.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.LockedBy)
	assert.Nil(t, reloaded.LockedAt)
	// Release leaves status alone; reclaimed under_work tasks stay visible
	// as interrupted work.
	assert.Equal(t, models.TaskStatusUnderWork, reloaded.Status)
}
