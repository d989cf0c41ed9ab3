package actions

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

func TestEligibleTaskRoleAndDifficulty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	dev := registerAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelJunior)

	createTask(t, db, featureID, "Frontend work", models.RoleFrontendDev, models.LevelJunior)
	hard := createTask(t, db, featureID, "Hard backend", models.RoleBackendDev, models.LevelSenior)
	easy := createTask(t, db, featureID, "Easy backend", models.RoleBackendDev, models.LevelJunior)

	task, err := EligibleTask(db, viewFromAgent(dev), 30*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, easy.ID, task.ID)
	assert.NotEqual(t, hard.ID, task.ID)
}

func TestEligibleTaskSkillFallback(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	senior := registerAgent(t, db, projectID, "dev_senior", models.RoleBackendDev, models.LevelSenior)
	principal := registerAgent(t, db, projectID, "dev_principal", models.RoleBackendDev, models.LevelPrincipal)

	principalTask := createTask(t, db, featureID, "Principal work", models.RoleBackendDev, models.LevelPrincipal)

	// A principal is active: the senior must not see principal work.
	task, err := EligibleTask(db, viewFromAgent(senior), 30*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, task)

	// The principal goes quiet: the task falls back to the senior.
	backdateAgent(t, db, principal.ID, time.Hour)

	task, err = EligibleTask(db, viewFromAgent(senior), 30*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, principalTask.ID, task.ID)
}

func TestEligibleTaskQASeesDevDoneAcrossRoles(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	qa := registerAgent(t, db, projectID, "qa_1", models.RoleQA, models.LevelJunior)

	created := createTask(t, db, featureID, "Still open", models.RoleBackendDev, models.LevelPrincipal)
	done := createTask(t, db, featureID, "Ready for QA", models.RoleBackendDev, models.LevelPrincipal)

	err := store.Transact(db, func(tx *sql.Tx) error {
		return store.ApplyStatusTx(tx, done.ID, models.TaskStatusDevDone, "", false)
	})
	require.NoError(t, err)

	// QA ignores target role and difficulty; only dev_done matters.
	task, err := EligibleTask(db, viewFromAgent(qa), 30*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, done.ID, task.ID)
	assert.NotEqual(t, created.ID, task.ID)
}

func TestEligibleTaskSkipsLocked(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	dev := registerAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)
	registerAgent(t, db, projectID, "dev_2", models.RoleBackendDev, models.LevelSenior)

	task := createTask(t, db, featureID, "Taken", models.RoleBackendDev, models.LevelJunior)
	_, err := store.LockTask(db, task.ID, "dev_2", projectID)
	require.NoError(t, err)

	got, err := EligibleTask(db, viewFromAgent(dev), 30*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPermittedDifficultiesOwnLevelAndBelow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	senior := registerAgent(t, db, projectID, "dev_senior", models.RoleBackendDev, models.LevelSenior)

	// No principal registered anywhere: senior covers everything.
	diffs, err := permittedDifficulties(db, viewFromAgent(senior), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []models.Difficulty{models.LevelJunior, models.LevelSenior, models.LevelPrincipal}, diffs)

	registerAgent(t, db, projectID, "dev_principal", models.RoleBackendDev, models.LevelPrincipal)

	diffs, err = permittedDifficulties(db, viewFromAgent(senior), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []models.Difficulty{models.LevelJunior, models.LevelSenior}, diffs)
}
