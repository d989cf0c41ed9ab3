package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
)

func TestCreateProject(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	project, err := CreateProject(db, "webshop", "/tmp/shared", "/tmp/instructions", "/tmp/docs")
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.NotZero(t, project.ID)
	assert.Equal(t, "webshop", project.Name)
	assert.Equal(t, "/tmp/shared", project.SharedPath)
	assert.False(t, project.CreatedAt.IsZero())
}

func TestCreateProjectDuplicateName(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := CreateProject(db, "webshop", "", "", "")
	require.NoError(t, err)

	_, err = CreateProject(db, "webshop", "", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetProjectByName(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := CreateProject(db, "webshop", "", "", "")
	require.NoError(t, err)

	project, err := GetProjectByName(db, "webshop")
	require.NoError(t, err)
	assert.Equal(t, created.ID, project.ID)

	_, err = GetProjectByName(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectRequiresEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	err := DeleteProject(db, projectID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	// Still there.
	_, err = GetProject(db, projectID)
	require.NoError(t, err)
}

func TestDeleteProjectForceCascades(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, featureID := createHierarchy(t, db, "webshop")
	createTestAgent(t, db, projectID, "dev_1", models.RoleBackendDev, models.LevelSenior)
	task := createTestTask(t, db, featureID, "Build API", models.RoleBackendDev, models.LevelSenior)

	err := DeleteProject(db, projectID, true)
	require.NoError(t, err)

	_, err = GetProject(db, projectID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Dependent rows are gone via database-level cascade.
	_, err = GetTask(db, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = GetAgent(db, "dev_1", projectID)
	assert.ErrorIs(t, err, ErrNotFound)
}
