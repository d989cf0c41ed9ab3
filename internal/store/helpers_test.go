package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tempDir := t.TempDir()
	testDBPath := tempDir + "/test.db"

	db, err := InitDBWithPath(testDBPath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

// createHierarchy creates a project with one epic and one feature and returns
// (projectID, featureID).
func createHierarchy(t *testing.T, db *sql.DB, projectName string) (int64, int64) {
	t.Helper()

	project, err := CreateProject(db, projectName, "/tmp/shared", "/tmp/instructions", "/tmp/docs")
	require.NoError(t, err)

	epic, err := CreateEpic(db, project.ID, "Epic", "")
	require.NoError(t, err)

	feature, err := CreateFeature(db, epic.ID, "Feature", "")
	require.NoError(t, err)

	return project.ID, feature.ID
}

func createTestAgent(t *testing.T, db *sql.DB, projectID int64, agentID string, role models.Role, level models.SkillLevel) *models.Agent {
	t.Helper()

	agent, err := RegisterAgent(db, RegisterAgentParams{
		AgentID:    agentID,
		ProjectID:  projectID,
		Role:       role,
		Level:      level,
		Connection: models.ConnectionDirect,
	})
	require.NoError(t, err)
	return agent
}

func createTestTask(t *testing.T, db *sql.DB, featureID int64, title string, role models.Role, difficulty models.Difficulty) *models.Task {
	t.Helper()

	task, err := CreateTask(db, CreateTaskParams{
		FeatureID:  featureID,
		Title:      title,
		CreatedBy:  "pm_1",
		TargetRole: role,
		Difficulty: difficulty,
	})
	require.NoError(t, err)
	return task
}

// setAgentLastSeen backdates an agent's last_seen for reaper and window tests.
func setAgentLastSeen(t *testing.T, db *sql.DB, agentRowID int64, at time.Time) {
	t.Helper()

	_, err := db.Exec(`UPDATE agents SET last_seen_at = ? WHERE id = ?`, encodeTime(at), agentRowID)
	require.NoError(t, err)
}

func lockTestTask(t *testing.T, db *sql.DB, taskID int64, agentID string, projectID int64) *models.Task {
	t.Helper()

	task, err := LockTask(db, taskID, agentID, projectID)
	require.NoError(t, err)
	return task
}
