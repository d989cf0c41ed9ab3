package actions

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	db, err := store.InitDBWithPath(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	return db, func() { _ = db.Close() }
}

// testTimings keeps dispatch single-pass and windows tight for tests.
func testTimings() app.Timings {
	return app.Timings{
		StaleLockThreshold:   30 * time.Minute,
		ActiveAgentWindow:    30 * time.Minute,
		DispatchPollInterval: 10 * time.Millisecond,
		DispatchMaxTimeout:   time.Second,
		ProbeInterval:        time.Second,
		ProbeTimeout:         time.Second,
	}
}

func createHierarchy(t *testing.T, db *sql.DB, projectName string) (int64, int64) {
	t.Helper()

	project, err := store.CreateProject(db, projectName, "", "", "")
	require.NoError(t, err)
	epic, err := store.CreateEpic(db, project.ID, "Epic", "")
	require.NoError(t, err)
	feature, err := store.CreateFeature(db, epic.ID, "Feature", "")
	require.NoError(t, err)
	return project.ID, feature.ID
}

func registerAgent(t *testing.T, db *sql.DB, projectID int64, agentID string, role models.Role, level models.SkillLevel) *models.Agent {
	t.Helper()

	agent, err := store.RegisterAgent(db, store.RegisterAgentParams{
		AgentID:    agentID,
		ProjectID:  projectID,
		Role:       role,
		Level:      level,
		Connection: models.ConnectionDirect,
	})
	require.NoError(t, err)
	return agent
}

func createTask(t *testing.T, db *sql.DB, featureID int64, title string, role models.Role, difficulty models.Difficulty) *models.Task {
	t.Helper()

	task, err := store.CreateTask(db, store.CreateTaskParams{
		FeatureID:  featureID,
		Title:      title,
		CreatedBy:  "pm_1",
		TargetRole: role,
		Difficulty: difficulty,
	})
	require.NoError(t, err)
	return task
}

func backdateAgent(t *testing.T, db *sql.DB, agentRowID int64, d time.Duration) {
	t.Helper()

	// Fixed-width UTC layout matching the store's timestamp encoding.
	at := time.Now().UTC().Add(-d).Format("2006-01-02 15:04:05.000000000")
	_, err := db.Exec(`UPDATE agents SET last_seen_at = ? WHERE id = ?`, at, agentRowID)
	require.NoError(t, err)
}
