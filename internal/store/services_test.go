package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
)

func TestRegisterServiceUpsert(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	port := 8080

	first, err := RegisterService(db, RegisterServiceParams{
		ProjectID:    projectID,
		Name:         "api",
		OwnerAgentID: "dev_1",
		PingURL:      "http://localhost:8080/health",
		Port:         &port,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ServiceStarting, first.Status)
	require.NotNil(t, first.Port)
	assert.Equal(t, 8080, *first.Port)

	// Mark it up, then re-register: status resets to starting.
	require.NoError(t, ApplyProbeResults(db, []ProbeResult{{ServiceID: first.ID, Success: true, At: time.Now()}}))

	second, err := RegisterService(db, RegisterServiceParams{
		ProjectID:    projectID,
		Name:         "api",
		OwnerAgentID: "dev_2",
		PingURL:      "http://localhost:8081/health",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ServiceStarting, second.Status)
	assert.Equal(t, "dev_2", second.OwnerAgentID)
	assert.Equal(t, "http://localhost:8081/health", second.PingURL)
}

func TestRegisterServiceValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	_, err := RegisterService(db, RegisterServiceParams{ProjectID: projectID, PingURL: "http://x/health"})
	assert.Error(t, err)

	_, err = RegisterService(db, RegisterServiceParams{ProjectID: projectID, Name: "api"})
	assert.Error(t, err)
}

func TestApplyProbeResults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	api, err := RegisterService(db, RegisterServiceParams{
		ProjectID: projectID, Name: "api", OwnerAgentID: "dev_1", PingURL: "http://localhost:8080/health",
	})
	require.NoError(t, err)
	worker, err := RegisterService(db, RegisterServiceParams{
		ProjectID: projectID, Name: "worker", OwnerAgentID: "dev_1", PingURL: "http://localhost:8081/health",
	})
	require.NoError(t, err)

	now := time.Now()
	err = ApplyProbeResults(db, []ProbeResult{
		{ServiceID: api.ID, Success: true, At: now},
		{ServiceID: worker.ID, Success: false, At: now},
	})
	require.NoError(t, err)

	up, err := GetService(db, "api", projectID)
	require.NoError(t, err)
	assert.Equal(t, models.ServiceUp, up.Status)
	assert.True(t, up.LastPingSuccess)
	require.NotNil(t, up.LastPingAt)

	down, err := GetService(db, "worker", projectID)
	require.NoError(t, err)
	assert.Equal(t, models.ServiceDown, down.Status)
	assert.False(t, down.LastPingSuccess)
}

func TestHeartbeatAndUnregisterService(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	_, err := RegisterService(db, RegisterServiceParams{
		ProjectID: projectID, Name: "api", OwnerAgentID: "dev_1", PingURL: "http://localhost:8080/health",
	})
	require.NoError(t, err)

	require.NoError(t, HeartbeatService(db, "api", projectID))
	assert.ErrorIs(t, HeartbeatService(db, "ghost", projectID), ErrNotFound)

	require.NoError(t, UnregisterService(db, "api", projectID))
	assert.ErrorIs(t, UnregisterService(db, "api", projectID), ErrNotFound)

	services, err := ListServices(db)
	require.NoError(t, err)
	assert.Empty(t, services)
}
