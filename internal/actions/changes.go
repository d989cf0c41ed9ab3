package actions

import (
	"database/sql"
	"time"

	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// ChangeFeed is the result of a poll-changes call.
type ChangeFeed struct {
	Events []models.ChangeEvent `json:"events"`
	Latest time.Time            `json:"latest"`
}

// PollChanges returns everything that happened in a project after the
// cursor. Read errors degrade to an empty feed with the cursor unchanged;
// dashboards polling on a timer prefer a silent gap over an error page, and
// the unchanged cursor makes the next poll re-cover the window.
func PollChanges(db *sql.DB, since time.Time, projectID int64) ChangeFeed {
	events, latest, err := store.ListChanges(db, since, projectID)
	if err != nil {
		logger := log.WithComponent("changes")
		logger.Warn().Err(err).
			Int64("project_id", projectID).
			Msg("change feed query failed")
		return ChangeFeed{Events: []models.ChangeEvent{}, Latest: since}
	}
	return ChangeFeed{Events: events, Latest: latest}
}
