package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

// AppendChangelogTx records a status transition. Entries are immutable and
// totally ordered per task by the store's commit order.
func AppendChangelogTx(tx *sql.Tx, taskID int64, from, to models.TaskStatus, actor, notes string) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO changelog (task_id, old_status, new_status, changed_by, notes, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, taskID, string(from), string(to), actor, notes, encodeTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to append changelog: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get changelog id: %w", err)
	}
	return id, nil
}

// ListChangelog returns the full transition history of a task, oldest first.
func ListChangelog(db *sql.DB, taskID int64) ([]*models.ChangelogEntry, error) {
	rows, err := db.Query(`
		SELECT id, task_id, old_status, new_status, changed_by, notes, changed_at
		FROM changelog WHERE task_id = ? ORDER BY id ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changelog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.ChangelogEntry, 0)
	for rows.Next() {
		var e models.ChangelogEntry
		var oldStatus, newStatus, changedAt string
		if err := rows.Scan(&e.ID, &e.TaskID, &oldStatus, &newStatus, &e.ChangedBy, &e.Notes, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan changelog entry: %w", err)
		}
		e.OldStatus = models.TaskStatus(oldStatus)
		e.NewStatus = models.TaskStatus(newStatus)
		if e.ChangedAt, err = decodeTime(changedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
