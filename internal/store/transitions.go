package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

// ApplyStatusTx writes a task's new status. When replaceNotes is set the
// notes column is overwritten wholesale; transitions replace notes, comments
// append (see AppendTaskNotesTx).
func ApplyStatusTx(tx *sql.Tx, taskID int64, to models.TaskStatus, notes string, replaceNotes bool) error {
	now := encodeTime(time.Now())

	var result sql.Result
	var err error
	if replaceNotes {
		result, err = tx.Exec(`
			UPDATE tasks SET status = ?, notes = ?, updated_at = ? WHERE id = ?
		`, string(to), notes, now, taskID)
	} else {
		result, err = tx.Exec(`
			UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
		`, string(to), now, taskID)
	}
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if ra == 0 {
		return &NotFoundError{Entity: "task", ID: strconv.FormatInt(taskID, 10)}
	}
	return nil
}

// ReleaseTaskLockTx clears a task's lock columns without touching its status.
func ReleaseTaskLockTx(tx *sql.Tx, taskID int64) error {
	_, err := tx.Exec(`
		UPDATE tasks SET locked_by = NULL, locked_at = NULL, updated_at = ? WHERE id = ?
	`, encodeTime(time.Now()), taskID)
	if err != nil {
		return fmt.Errorf("failed to release task lock: %w", err)
	}
	return nil
}
