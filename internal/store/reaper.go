package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DefaultStaleThreshold is how long a lock holder may go unseen before its
// locks are reclaimed.
const DefaultStaleThreshold = 30 * time.Minute

// ReapStaleLocks releases locks held by agents whose last_seen is at or
// before now - threshold. Only the lock columns are cleared; a task left in
// under_work with no holder is reclaimed work awaiting a new claimer. The
// holding agents are flipped back to idle so the working-implies-current-task
// invariant keeps holding.
//
// Agents crash, partitions happen, workflows abort. Without reclamation a
// single lost agent permanently removes its task from circulation. Running
// this at the start of every dispatch call amortizes the sweep across the
// natural polling rate.
func ReapStaleLocks(db *sql.DB, now time.Time, threshold time.Duration) (int64, error) {
	var count int64
	cutoff := encodeTime(now.Add(-threshold))

	err := Transact(db, func(tx *sql.Tx) error {
		// Agents first: while the lock rows still identify the stale holders.
		if _, err := tx.Exec(`
			UPDATE agents SET status = 'idle', current_task_id = NULL, updated_at = ?
			WHERE id IN (
				SELECT t.locked_by FROM tasks t
				JOIN agents a ON a.id = t.locked_by
				WHERE a.last_seen_at <= ?
			)
		`, encodeTime(now), cutoff); err != nil {
			return fmt.Errorf("failed to idle stale agents: %w", err)
		}

		result, err := tx.Exec(`
			UPDATE tasks SET locked_by = NULL, locked_at = NULL, updated_at = ?
			WHERE locked_by IN (SELECT id FROM agents WHERE last_seen_at <= ?)
		`, encodeTime(now), cutoff)
		if err != nil {
			return fmt.Errorf("failed to reap stale locks: %w", err)
		}

		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count reaped locks: %w", err)
		}
		return nil
	})
	return count, err
}
