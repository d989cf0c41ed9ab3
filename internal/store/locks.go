package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

// Lock acquisition is the arbitration point of the dispatcher: next-task is
// read-only and many agents may be offered the same task; exactly one lock
// commit wins. All invariant checks run inside the same transaction as the
// write, so concurrent attempts cannot interleave between check and update.

// LockTask acquires exclusive ownership of a task for an agent.
func LockTask(db *sql.DB, taskID int64, agentID string, projectID int64) (*models.Task, error) {
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		agent, err := getAgentByQuerier(tx, agentID, projectID)
		if err != nil {
			return err
		}
		task, err = LockTaskTx(tx, taskID, agent, agent.AgentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// LockTaskTx locks taskID for agent inside an existing transaction. actor is
// the agent identifier recorded in the changelog (the claimer on self-locks,
// the assigning PM on assignments).
func LockTaskTx(tx *sql.Tx, taskID int64, agent *models.Agent, actor string) (*models.Task, error) {
	task, err := getTaskByQuerier(tx, taskID)
	if err != nil {
		return nil, err
	}

	if task.LockedBy != nil {
		return nil, &LockContentionError{
			TaskID:       taskID,
			CurrentOwner: task.LockedByAgentID,
			RequestedBy:  agent.AgentID,
		}
	}

	projectID, err := TaskProjectID(tx, taskID)
	if err != nil {
		return nil, err
	}
	if projectID != agent.ProjectID {
		return nil, &ForbiddenError{Reason: "task belongs to a different project"}
	}

	// At-most-one-active-task invariant.
	var heldTaskID int64
	err = tx.QueryRow(`SELECT id FROM tasks WHERE locked_by = ? LIMIT 1`, agent.ID).Scan(&heldTaskID)
	if err == nil {
		return nil, &AgentBusyError{AgentID: agent.AgentID, HeldTaskID: heldTaskID, WantedTask: taskID}
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check agent locks: %w", err)
	}

	now := encodeTime(time.Now())
	result, err := tx.Exec(`
		UPDATE tasks
		SET locked_by = ?, locked_at = ?, status = 'under_work', updated_at = ?
		WHERE id = ? AND locked_by IS NULL
	`, agent.ID, now, now, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock task: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if ra == 0 {
		return nil, &LockContentionError{TaskID: taskID, RequestedBy: agent.AgentID}
	}

	if _, err := AppendChangelogTx(tx, taskID, task.Status, models.TaskStatusUnderWork, actor, ""); err != nil {
		return nil, err
	}

	if err := setAgentWorkingTx(tx, agent.ID, taskID); err != nil {
		return nil, err
	}

	return getTaskByQuerier(tx, taskID)
}
