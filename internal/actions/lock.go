package actions

import (
	"database/sql"
	"errors"

	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/metrics"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// Lock claims exclusive ownership of a task for an agent. Conflicts are
// normal operation, not failures: many agents may have been offered the same
// task and exactly one wins.
func Lock(db *sql.DB, taskID int64, agentID string, projectID int64) (*models.Task, error) {
	task, err := store.LockTask(db, taskID, agentID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrLockContention) || errors.Is(err, store.ErrAgentBusy) {
			metrics.LockConflicts.Inc()
			logger := log.WithAgentID(agentID)
			logger.Debug().Int64("task_id", taskID).Msg("lock conflict")
		}
		return nil, err
	}
	return task, nil
}

// Assign locks a task on behalf of a target agent. Only a project PM may
// assign; the target must be idle. The changelog records the assigner as the
// actor, not the target.
func Assign(db *sql.DB, taskID int64, targetAgentID, assignerID string, projectID int64) (*models.Task, error) {
	var task *models.Task
	err := store.Transact(db, func(tx *sql.Tx) error {
		assigner, err := store.GetAgentTx(tx, assignerID, projectID)
		if err != nil {
			return err
		}
		if assigner.Role != models.RoleProjectPM && assigner.Role != models.RoleUIAdmin {
			return &store.ForbiddenError{Reason: "only a project PM may assign tasks"}
		}

		target, err := store.GetAgentTx(tx, targetAgentID, projectID)
		if err != nil {
			return err
		}
		if target.Status != models.AgentIdle {
			return &store.ForbiddenError{Reason: "target agent is not idle"}
		}

		task, err = store.LockTaskTx(tx, taskID, target, assignerID)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrLockContention) || errors.Is(err, store.ErrAgentBusy) {
			metrics.LockConflicts.Inc()
		}
		return nil, err
	}
	return task, nil
}
