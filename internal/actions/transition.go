package actions

import (
	"context"
	"database/sql"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/metrics"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// WorkflowStatus tells a polling agent what to do after a status update.
type WorkflowStatus string

// Workflow hints returned with an update result.
const (
	// WorkflowContinue means a real next task accompanies the result.
	WorkflowContinue WorkflowStatus = "continue"
	// WorkflowWaiting means open backlog exists but nothing is claimable yet.
	WorkflowWaiting WorkflowStatus = "waiting"
	// WorkflowNoTasks means no unfinished work targets the agent's role.
	WorkflowNoTasks WorkflowStatus = "no_tasks"
	// WorkflowManagement means the updated task was a management task; the
	// agent should report back instead of polling for more work.
	WorkflowManagement WorkflowStatus = "management"
)

// UpdateStatusParams are the inputs of a status transition.
type UpdateStatusParams struct {
	TaskID    int64
	ActorID   string
	NewStatus string
	Notes     string
}

// UpdateStatusResult bundles the updated task with the agent's next step.
type UpdateStatusResult struct {
	Task     *models.Task
	NextTask *models.Task
	Workflow WorkflowStatus
}

// UpdateStatus applies a status transition and computes the actor's next
// move. The transition itself is applied without a validity matrix: state
// skips are a privileged-actor feature and role checks live at the dispatch
// and assignment boundaries. Atomically, in one transaction: status update,
// notes replacement, lock release on leaving under_work, agent idle flip and
// changelog append. The follow-up next-task resolution runs outside the
// transaction as a single non-blocking pass.
func UpdateStatus(ctx context.Context, db *sql.DB, p UpdateStatusParams, t app.Timings) (*UpdateStatusResult, error) {
	to, err := models.NormalizeTaskStatus(p.NewStatus)
	if err != nil {
		return nil, err
	}

	var task *models.Task
	var actor *models.Agent
	err = store.Transact(db, func(tx *sql.Tx) error {
		task, err = store.GetTaskTx(tx, p.TaskID)
		if err != nil {
			return err
		}

		projectID, err := store.TaskProjectID(tx, p.TaskID)
		if err != nil {
			return err
		}
		actor, err = store.GetAgentTx(tx, p.ActorID, projectID)
		if err != nil {
			return err
		}

		from := task.Status
		if err := store.ApplyStatusTx(tx, p.TaskID, to, p.Notes, p.Notes != ""); err != nil {
			return err
		}

		if from == models.TaskStatusUnderWork && to != models.TaskStatusUnderWork && task.LockedBy != nil {
			if err := store.ReleaseTaskLockTx(tx, p.TaskID); err != nil {
				return err
			}
			if err := store.SetAgentIdleByRowTx(tx, *task.LockedBy); err != nil {
				return err
			}
		}

		if _, err := store.AppendChangelogTx(tx, p.TaskID, from, to, p.ActorID, p.Notes); err != nil {
			return err
		}

		task, err = store.GetTaskTx(tx, p.TaskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()

	result := &UpdateStatusResult{Task: task}
	result.NextTask, result.Workflow, err = nextMove(ctx, db, task, actor, t)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nextMove resolves what the actor should do after finishing with a task:
// hand over the next claimable task, report a waiting token, or signal that
// the role's backlog is exhausted. Management tasks end the loop outright.
func nextMove(ctx context.Context, db *sql.DB, task *models.Task, actor *models.Agent, t app.Timings) (*models.Task, WorkflowStatus, error) {
	if task.TaskType == models.TaskTypeManagement {
		return nil, WorkflowManagement, nil
	}

	next, err := NextTask(ctx, db, NextTaskParams{
		ProjectID: actor.ProjectID,
		AgentID:   actor.AgentID,
		Role:      actor.Role,
		Level:     actor.Level,
		Timeout:   0,
	}, t)
	if err != nil {
		return nil, "", err
	}
	if !next.IsWaitingToken() {
		return next, WorkflowContinue, nil
	}

	open, err := store.HasOpenBacklog(db, actor.ProjectID, actor.Role)
	if err != nil {
		return nil, "", err
	}
	if !open {
		return nil, WorkflowNoTasks, nil
	}
	return next, WorkflowWaiting, nil
}

// ManualComplete lets a project PM force a task to a target status, skipping
// the normal progression. The changelog entry is recorded under the invoking
// PM, not the original lock holder.
func ManualComplete(ctx context.Context, db *sql.DB, taskID int64, targetStatus, actorID string, t app.Timings) (*models.Task, error) {
	projectID, err := store.TaskProjectID(db, taskID)
	if err != nil {
		return nil, err
	}
	actor, err := store.GetAgent(db, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleProjectPM && actor.Role != models.RoleUIAdmin {
		return nil, &store.ForbiddenError{Reason: "only a project PM may manually complete tasks"}
	}

	result, err := UpdateStatus(ctx, db, UpdateStatusParams{
		TaskID:    taskID,
		ActorID:   actorID,
		NewStatus: targetStatus,
	}, t)
	if err != nil {
		return nil, err
	}
	return result.Task, nil
}
