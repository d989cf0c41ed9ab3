package actions

import (
	"context"
	"database/sql"
	"time"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/metrics"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// NextTaskParams are the inputs of a dispatch poll. AgentID and ProjectID are
// optional together: a bare (role, level) request is served with a synthetic
// agent view across all projects.
type NextTaskParams struct {
	ProjectID int64
	AgentID   string
	Role      models.Role
	Level     models.SkillLevel
	Timeout   time.Duration
}

// NextTask is the long-poll dispatch loop. Each iteration reaps stale locks,
// then asks the eligibility resolver for the oldest claimable task. With no
// work and time remaining it sleeps one poll interval and retries; when the
// timeout expires it returns a waiting token instead of an error, so clients
// can treat every successful poll uniformly. Timeout 0 means a single pass.
//
// The returned task is an offer, not a reservation: the caller must still win
// the lock before working on it.
func NextTask(ctx context.Context, db *sql.DB, p NextTaskParams, t app.Timings) (*models.Task, error) {
	logger := log.WithComponent("dispatch")

	if p.Timeout < 0 {
		p.Timeout = 0
	}
	if p.Timeout > t.DispatchMaxTimeout {
		p.Timeout = t.DispatchMaxTimeout
	}
	deadline := time.Now().Add(p.Timeout)

	view := AgentView{ProjectID: p.ProjectID, Role: p.Role, Level: p.Level}
	if p.AgentID != "" && p.ProjectID != 0 {
		agent, err := store.GetAgent(db, p.AgentID, p.ProjectID)
		if err != nil {
			return nil, err
		}
		view = viewFromAgent(agent)
	}

	for {
		reaped, err := store.ReapStaleLocks(db, time.Now(), t.StaleLockThreshold)
		if err != nil {
			return nil, err
		}
		if reaped > 0 {
			metrics.LocksReaped.Add(float64(reaped))
			logger.Info().Int64("reaped", reaped).Msg("reclaimed stale task locks")
		}

		if view.RowID != 0 {
			if err := store.TouchAgent(db, view.AgentID, view.ProjectID); err != nil {
				return nil, err
			}
		}

		task, err := EligibleTask(db, view, t.ActiveAgentWindow)
		if err != nil {
			return nil, err
		}
		if task != nil {
			metrics.TasksDispatched.WithLabelValues(string(view.Role)).Inc()
			logger.Debug().Int64("task_id", task.ID).Str("role", string(view.Role)).Msg("task offered")
			return task, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			metrics.WaitingTokens.WithLabelValues(string(view.Role)).Inc()
			return models.NewWaitingToken(view.Role, view.AgentID), nil
		}

		wait := t.DispatchPollInterval
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
