package actions

import (
	"database/sql"
	"time"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// AgentView is the requesting-agent shape the resolver works with. Dispatch
// without a registered agent composes a synthetic view from (role, level);
// RowID 0 and ProjectID 0 mark the synthetic case.
type AgentView struct {
	RowID     int64
	AgentID   string
	ProjectID int64
	Role      models.Role
	Level     models.SkillLevel
}

func viewFromAgent(a *models.Agent) AgentView {
	return AgentView{
		RowID:     a.ID,
		AgentID:   a.AgentID,
		ProjectID: a.ProjectID,
		Role:      a.Role,
		Level:     a.Level,
	}
}

// legacyStatusApproved may survive in rows imported from deployments that
// predate boundary normalization. Architects and PMs treat it as claimable.
const legacyStatusApproved = models.TaskStatus("approved")

// EligibleTask returns the oldest task the agent may claim right now, or nil.
// The resolver never mutates state; it is a point-in-time view and does not
// reserve the task it returns.
//
// Rules: QA picks up dev_done work across the project regardless of target
// role. Everyone else gets created tasks matching their role whose difficulty
// falls inside the permitted set computed by the skill-level fallback.
// Management tasks are assigned explicitly and never resolved here.
func EligibleTask(db *sql.DB, view AgentView, activeWindow time.Duration) (*models.Task, error) {
	params := store.ClaimableTasksParams{
		ProjectID: view.ProjectID,
		Limit:     1,
	}

	// under_work with no lock holder is reclaimed work dropped by the reaper;
	// it goes back into circulation alongside the fresh backlog.
	if view.Role == models.RoleQA {
		params.Statuses = []models.TaskStatus{models.TaskStatusDevDone, models.TaskStatusUnderWork}
	} else {
		params.Statuses = []models.TaskStatus{models.TaskStatusCreated, models.TaskStatusUnderWork}
		if view.Role == models.RoleArchitect || view.Role == models.RoleProjectPM {
			params.Statuses = append(params.Statuses, legacyStatusApproved)
		}
		params.TargetRole = view.Role

		diffs, err := permittedDifficulties(db, view, activeWindow)
		if err != nil {
			return nil, err
		}
		params.Difficulties = diffs
	}

	tasks, err := store.ListClaimableTasks(db, params)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

// permittedDifficulties computes the skill-level fallback set. An agent can
// always take tasks at or below its own level. Each level above is added only
// if no agent with that exact level and the same role has been seen within
// the active window — a senior picks up principal work only while no
// principal is around. The check is point-in-time and reserves nothing.
func permittedDifficulties(db *sql.DB, view AgentView, activeWindow time.Duration) ([]models.Difficulty, error) {
	levels := models.SkillLevels()
	idx := view.Level.Index()
	if idx < 0 {
		// Unknown level: no fallback, own-level rules cannot apply either.
		return nil, &models.InvalidEnumError{Enum: "skill_level", Value: string(view.Level)}
	}

	permitted := make([]models.Difficulty, 0, len(levels))
	permitted = append(permitted, levels[:idx+1]...)

	since := time.Now().Add(-activeWindow)
	for _, level := range levels[idx+1:] {
		n, err := store.CountActiveAgents(db, view.ProjectID, view.Role, level, since)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			permitted = append(permitted, level)
		}
	}
	return permitted, nil
}
