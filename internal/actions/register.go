package actions

import (
	"context"
	"database/sql"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// RegisterResult is what an agent gets back on registration: its persisted
// row, the mentions that accumulated while it was away, and an immediate
// non-blocking dispatch pass.
type RegisterResult struct {
	Agent    *models.Agent     `json:"agent"`
	Mentions []*models.Mention `json:"mentions,omitempty"`
	NextTask *models.Task      `json:"next_task"`
}

// Register upserts the agent and delivers its pending notifications. Mentions
// are marked read on delivery; registration is the delivery point, so a
// re-registering agent sees each mention exactly once.
func Register(ctx context.Context, db *sql.DB, p store.RegisterAgentParams, t app.Timings) (*RegisterResult, error) {
	agent, err := store.RegisterAgent(db, p)
	if err != nil {
		return nil, err
	}
	logger := log.WithAgentID(agent.AgentID)
	logger.Info().
		Int64("project_id", agent.ProjectID).
		Str("role", string(agent.Role)).
		Str("level", string(agent.Level)).
		Msg("agent registered")

	mentions, err := store.ListUnreadMentions(db, agent.AgentID)
	if err != nil {
		return nil, err
	}
	if len(mentions) > 0 {
		ids := make([]int64, len(mentions))
		for i, m := range mentions {
			ids[i] = m.ID
		}
		if err := store.MarkMentionsRead(db, ids); err != nil {
			return nil, err
		}
	}

	next, err := NextTask(ctx, db, NextTaskParams{
		ProjectID: agent.ProjectID,
		AgentID:   agent.AgentID,
		Role:      agent.Role,
		Level:     agent.Level,
		Timeout:   0,
	}, t)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{Agent: agent, Mentions: mentions, NextTask: next}, nil
}
