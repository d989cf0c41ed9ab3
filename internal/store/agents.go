package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

const agentColumns = `id, agent_id, project_id, role, skill_level, connection_kind, status,
	current_task_id, last_seen_at, last_activity_at, created_at, updated_at`

// RegisterAgentParams are the inputs for agent registration or refresh.
type RegisterAgentParams struct {
	AgentID    string
	ProjectID  int64
	Role       models.Role
	Level      models.SkillLevel
	Connection models.ConnectionKind
}

// RegisterAgent inserts the agent or silently refreshes an existing row:
// role, level and connection kind are updated and last_seen is bumped.
// Registering the same agent twice yields the same persisted row.
func RegisterAgent(db *sql.DB, p RegisterAgentParams) (*models.Agent, error) {
	var agent *models.Agent
	err := Transact(db, func(tx *sql.Tx) error {
		var err error
		agent, err = RegisterAgentTx(tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// RegisterAgentTx is the in-transaction variant of RegisterAgent.
func RegisterAgentTx(tx *sql.Tx, p RegisterAgentParams) (*models.Agent, error) {
	if p.AgentID == "" {
		return nil, errors.New("agent id is required")
	}
	if _, err := getProjectByQuerier(tx, p.ProjectID); err != nil {
		return nil, err
	}

	now := encodeTime(time.Now())
	_, err := tx.Exec(`
		INSERT INTO agents (agent_id, project_id, role, skill_level, connection_kind, status,
			last_seen_at, last_activity_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'idle', ?, ?, ?, ?)
		ON CONFLICT(agent_id, project_id) DO UPDATE SET
			role = excluded.role,
			skill_level = excluded.skill_level,
			connection_kind = excluded.connection_kind,
			last_seen_at = excluded.last_seen_at,
			updated_at = excluded.updated_at
	`, p.AgentID, p.ProjectID, string(p.Role), string(p.Level), string(p.Connection), now, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to register agent: %w", err)
	}

	return getAgentByQuerier(tx, p.AgentID, p.ProjectID)
}

// GetAgent retrieves an agent by its identifier within a project.
func GetAgent(db *sql.DB, agentID string, projectID int64) (*models.Agent, error) {
	return getAgentByQuerier(db, agentID, projectID)
}

// GetAgentTx is the in-transaction variant of GetAgent.
func GetAgentTx(tx *sql.Tx, agentID string, projectID int64) (*models.Agent, error) {
	return getAgentByQuerier(tx, agentID, projectID)
}

func getAgentByQuerier(q Querier, agentID string, projectID int64) (*models.Agent, error) {
	row := q.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE agent_id = ? AND project_id = ?`,
		agentID, projectID)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Entity: "agent",
			ID:     agentID,
			Hint:   "register the agent first with its role and skill level",
		}
	}
	return agent, err
}

// getAgentByRowIDTx loads an agent by its internal row id. Used when
// dereferencing a task's lock holder.
func getAgentByRowIDTx(tx *sql.Tx, id int64) (*models.Agent, error) {
	row := tx.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "agent", ID: fmt.Sprintf("row %d", id)}
	}
	return agent, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(s scanner) (*models.Agent, error) {
	var a models.Agent
	var role, level, conn, status string
	var currentTask sql.NullInt64
	var lastSeen, lastActivity, createdAt, updatedAt string

	err := s.Scan(&a.ID, &a.AgentID, &a.ProjectID, &role, &level, &conn, &status,
		&currentTask, &lastSeen, &lastActivity, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.Role = models.Role(role)
	a.Level = models.SkillLevel(level)
	a.Connection = models.ConnectionKind(conn)
	a.Status = models.AgentStatus(status)
	a.CurrentTaskID = nullInt64Ptr(currentTask)
	if a.LastSeenAt, err = decodeTime(lastSeen); err != nil {
		return nil, err
	}
	if a.LastActivityAt, err = decodeTime(lastActivity); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAgents returns all agents in a project ordered by identifier.
func ListAgents(db *sql.DB, projectID int64) ([]*models.Agent, error) {
	rows, err := db.Query(`SELECT `+agentColumns+` FROM agents WHERE project_id = ? ORDER BY agent_id ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		out = append(out, agent)
	}
	return out, rows.Err()
}

// TouchAgent bumps last_seen for an agent; called on every poll so that the
// reaper and the skill-fallback window see live agents.
func TouchAgent(db *sql.DB, agentID string, projectID int64) error {
	now := encodeTime(time.Now())
	_, err := db.Exec(`
		UPDATE agents SET last_seen_at = ?, updated_at = ? WHERE agent_id = ? AND project_id = ?
	`, now, now, agentID, projectID)
	if err != nil {
		return fmt.Errorf("failed to touch agent: %w", err)
	}
	return nil
}

// CountActiveAgents counts agents of the given role and exact level whose
// last_seen falls within the active window. projectID 0 means all projects
// (synthetic dispatch requests without a registered agent).
func CountActiveAgents(q Querier, projectID int64, role models.Role, level models.SkillLevel, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM agents WHERE role = ? AND skill_level = ? AND last_seen_at >= ?`
	args := []any{string(role), string(level), encodeTime(since)}
	if projectID != 0 {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}

	var n int
	if err := q.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active agents: %w", err)
	}
	return n, nil
}

// setAgentWorkingTx flips an agent to working on the given task.
func setAgentWorkingTx(tx *sql.Tx, agentRowID, taskID int64) error {
	now := encodeTime(time.Now())
	_, err := tx.Exec(`
		UPDATE agents SET status = 'working', current_task_id = ?, last_activity_at = ?, updated_at = ?
		WHERE id = ?
	`, taskID, now, now, agentRowID)
	if err != nil {
		return fmt.Errorf("failed to mark agent working: %w", err)
	}
	return nil
}

// SetAgentIdleByRowTx returns the agent with the given row id to idle. Used
// by the state machine when a transition out of under_work drops the lock.
func SetAgentIdleByRowTx(tx *sql.Tx, agentRowID int64) error {
	return setAgentIdleTx(tx, agentRowID)
}

// setAgentIdleTx returns an agent to idle and clears its current task.
func setAgentIdleTx(tx *sql.Tx, agentRowID int64) error {
	now := encodeTime(time.Now())
	_, err := tx.Exec(`
		UPDATE agents SET status = 'idle', current_task_id = NULL, last_activity_at = ?, updated_at = ?
		WHERE id = ?
	`, now, now, agentRowID)
	if err != nil {
		return fmt.Errorf("failed to mark agent idle: %w", err)
	}
	return nil
}
