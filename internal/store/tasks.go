package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

// taskSelect joins the lock holder's identifier so callers never have to
// follow the agent -> task -> agent cycle in a second query.
const taskSelect = `
	SELECT t.id, t.feature_id, t.title, t.description, t.created_by, t.target_role,
	       t.difficulty, t.complexity, t.task_type, t.branch, t.status,
	       t.locked_by, t.locked_at, a.agent_id, t.notes, t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN agents a ON a.id = t.locked_by
`

// CreateTaskParams are the inputs for task creation.
type CreateTaskParams struct {
	FeatureID   int64
	Title       string
	Description string
	CreatedBy   string
	TargetRole  models.Role
	Difficulty  models.Difficulty
	Complexity  models.Complexity
	TaskType    models.TaskType
	Branch      string
}

// CreateTask inserts a task in status created and records the initial
// created -> created changelog self-transition so the change feed covers
// creation events uniformly.
func CreateTask(db *sql.DB, p CreateTaskParams) (*models.Task, error) {
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		var err error
		task, err = CreateTaskTx(tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CreateTaskTx is the in-transaction variant of CreateTask.
func CreateTaskTx(tx *sql.Tx, p CreateTaskParams) (*models.Task, error) {
	if p.Title == "" {
		return nil, errors.New("task title is required")
	}
	if p.TaskType == models.TaskTypeWaiting {
		return nil, errors.New("waiting tasks are synthetic and cannot be persisted")
	}
	if p.TaskType == "" {
		p.TaskType = models.TaskTypeRegular
	}
	if p.Complexity == "" {
		p.Complexity = models.ComplexityMinor
	}
	if _, err := getFeatureByQuerier(tx, p.FeatureID); err != nil {
		return nil, err
	}

	now := encodeTime(time.Now())
	result, err := tx.Exec(`
		INSERT INTO tasks (feature_id, title, description, created_by, target_role, difficulty,
			complexity, task_type, branch, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'created', '', ?, ?)
	`, p.FeatureID, p.Title, p.Description, p.CreatedBy, string(p.TargetRole), string(p.Difficulty),
		string(p.Complexity), string(p.TaskType), p.Branch, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get task id: %w", err)
	}

	if _, err := AppendChangelogTx(tx, id, models.TaskStatusCreated, models.TaskStatusCreated, p.CreatedBy, "Task created"); err != nil {
		return nil, err
	}

	return getTaskByQuerier(tx, id)
}

// GetTask retrieves a task by id.
func GetTask(db *sql.DB, taskID int64) (*models.Task, error) {
	return getTaskByQuerier(db, taskID)
}

// GetTaskTx is the in-transaction variant of GetTask.
func GetTaskTx(tx *sql.Tx, taskID int64) (*models.Task, error) {
	return getTaskByQuerier(tx, taskID)
}

func getTaskByQuerier(q Querier, taskID int64) (*models.Task, error) {
	row := q.QueryRow(taskSelect+` WHERE t.id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "task", ID: strconv.FormatInt(taskID, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

func scanTask(s scanner) (*models.Task, error) {
	var t models.Task
	var targetRole, difficulty, complexity, taskType, status string
	var lockedBy sql.NullInt64
	var lockedAt, holderAgentID sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.FeatureID, &t.Title, &t.Description, &t.CreatedBy, &targetRole,
		&difficulty, &complexity, &taskType, &t.Branch, &status,
		&lockedBy, &lockedAt, &holderAgentID, &t.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.TargetRole = models.Role(targetRole)
	t.Difficulty = models.Difficulty(difficulty)
	t.Complexity = models.Complexity(complexity)
	t.TaskType = models.TaskType(taskType)
	t.Status = models.TaskStatus(status)
	t.LockedBy = nullInt64Ptr(lockedBy)
	t.LockedByAgentID = strOrEmpty(holderAgentID)
	if t.LockedAt, err = decodeNullTime(lockedAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// ClaimableTasksParams is the composite dispatch filter: unlocked tasks in
// the given statuses, optionally restricted to a role, difficulty set, and
// project (through the Feature -> Epic join). Management tasks never match.
type ClaimableTasksParams struct {
	ProjectID    int64
	Statuses     []models.TaskStatus
	TargetRole   models.Role
	Difficulties []models.Difficulty
	Limit        int
}

// ListClaimableTasks returns eligible tasks oldest-first by creation time.
func ListClaimableTasks(q Querier, p ClaimableTasksParams) ([]*models.Task, error) {
	if len(p.Statuses) == 0 {
		return nil, errors.New("at least one status is required")
	}
	if p.Limit <= 0 {
		p.Limit = 1
	}

	where := []string{
		"t.locked_by IS NULL",
		"t.task_type != 'management'",
	}
	args := make([]any, 0, 8)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(p.Statuses)), ",")
	where = append(where, "t.status IN ("+placeholders+")")
	for _, s := range p.Statuses {
		args = append(args, string(s))
	}

	if p.TargetRole != "" {
		where = append(where, "t.target_role = ?")
		args = append(args, string(p.TargetRole))
	}
	if len(p.Difficulties) > 0 {
		placeholders = strings.TrimSuffix(strings.Repeat("?,", len(p.Difficulties)), ",")
		where = append(where, "t.difficulty IN ("+placeholders+")")
		for _, d := range p.Difficulties {
			args = append(args, string(d))
		}
	}

	query := taskSelect
	if p.ProjectID != 0 {
		query += ` JOIN features f ON f.id = t.feature_id
	JOIN epics e ON e.id = f.epic_id`
		where = append(where, "e.project_id = ?")
		args = append(args, p.ProjectID)
	}

	query += " WHERE " + strings.Join(where, " AND ")
	query += " ORDER BY t.created_at ASC LIMIT ?"
	args = append(args, p.Limit)

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimable tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.Task, 0, p.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// HasOpenBacklog reports whether any unfinished task targets the role at all,
// regardless of lock state. Used to distinguish "wait" from "no such work".
func HasOpenBacklog(db *sql.DB, projectID int64, role models.Role) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks t
			JOIN features f ON f.id = t.feature_id
			JOIN epics e ON e.id = f.epic_id
			WHERE t.target_role = ? AND t.status != 'committed' AND t.task_type != 'management'
	`
	args := []any{string(role)}
	if projectID != 0 {
		query += ` AND e.project_id = ?`
		args = append(args, projectID)
	}
	query += `)`

	var exists bool
	if err := db.QueryRow(query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check backlog: %w", err)
	}
	return exists, nil
}

// AppendTaskNotesTx appends a timestamped comment line to the task's notes.
// This is the comment path; status transitions replace notes instead.
func AppendTaskNotesTx(tx *sql.Tx, taskID int64, author, text string) error {
	now := time.Now()
	line := fmt.Sprintf("[%s] %s: %s\n", now.UTC().Format(time.RFC3339), author, text)
	result, err := tx.Exec(`
		UPDATE tasks SET notes = notes || ?, updated_at = ? WHERE id = ?
	`, line, encodeTime(now), taskID)
	if err != nil {
		return fmt.Errorf("failed to append task notes: %w", err)
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

// DeleteTask force-deletes a task and its dependent rows. UI-admin only;
// the role check lives in the actions layer where the actor is known.
func DeleteTask(db *sql.DB, taskID int64) error {
	return Transact(db, func(tx *sql.Tx) error {
		task, err := getTaskByQuerier(tx, taskID)
		if err != nil {
			return err
		}
		if task.LockedBy != nil {
			if err := setAgentIdleTx(tx, *task.LockedBy); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
}

// CountTasks returns the number of persisted tasks, optionally scoped to a
// project. Round-trip accounting for tests and diagnostics.
func CountTasks(db *sql.DB, projectID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM tasks t`
	var args []any
	if projectID != 0 {
		query += ` JOIN features f ON f.id = t.feature_id JOIN epics e ON e.id = f.epic_id WHERE e.project_id = ?`
		args = append(args, projectID)
	}
	var n int64
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}
