package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

// Epic -> Feature -> Task is the work hierarchy. The project owning a task is
// always resolved through this join path, never denormalized onto the task.

// CreateEpic inserts an epic under a project.
func CreateEpic(db *sql.DB, projectID int64, title, description string) (*models.Epic, error) {
	var epic *models.Epic
	err := Transact(db, func(tx *sql.Tx) error {
		if _, err := getProjectByQuerier(tx, projectID); err != nil {
			return err
		}
		now := encodeTime(time.Now())
		result, err := tx.Exec(`
			INSERT INTO epics (project_id, title, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, projectID, title, description, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert epic: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get epic id: %w", err)
		}
		epic, err = getEpicByQuerier(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return epic, nil
}

// GetEpic retrieves an epic by id.
func GetEpic(db *sql.DB, id int64) (*models.Epic, error) {
	return getEpicByQuerier(db, id)
}

func getEpicByQuerier(q Querier, id int64) (*models.Epic, error) {
	var e models.Epic
	var createdAt, updatedAt string
	err := q.QueryRow(`
		SELECT id, project_id, title, description, created_at, updated_at FROM epics WHERE id = ?
	`, id).Scan(&e.ID, &e.ProjectID, &e.Title, &e.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "epic", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query epic: %w", err)
	}
	if e.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateFeature inserts a feature under an epic.
func CreateFeature(db *sql.DB, epicID int64, title, description string) (*models.Feature, error) {
	var feature *models.Feature
	err := Transact(db, func(tx *sql.Tx) error {
		if _, err := getEpicByQuerier(tx, epicID); err != nil {
			return err
		}
		now := encodeTime(time.Now())
		result, err := tx.Exec(`
			INSERT INTO features (epic_id, title, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, epicID, title, description, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert feature: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get feature id: %w", err)
		}
		feature, err = getFeatureByQuerier(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return feature, nil
}

// GetFeature retrieves a feature by id.
func GetFeature(db *sql.DB, id int64) (*models.Feature, error) {
	return getFeatureByQuerier(db, id)
}

func getFeatureByQuerier(q Querier, id int64) (*models.Feature, error) {
	var f models.Feature
	var createdAt, updatedAt string
	err := q.QueryRow(`
		SELECT id, epic_id, title, description, created_at, updated_at FROM features WHERE id = ?
	`, id).Scan(&f.ID, &f.EpicID, &f.Title, &f.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "feature", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feature: %w", err)
	}
	if f.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// TaskProjectID resolves the project owning a task through the
// Task -> Feature -> Epic join.
func TaskProjectID(q Querier, taskID int64) (int64, error) {
	var projectID int64
	err := q.QueryRow(`
		SELECT e.project_id
		FROM tasks t
		JOIN features f ON f.id = t.feature_id
		JOIN epics e ON e.id = f.epic_id
		WHERE t.id = ?
	`, taskID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &NotFoundError{Entity: "task", ID: strconv.FormatInt(taskID, 10)}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve task project: %w", err)
	}
	return projectID, nil
}
