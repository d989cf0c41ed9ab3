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

// CreateProject inserts a project with its workspace paths.
// Project names are unique; a duplicate returns DuplicateError.
func CreateProject(db *sql.DB, name, sharedPath, instructionsPath, docsPath string) (*models.Project, error) {
	var project *models.Project

	err := Transact(db, func(tx *sql.Tx) error {
		now := encodeTime(time.Now())
		result, err := tx.Exec(`
			INSERT INTO projects (name, shared_path, instructions_path, docs_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, name, sharedPath, instructionsPath, docsPath, now, now)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return &DuplicateError{Entity: "project", Key: name}
			}
			return fmt.Errorf("failed to insert project: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get project id: %w", err)
		}

		project, err = getProjectByQuerier(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject retrieves a project by id.
func GetProject(db *sql.DB, id int64) (*models.Project, error) {
	return getProjectByQuerier(db, id)
}

// GetProjectTx retrieves a project by id inside an existing transaction.
func GetProjectTx(tx *sql.Tx, id int64) (*models.Project, error) {
	return getProjectByQuerier(tx, id)
}

// GetProjectByName retrieves a project by its unique name.
func GetProjectByName(db *sql.DB, name string) (*models.Project, error) {
	row := db.QueryRow(`
		SELECT id, name, shared_path, instructions_path, docs_path, created_at, updated_at
		FROM projects WHERE name = ?
	`, name)
	return scanProjectRow(row, name)
}

func getProjectByQuerier(q Querier, id int64) (*models.Project, error) {
	row := q.QueryRow(`
		SELECT id, name, shared_path, instructions_path, docs_path, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return scanProjectRow(row, strconv.FormatInt(id, 10))
}

func scanProjectRow(row *sql.Row, ref string) (*models.Project, error) {
	var p models.Project
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.SharedPath, &p.InstructionsPath, &p.DocsPath, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "project", ID: ref}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all projects ordered by creation time.
func ListProjects(db *sql.DB) ([]*models.Project, error) {
	rows, err := db.Query(`
		SELECT id, name, shared_path, instructions_path, docs_path, created_at, updated_at
		FROM projects ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.Project, 0)
	for rows.Next() {
		var p models.Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.SharedPath, &p.InstructionsPath, &p.DocsPath, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if p.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = decodeTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// DeleteProject deletes a project. Without force, the project must be empty
// (no agents, epics, documents, or services). With force, database-level
// ON DELETE CASCADE removes the whole dependent tree; the cascade is not
// duplicated in application code.
func DeleteProject(db *sql.DB, id int64, force bool) error {
	return Transact(db, func(tx *sql.Tx) error {
		if _, err := getProjectByQuerier(tx, id); err != nil {
			return err
		}

		if !force {
			var n int
			err := tx.QueryRow(`
				SELECT (SELECT COUNT(*) FROM agents WHERE project_id = ?)
				     + (SELECT COUNT(*) FROM epics WHERE project_id = ?)
				     + (SELECT COUNT(*) FROM documents WHERE project_id = ?)
				     + (SELECT COUNT(*) FROM services WHERE project_id = ?)
			`, id, id, id, id).Scan(&n)
			if err != nil {
				return fmt.Errorf("failed to check project emptiness: %w", err)
			}
			if n > 0 {
				return &ForbiddenError{Reason: "project is not empty; use force to delete"}
			}
		}

		if _, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}
