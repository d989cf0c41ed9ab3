package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

// ListChanges returns every change in a project after the cursor, merged and
// sorted by timestamp ascending, together with the maximum observed
// timestamp. With no events, the cursor comes back unchanged.
//
// Sources: document creations, document content updates (updated_at moved
// past created_at), and changelog entries joined through
// Task -> Feature -> Epic for project scoping.
func ListChanges(db *sql.DB, since time.Time, projectID int64) ([]models.ChangeEvent, time.Time, error) {
	cursor := encodeTime(since)
	events := make([]models.ChangeEvent, 0)

	docEvents, err := listDocumentChanges(db, cursor, projectID)
	if err != nil {
		return nil, since, err
	}
	events = append(events, docEvents...)

	taskEvents, err := listTaskChanges(db, cursor, projectID)
	if err != nil {
		return nil, since, err
	}
	events = append(events, taskEvents...)

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	latest := since
	for _, e := range events {
		if e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
	}
	return events, latest, nil
}

func listDocumentChanges(db *sql.DB, cursor string, projectID int64) ([]models.ChangeEvent, error) {
	rows, err := db.Query(`
		SELECT id, title, author, created_at, updated_at
		FROM documents
		WHERE project_id = ? AND (created_at > ? OR (updated_at > ? AND updated_at != created_at))
	`, projectID, cursor, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to query document changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.ChangeEvent, 0)
	for rows.Next() {
		var id, title, author, createdAt, updatedAt string
		if err := rows.Scan(&id, &title, &author, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document change: %w", err)
		}

		if createdAt > cursor {
			ts, err := decodeTime(createdAt)
			if err != nil {
				return nil, err
			}
			out = append(out, models.ChangeEvent{
				Type:       models.ChangeDocumentCreated,
				Timestamp:  ts,
				DocumentID: id,
				Title:      title,
				Actor:      author,
			})
		}
		if updatedAt > cursor && updatedAt != createdAt {
			ts, err := decodeTime(updatedAt)
			if err != nil {
				return nil, err
			}
			out = append(out, models.ChangeEvent{
				Type:       models.ChangeDocumentUpdated,
				Timestamp:  ts,
				DocumentID: id,
				Title:      title,
				Actor:      author,
			})
		}
	}
	return out, rows.Err()
}

func listTaskChanges(db *sql.DB, cursor string, projectID int64) ([]models.ChangeEvent, error) {
	rows, err := db.Query(`
		SELECT c.task_id, t.title, c.old_status, c.new_status, c.changed_by, c.notes, c.changed_at
		FROM changelog c
		JOIN tasks t ON t.id = c.task_id
		JOIN features f ON f.id = t.feature_id
		JOIN epics e ON e.id = f.epic_id
		WHERE e.project_id = ? AND c.changed_at > ?
	`, projectID, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to query task changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.ChangeEvent, 0)
	for rows.Next() {
		var taskID int64
		var title, oldStatus, newStatus, changedBy, changedAt string
		var notes sql.NullString
		if err := rows.Scan(&taskID, &title, &oldStatus, &newStatus, &changedBy, &notes, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task change: %w", err)
		}
		ts, err := decodeTime(changedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ChangeEvent{
			Type:      models.ChangeTaskUpdated,
			Timestamp: ts,
			TaskID:    taskID,
			Title:     title,
			OldStatus: models.TaskStatus(oldStatus),
			NewStatus: models.TaskStatus(newStatus),
			Actor:     changedBy,
			Notes:     strOrEmpty(notes),
		})
	}
	return out, rows.Err()
}
