package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

// Mentions are best-effort notifications: the extractor does not verify that
// a mentioned identifier belongs to a registered agent, so rows may point at
// identifiers nobody will ever poll for. That is acceptable by contract.

// InsertDocumentMentionTx records a mention edge from a document.
// Agent identifiers are compared case-sensitively.
func InsertDocumentMentionTx(tx *sql.Tx, documentID, mentionedAgentID, createdBy string) error {
	return insertMentionTx(tx, nullStr(documentID), nil, mentionedAgentID, createdBy)
}

// InsertTaskMentionTx records a mention edge from a task.
func InsertTaskMentionTx(tx *sql.Tx, taskID int64, mentionedAgentID, createdBy string) error {
	return insertMentionTx(tx, nil, taskID, mentionedAgentID, createdBy)
}

func insertMentionTx(tx *sql.Tx, documentID any, taskID any, mentionedAgentID, createdBy string) error {
	if mentionedAgentID == "" {
		return errors.New("mentioned agent id is required")
	}
	_, err := tx.Exec(`
		INSERT INTO mentions (document_id, task_id, mentioned_agent_id, created_by, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, documentID, taskID, mentionedAgentID, createdBy, encodeTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to insert mention: %w", err)
	}
	return nil
}

// PurgeDocumentMentionsTx removes all mention edges of a document. Called
// before re-deriving mentions on a content update.
func PurgeDocumentMentionsTx(tx *sql.Tx, documentID string) error {
	if _, err := tx.Exec(`DELETE FROM mentions WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to purge document mentions: %w", err)
	}
	return nil
}

// ListUnreadMentions returns unread mentions for an agent, oldest first.
func ListUnreadMentions(db *sql.DB, agentID string) ([]*models.Mention, error) {
	rows, err := db.Query(`
		SELECT id, document_id, task_id, mentioned_agent_id, created_by, is_read, created_at
		FROM mentions WHERE mentioned_agent_id = ? AND is_read = 0
		ORDER BY created_at ASC
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread mentions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.Mention, 0)
	for rows.Next() {
		var m models.Mention
		var documentID sql.NullString
		var taskID sql.NullInt64
		var isRead int
		var createdAt string
		if err := rows.Scan(&m.ID, &documentID, &taskID, &m.AgentID, &m.CreatedBy, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan mention: %w", err)
		}
		if documentID.Valid {
			v := documentID.String
			m.DocumentID = &v
		}
		m.TaskID = nullInt64Ptr(taskID)
		m.Read = isRead != 0
		if m.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// MarkMentionsRead flips the read flag on the given mention rows.
func MarkMentionsRead(db *sql.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := db.Exec(`UPDATE mentions SET is_read = 1 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark mentions read: %w", err)
	}
	return nil
}

// CountMentions returns the number of mention rows for a source document.
func CountMentions(db *sql.DB, documentID string) (int64, error) {
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM mentions WHERE document_id = ?`, documentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count mentions: %w", err)
	}
	return n, nil
}
