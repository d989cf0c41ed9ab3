package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/hive/internal/models"
)

// Document payload size constraints enforced by ValidateDocumentPayload.
const (
	MaxDocumentTitleLength   = 200
	MaxDocumentContentLength = 50000
)

// ValidateDocumentPayload enforces document constraints before any write.
func ValidateDocumentPayload(title, content, metadata string) error {
	if title == "" {
		return errors.New("document title is required")
	}
	if len([]rune(title)) > MaxDocumentTitleLength {
		return fmt.Errorf("document title exceeds max length (%d)", MaxDocumentTitleLength)
	}
	if len([]rune(content)) > MaxDocumentContentLength {
		return fmt.Errorf("document content exceeds max length (%d)", MaxDocumentContentLength)
	}
	if metadata != "" && !json.Valid([]byte(metadata)) {
		return errors.New("document metadata must be valid JSON")
	}
	return nil
}

// CreateDocumentParams are the inputs for document creation.
type CreateDocumentParams struct {
	ProjectID int64
	Type      models.DocumentType
	Author    string
	Title     string
	Content   string
	Metadata  string
	ExpiresAt *time.Time
}

// CreateDocumentTx inserts a document with a generated uuid. Mention
// derivation is the caller's job so that it shares this transaction.
func CreateDocumentTx(tx *sql.Tx, p CreateDocumentParams) (*models.Document, error) {
	if err := ValidateDocumentPayload(p.Title, p.Content, p.Metadata); err != nil {
		return nil, err
	}
	if _, err := getProjectByQuerier(tx, p.ProjectID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := encodeTime(time.Now())
	_, err := tx.Exec(`
		INSERT INTO documents (id, project_id, doc_type, author, title, content, metadata, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, p.ProjectID, string(p.Type), p.Author, p.Title, p.Content, nullStr(p.Metadata),
		encodeNullTime(p.ExpiresAt), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return getDocumentByQuerier(tx, id)
}

// UpdateDocumentContentTx replaces a document's title and content and bumps
// updated_at. The caller purges and re-derives mentions in the same
// transaction.
func UpdateDocumentContentTx(tx *sql.Tx, id, title, content string) (*models.Document, error) {
	if err := ValidateDocumentPayload(title, content, ""); err != nil {
		return nil, err
	}
	result, err := tx.Exec(`
		UPDATE documents SET title = ?, content = ?, updated_at = ? WHERE id = ?
	`, title, content, encodeTime(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if ra == 0 {
		return nil, &NotFoundError{Entity: "document", ID: id}
	}
	return getDocumentByQuerier(tx, id)
}

// GetDocument retrieves a document by id.
func GetDocument(db *sql.DB, id string) (*models.Document, error) {
	return getDocumentByQuerier(db, id)
}

func getDocumentByQuerier(q Querier, id string) (*models.Document, error) {
	row := q.QueryRow(`
		SELECT id, project_id, doc_type, author, title, content, metadata, expires_at, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "document", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

func scanDocument(s scanner) (*models.Document, error) {
	var d models.Document
	var docType string
	var metadata, expiresAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.ProjectID, &docType, &d.Author, &d.Title, &d.Content,
		&metadata, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	d.Type = models.DocumentType(docType)
	if metadata.Valid {
		d.Metadata = json.RawMessage(metadata.String)
	}
	if d.ExpiresAt, err = decodeNullTime(expiresAt); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDocuments returns a project's documents newest-first, skipping rows
// whose expiry has passed.
func ListDocuments(db *sql.DB, projectID int64, docType models.DocumentType, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, project_id, doc_type, author, title, content, metadata, expires_at, created_at, updated_at
		FROM documents
		WHERE project_id = ? AND (expires_at IS NULL OR expires_at > ?)
	`
	args := []any{projectID, encodeTime(time.Now())}
	if docType != "" {
		query += ` AND doc_type = ?`
		args = append(args, string(docType))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document; its mentions cascade.
func DeleteDocument(db *sql.DB, id string) error {
	return Transact(db, func(tx *sql.Tx) error {
		result, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		ra, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if ra == 0 {
			return &NotFoundError{Entity: "document", ID: id}
		}
		return nil
	})
}

// CountDocuments returns the number of documents in a project.
func CountDocuments(db *sql.DB, projectID int64) (int64, error) {
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM documents WHERE project_id = ?`, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}
