package store

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
)

func createTestDocument(t *testing.T, db *sql.DB, p CreateDocumentParams) *models.Document {
	t.Helper()

	var doc *models.Document
	err := Transact(db, func(tx *sql.Tx) error {
		var err error
		doc, err = CreateDocumentTx(tx, p)
		return err
	})
	require.NoError(t, err)
	return doc
}

func TestValidateDocumentPayload(t *testing.T) {
	longTitle := strings.Repeat("t", MaxDocumentTitleLength)
	longContent := strings.Repeat("c", MaxDocumentContentLength)

	assert.NoError(t, ValidateDocumentPayload(longTitle, longContent, `{"k":"v"}`))
	assert.Error(t, ValidateDocumentPayload("", "content", ""))
	assert.Error(t, ValidateDocumentPayload(longTitle+"t", "content", ""))
	assert.Error(t, ValidateDocumentPayload("title", longContent+"c", ""))
	assert.Error(t, ValidateDocumentPayload("title", "content", "{not json"))

	// Limits are rune counts, not bytes.
	assert.NoError(t, ValidateDocumentPayload(strings.Repeat("ü", MaxDocumentTitleLength), "", ""))
}

func TestCreateAndGetDocument(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	doc := createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID,
		Type:      models.DocStandup,
		Author:    "dev_1",
		Title:     "Morning standup",
		Content:   "All green",
		Metadata:  `{"sprint":12}`,
	})

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.DocStandup, doc.Type)

	loaded, err := GetDocument(db, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, loaded.ID)
	assert.Equal(t, "All green", loaded.Content)
	assert.JSONEq(t, `{"sprint":12}`, string(loaded.Metadata))
}

func TestUpdateDocumentContent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	doc := createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID,
		Type:      models.DocUpdate,
		Author:    "dev_1",
		Title:     "Status",
		Content:   "v1",
	})

	err := Transact(db, func(tx *sql.Tx) error {
		_, err := UpdateDocumentContentTx(tx, doc.ID, "Status", "v2")
		return err
	})
	require.NoError(t, err)

	updated, err := GetDocument(db, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)
	assert.False(t, updated.UpdatedAt.Before(doc.UpdatedAt))

	err = Transact(db, func(tx *sql.Tx) error {
		_, err := UpdateDocumentContentTx(tx, "missing-id", "x", "y")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDocumentsSkipsExpired(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID, Type: models.DocUpdate, Author: "dev_1",
		Title: "Expired", ExpiresAt: &past,
	})
	keep := createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID, Type: models.DocUpdate, Author: "dev_1",
		Title: "Current", ExpiresAt: &future,
	})
	forever := createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID, Type: models.DocUpdate, Author: "dev_1",
		Title: "Forever",
	})

	docs, err := ListDocuments(db, projectID, "", 50)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	ids := []string{docs[0].ID, docs[1].ID}
	assert.Contains(t, ids, keep.ID)
	assert.Contains(t, ids, forever.ID)
}
