package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
)

func TestDocumentMentionLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	doc := createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID, Type: models.DocCriticalIssue, Author: "qa_1",
		Title: "Login broken", Content: "@backend_dev_1 please look",
	})

	err := Transact(db, func(tx *sql.Tx) error {
		return InsertDocumentMentionTx(tx, doc.ID, "backend_dev_1", "qa_1")
	})
	require.NoError(t, err)

	mentions, err := ListUnreadMentions(db, "backend_dev_1")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	require.NotNil(t, mentions[0].DocumentID)
	assert.Equal(t, doc.ID, *mentions[0].DocumentID)
	assert.Nil(t, mentions[0].TaskID)
	assert.Equal(t, "qa_1", mentions[0].CreatedBy)
	assert.False(t, mentions[0].Read)

	require.NoError(t, MarkMentionsRead(db, []int64{mentions[0].ID}))

	mentions, err = ListUnreadMentions(db, "backend_dev_1")
	require.NoError(t, err)
	assert.Empty(t, mentions)
}

func TestTaskMentions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, featureID := createHierarchy(t, db, "webshop")
	task := createTestTask(t, db, featureID, "Build API", models.RoleBackendDev, models.LevelSenior)

	err := Transact(db, func(tx *sql.Tx) error {
		return InsertTaskMentionTx(tx, task.ID, "qa_1", "dev_1")
	})
	require.NoError(t, err)

	mentions, err := ListUnreadMentions(db, "qa_1")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	require.NotNil(t, mentions[0].TaskID)
	assert.Equal(t, task.ID, *mentions[0].TaskID)
	assert.Nil(t, mentions[0].DocumentID)
}

func TestMentionsAreCaseSensitive(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	doc := createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID, Type: models.DocUpdate, Author: "qa_1", Title: "Note",
	})

	err := Transact(db, func(tx *sql.Tx) error {
		return InsertDocumentMentionTx(tx, doc.ID, "Dev_1", "qa_1")
	})
	require.NoError(t, err)

	mentions, err := ListUnreadMentions(db, "dev_1")
	require.NoError(t, err)
	assert.Empty(t, mentions)

	mentions, err = ListUnreadMentions(db, "Dev_1")
	require.NoError(t, err)
	assert.Len(t, mentions, 1)
}

func TestPurgeDocumentMentions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")
	doc := createTestDocument(t, db, CreateDocumentParams{
		ProjectID: projectID, Type: models.DocUpdate, Author: "qa_1", Title: "Note",
	})

	err := Transact(db, func(tx *sql.Tx) error {
		if err := InsertDocumentMentionTx(tx, doc.ID, "dev_1", "qa_1"); err != nil {
			return err
		}
		return InsertDocumentMentionTx(tx, doc.ID, "dev_2", "qa_1")
	})
	require.NoError(t, err)

	n, err := CountMentions(db, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	err = Transact(db, func(tx *sql.Tx) error {
		return PurgeDocumentMentionsTx(tx, doc.ID)
	})
	require.NoError(t, err)

	n, err = CountMentions(db, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
