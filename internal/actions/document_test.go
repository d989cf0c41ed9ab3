package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

func TestCreateDocumentDerivesMentions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	doc, err := CreateDocument(db, store.CreateDocumentParams{
		ProjectID: projectID,
		Type:      models.DocStandup,
		Author:    "pm_1",
		Title:     "Daily standup",
		Content:   "Checkout is red, @qa_1 please verify, @dev_1 owns the fix",
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)

	count, err := store.CountMentions(db, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mentions, err := store.ListUnreadMentions(db, "qa_1")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	require.NotNil(t, mentions[0].DocumentID)
	assert.Equal(t, doc.ID, *mentions[0].DocumentID)
	assert.Equal(t, "pm_1", mentions[0].CreatedBy)
}

func TestUpdateDocumentRederivesMentions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	projectID, _ := createHierarchy(t, db, "webshop")

	doc, err := CreateDocument(db, store.CreateDocumentParams{
		ProjectID: projectID,
		Type:      models.DocUpdate,
		Author:    "pm_1",
		Title:     "Plan",
		Content:   "First draft for @dev_1",
	})
	require.NoError(t, err)

	updated, err := UpdateDocument(db, doc.ID, "Plan v2", "Rewritten, now for @qa_1 only")
	require.NoError(t, err)
	assert.Equal(t, "Plan v2", updated.Title)
	assert.Equal(t, "pm_1", updated.Author)

	// Old edges are purged, new ones derived from the fresh content.
	mentions, err := store.ListUnreadMentions(db, "dev_1")
	require.NoError(t, err)
	assert.Empty(t, mentions)

	mentions, err = store.ListUnreadMentions(db, "qa_1")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "pm_1", mentions[0].CreatedBy)
}

func TestUpdateDocumentUnknownID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := UpdateDocument(db, "no-such-id", "Title", "Content")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
