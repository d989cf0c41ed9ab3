package actions

import (
	"database/sql"

	"github.com/dotcommander/hive/internal/mention"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// CreateDocument persists a document and derives its mention edges in the
// same transaction, so a document never exists without its notifications.
func CreateDocument(db *sql.DB, p store.CreateDocumentParams) (*models.Document, error) {
	mentioned := mention.Extract(p.Content)

	var doc *models.Document
	err := store.Transact(db, func(tx *sql.Tx) error {
		var err error
		doc, err = store.CreateDocumentTx(tx, p)
		if err != nil {
			return err
		}
		for _, id := range mentioned {
			if err := store.InsertDocumentMentionTx(tx, doc.ID, id, p.Author); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument replaces a document's title and content. Mentions are purged
// and re-derived from the new content; edges already marked read stay gone.
func UpdateDocument(db *sql.DB, id, title, content string) (*models.Document, error) {
	mentioned := mention.Extract(content)

	var doc *models.Document
	err := store.Transact(db, func(tx *sql.Tx) error {
		var err error
		doc, err = store.UpdateDocumentContentTx(tx, id, title, content)
		if err != nil {
			return err
		}
		if err := store.PurgeDocumentMentionsTx(tx, id); err != nil {
			return err
		}
		for _, agentID := range mentioned {
			if err := store.InsertDocumentMentionTx(tx, id, agentID, doc.Author); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
