package actions

import (
	"database/sql"

	"github.com/dotcommander/hive/internal/mention"
	"github.com/dotcommander/hive/internal/store"
)

// AddComment appends a timestamped comment to a task's notes and fans out
// mention edges for every @identifier in the text, all in one transaction.
// Returns the number of mentions derived.
func AddComment(db *sql.DB, taskID int64, text, actorID string) (int, error) {
	mentioned := mention.Extract(text)
	err := store.Transact(db, func(tx *sql.Tx) error {
		if err := store.AppendTaskNotesTx(tx, taskID, actorID, text); err != nil {
			return err
		}
		for _, id := range mentioned {
			if err := store.InsertTaskMentionTx(tx, taskID, id, actorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(mentioned), nil
}
