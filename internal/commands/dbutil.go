package commands

import (
	"database/sql"
	"errors"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// DB is an alias so command code doesn't need to import database/sql.
type DB = sql.DB

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the JSON error response is the output.
	return "error already printed"
}

func openDB() (*DB, func(), error) {
	dbPath, err := app.GetDBPath()
	if err != nil {
		return nil, nil, err
	}

	db, err := store.InitDBWithPath(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return db, func() { _ = db.Close() }, nil
}

func withDB(fn func(db *DB) error) error {
	db, closeDB, err := openDB()
	if err != nil {
		return cmdErr(err)
	}
	defer closeDB()

	if err := fn(db); err != nil {
		return cmdErr(err)
	}
	return nil
}

func cmdErr(err error) error {
	if err == nil {
		return nil
	}

	logger := log.WithComponent("cli")
	evt := logger.Error().Err(err)
	var recoverable models.RecoverableError
	if errors.As(err, &recoverable) {
		evt = evt.Str("error_code", recoverable.ErrorCode())
		for k, v := range recoverable.Context() {
			evt = evt.Str(k, v)
		}
	}
	evt.Msg("command error")

	_ = output.PrintError(err)
	return printedError{err: err}
}
