package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// NewDBCmd creates the database maintenance command group.
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBStatusCmd())

	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *DB) error {
				// InitDBWithPath already migrates; reaching here means success.
				current, latest, err := store.SchemaVersion(db)
				if err != nil {
					return err
				}
				type resp struct {
					Current int64 `json:"current"`
					Latest  int64 `json:"latest"`
				}
				return output.PrintSuccess(resp{Current: current, Latest: latest})
			})
		},
	}
}

func newDBStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database path and schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := app.GetDBPath()
			if err != nil {
				return cmdErr(err)
			}

			return withDB(func(db *DB) error {
				current, latest, err := store.SchemaVersion(db)
				if err != nil {
					return err
				}
				type resp struct {
					Path    string `json:"path"`
					Current int64  `json:"current"`
					Latest  int64  `json:"latest"`
				}
				return output.PrintSuccess(resp{Path: dbPath, Current: current, Latest: latest})
			})
		},
	}
}
