package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/actions"
	"github.com/dotcommander/hive/internal/output"
)

// NewChangesCmd creates the change feed command.
func NewChangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List everything that happened in a project since a timestamp",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			sinceRaw, _ := cmd.Flags().GetString("since")

			since := time.Now().Add(-time.Hour)
			if sinceRaw != "" {
				since, err = time.Parse(time.RFC3339, sinceRaw)
				if err != nil {
					return cmdErr(err)
				}
			}

			var feed actions.ChangeFeed
			if err := withDB(func(db *DB) error {
				feed = actions.PollChanges(db, since, pid)
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(feed)
		},
	}

	cmd.Flags().String("since", "", "RFC3339 cursor (default: one hour ago)")

	return cmd
}
