package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// NewEpicCmd creates the epic command group.
func NewEpicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epic",
		Short: "Manage epics",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an epic under a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			var epic *models.Epic
			if err := withDB(func(db *DB) error {
				e, err := store.CreateEpic(db, pid, title, description)
				if err != nil {
					return err
				}
				epic = e
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(epic)
		},
	}
	create.Flags().String("title", "", "Epic title (required)")
	create.Flags().String("description", "", "Epic description")

	cmd.AddCommand(create)
	return cmd
}

// NewFeatureCmd creates the feature command group.
func NewFeatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Manage features",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a feature under an epic",
		RunE: func(cmd *cobra.Command, args []string) error {
			epicID, _ := cmd.Flags().GetInt64("epic")
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			if epicID == 0 {
				return cmdErr(errors.New("--epic is required"))
			}
			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			var feature *models.Feature
			if err := withDB(func(db *DB) error {
				f, err := store.CreateFeature(db, epicID, title, description)
				if err != nil {
					return err
				}
				feature = f
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(feature)
		},
	}
	create.Flags().Int64("epic", 0, "Epic ID (required)")
	create.Flags().String("title", "", "Feature title (required)")
	create.Flags().String("description", "", "Feature description")

	cmd.AddCommand(create)
	return cmd
}
