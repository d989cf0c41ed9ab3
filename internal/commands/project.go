package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// NewProjectCmd creates the project command group.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
		Long:  "Create and query projects and their workspace directories",
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectGetCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectDeleteCmd())

	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project with its workspace directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return cmdErr(errors.New("--name is required"))
			}

			paths, err := app.EnsureProjectWorkspace(app.ProjectsRoot(), name)
			if err != nil {
				return cmdErr(err)
			}

			var project *models.Project
			if err := withDB(func(db *DB) error {
				p, err := store.CreateProject(db, name, paths.Shared, paths.Instructions, paths.Docs)
				if err != nil {
					return err
				}
				project = p
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(project)
		},
	}

	cmd.Flags().String("name", "", "Project name (required)")

	return cmd
}

func newProjectGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get project details",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			name, _ := cmd.Flags().GetString("name")
			if id == 0 && name == "" {
				return cmdErr(errors.New("--id or --name is required"))
			}

			var project *models.Project
			if err := withDB(func(db *DB) error {
				var err error
				if id != 0 {
					project, err = store.GetProject(db, id)
				} else {
					project, err = store.GetProjectByName(db, name)
				}
				return err
			}); err != nil {
				return err
			}

			return output.PrintSuccess(project)
		},
	}

	cmd.Flags().Int64("id", 0, "Project ID")
	cmd.Flags().String("name", "", "Project name")

	return cmd
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var projects []*models.Project
			if err := withDB(func(db *DB) error {
				p, err := store.ListProjects(db)
				if err != nil {
					return err
				}
				projects = p
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count    int               `json:"count"`
				Projects []*models.Project `json:"projects"`
			}
			return output.PrintSuccess(resp{Count: len(projects), Projects: projects})
		},
	}
}

func newProjectDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			force, _ := cmd.Flags().GetBool("force")
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.DeleteProject(db, id, force)
			}); err != nil {
				return err
			}

			type resp struct {
				ProjectID int64 `json:"project_id"`
				Deleted   bool  `json:"deleted"`
			}
			return output.PrintSuccess(resp{ProjectID: id, Deleted: true})
		},
	}

	cmd.Flags().Int64("id", 0, "Project ID to delete (required)")
	cmd.Flags().Bool("force", false, "Delete even when the project is not empty (cascades)")

	return cmd
}
