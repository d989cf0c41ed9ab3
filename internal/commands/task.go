package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/actions"
	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// NewTaskCmd creates the task command group.
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, dispatch and progress tasks",
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskGetCmd())
	cmd.AddCommand(newTaskNextCmd())
	cmd.AddCommand(newTaskLockCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskCommentCmd())
	cmd.AddCommand(newTaskAssignCmd())
	cmd.AddCommand(newTaskCompleteCmd())
	cmd.AddCommand(newTaskChangelogCmd())
	cmd.AddCommand(newTaskDeleteCmd())

	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task under a feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			featureID, _ := cmd.Flags().GetInt64("feature")
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			roleRaw, _ := cmd.Flags().GetString("role")
			difficultyRaw, _ := cmd.Flags().GetString("difficulty")
			complexityRaw, _ := cmd.Flags().GetString("complexity")
			typeRaw, _ := cmd.Flags().GetString("type")
			branch, _ := cmd.Flags().GetString("branch")

			if featureID == 0 {
				return cmdErr(errors.New("--feature is required"))
			}

			role, err := models.NormalizeRole(roleRaw)
			if err != nil {
				return cmdErr(err)
			}
			difficulty, err := models.NormalizeSkillLevel(difficultyRaw)
			if err != nil {
				return cmdErr(err)
			}
			complexity, err := models.NormalizeComplexity(complexityRaw)
			if err != nil {
				return cmdErr(err)
			}
			taskType, err := models.NormalizeTaskType(typeRaw)
			if err != nil {
				return cmdErr(err)
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := store.CreateTask(db, store.CreateTaskParams{
					FeatureID:   featureID,
					Title:       title,
					Description: description,
					CreatedBy:   name,
					TargetRole:  role,
					Difficulty:  difficulty,
					Complexity:  complexity,
					TaskType:    taskType,
					Branch:      branch,
				})
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().Int64("feature", 0, "Feature ID (required)")
	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().String("role", "", "Target role (required)")
	cmd.Flags().String("difficulty", "", "Difficulty: junior|senior|principal (required)")
	cmd.Flags().String("complexity", "minor", "Complexity: minor|major")
	cmd.Flags().String("type", "regular", "Task type: regular|management")
	cmd.Flags().String("branch", "", "Working branch name")

	return cmd
}

func newTaskGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get task details",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := store.GetTask(db, id)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")

	return cmd
}

func newTaskNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Long-poll for the next eligible task (returns a waiting token on timeout)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := projectID(cmd, false)
			if err != nil {
				return cmdErr(err)
			}
			name, _ := cmd.Flags().GetString("agent")
			roleRaw, _ := cmd.Flags().GetString("role")
			levelRaw, _ := cmd.Flags().GetString("level")
			timeoutSec, _ := cmd.Flags().GetInt("timeout")

			role, err := models.NormalizeRole(roleRaw)
			if err != nil {
				return cmdErr(err)
			}
			level, err := models.NormalizeSkillLevel(levelRaw)
			if err != nil {
				return cmdErr(err)
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.NextTask(cmd.Context(), db, actions.NextTaskParams{
					ProjectID: pid,
					AgentID:   name,
					Role:      role,
					Level:     level,
					Timeout:   time.Duration(timeoutSec) * time.Second,
				}, app.EffectiveTimings())
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().String("role", "", "Role to poll for (required)")
	cmd.Flags().String("level", "", "Skill level (required)")
	cmd.Flags().Int("timeout", 0, "Long-poll timeout in seconds (0 = single pass)")

	return cmd
}

func newTaskLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Acquire exclusive ownership of a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.Lock(db, id, name, pid)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")

	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a task's status and get the next move",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			status, _ := cmd.Flags().GetString("status")
			notes, _ := cmd.Flags().GetString("notes")
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}
			if status == "" {
				return cmdErr(errors.New("--status is required"))
			}

			var result *actions.UpdateStatusResult
			if err := withDB(func(db *DB) error {
				r, err := actions.UpdateStatus(cmd.Context(), db, actions.UpdateStatusParams{
					TaskID:    id,
					ActorID:   name,
					NewStatus: status,
					Notes:     notes,
				}, app.EffectiveTimings())
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task           *models.Task           `json:"task"`
				NextTask       *models.Task           `json:"next_task,omitempty"`
				WorkflowStatus actions.WorkflowStatus `json:"workflow_status"`
			}
			return output.PrintSuccess(resp{Task: result.Task, NextTask: result.NextTask, WorkflowStatus: result.Workflow})
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")
	cmd.Flags().String("status", "", "New status (required)")
	cmd.Flags().String("notes", "", "Notes replacing the task's notes")

	return cmd
}

func newTaskCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Append a comment to a task; @mentions are delivered on registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			text, _ := cmd.Flags().GetString("text")
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}
			if text == "" {
				return cmdErr(errors.New("--text is required"))
			}

			var mentions int
			if err := withDB(func(db *DB) error {
				n, err := actions.AddComment(db, id, text, name)
				if err != nil {
					return err
				}
				mentions = n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				TaskID   int64 `json:"task_id"`
				Mentions int   `json:"mentions"`
			}
			return output.PrintSuccess(resp{TaskID: id, Mentions: mentions})
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")
	cmd.Flags().String("text", "", "Comment text (required)")

	return cmd
}

func newTaskAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a task to an idle agent (PM only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			target, _ := cmd.Flags().GetString("to")
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}
			if target == "" {
				return cmdErr(errors.New("--to is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.Assign(db, id, target, name, pid)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")
	cmd.Flags().String("to", "", "Target agent identifier (required)")

	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Force a task to a target status, skipping normal progression (PM only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			status, _ := cmd.Flags().GetString("status")
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}
			if status == "" {
				status = string(models.TaskStatusCommitted)
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.ManualComplete(cmd.Context(), db, id, status, name, app.EffectiveTimings())
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(task)
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")
	cmd.Flags().String("status", "", "Target status (default committed)")

	return cmd
}

func newTaskChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Show a task's full transition history",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}

			var entries []*models.ChangelogEntry
			if err := withDB(func(db *DB) error {
				e, err := store.ListChangelog(db, id)
				if err != nil {
					return err
				}
				entries = e
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count   int                      `json:"count"`
				Entries []*models.ChangelogEntry `json:"entries"`
			}
			return output.PrintSuccess(resp{Count: len(entries), Entries: entries})
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")

	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Force-delete a task (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			if id == 0 {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				actor, err := store.GetAgent(db, name, pid)
				if err != nil {
					return err
				}
				if actor.Role != models.RoleUIAdmin {
					return &store.ForbiddenError{Reason: "only a ui admin may delete tasks"}
				}
				return store.DeleteTask(db, id)
			}); err != nil {
				return err
			}

			type resp struct {
				TaskID  int64 `json:"task_id"`
				Deleted bool  `json:"deleted"`
			}
			return output.PrintSuccess(resp{TaskID: id, Deleted: true})
		},
	}

	cmd.Flags().Int64("id", 0, "Task ID (required)")

	return cmd
}
