package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/actions"
	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// NewAgentCmd creates the agent command group.
func NewAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Register and inspect agents",
	}

	cmd.AddCommand(newAgentRegisterCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentHeartbeatCmd())

	return cmd
}

func newAgentRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an agent (idempotent) and fetch pending mentions plus a first task",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}

			roleRaw, _ := cmd.Flags().GetString("role")
			levelRaw, _ := cmd.Flags().GetString("level")
			connRaw, _ := cmd.Flags().GetString("connection")

			role, err := models.NormalizeRole(roleRaw)
			if err != nil {
				return cmdErr(err)
			}
			level, err := models.NormalizeSkillLevel(levelRaw)
			if err != nil {
				return cmdErr(err)
			}
			conn, err := models.NormalizeConnectionKind(connRaw)
			if err != nil {
				return cmdErr(err)
			}

			var result *actions.RegisterResult
			if err := withDB(func(db *DB) error {
				r, err := actions.Register(cmd.Context(), db, store.RegisterAgentParams{
					AgentID:    name,
					ProjectID:  pid,
					Role:       role,
					Level:      level,
					Connection: conn,
				}, app.EffectiveTimings())
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(result)
		},
	}

	cmd.Flags().String("role", "", "Agent role (required)")
	cmd.Flags().String("level", "", "Skill level: junior|senior|principal (required)")
	cmd.Flags().String("connection", "direct", "Connection kind: direct|bridged|ui")

	return cmd
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}

			var agents []*models.Agent
			if err := withDB(func(db *DB) error {
				a, err := store.ListAgents(db, pid)
				if err != nil {
					return err
				}
				agents = a
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count  int             `json:"count"`
				Agents []*models.Agent `json:"agents"`
			}
			return output.PrintSuccess(resp{Count: len(agents), Agents: agents})
		},
	}
}

func newAgentHeartbeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Bump an agent's last-seen timestamp",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}

			if err := withDB(func(db *DB) error {
				return store.TouchAgent(db, name, pid)
			}); err != nil {
				return err
			}

			type resp struct {
				AgentID string `json:"agent_id"`
				Touched bool   `json:"touched"`
			}
			return output.PrintSuccess(resp{AgentID: name, Touched: true})
		},
	}
}
