package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	log.Init(log.Config{
		Level:      log.Level(os.Getenv("HIVE_LOG_LEVEL")),
		JSONOutput: os.Getenv("HIVE_LOG_FORMAT") != "console",
	})

	root := &cobra.Command{
		Use:           "hive",
		Short:         "Multi-agent task coordination (dispatch, locks, documents, services)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			// Wire --db-path into app-level resolver.
			if dbPath, err := cmd.Flags().GetString("db-path"); err == nil && dbPath != "" {
				app.SetDBPathOverride(dbPath)
			}

			return nil
		},
	}

	root.PersistentFlags().String("db-path", "", "Override database path")
	root.PersistentFlags().Int64P("project", "p", 0, "Project ID")
	root.PersistentFlags().StringP("agent", "a", "", "Agent identifier (default: $HIVE_AGENT)")
	root.Flags().BoolP("version", "v", false, "version for hive")

	root.AddCommand(NewProjectCmd())
	root.AddCommand(NewEpicCmd())
	root.AddCommand(NewFeatureCmd())
	root.AddCommand(NewAgentCmd())
	root.AddCommand(NewTaskCmd())
	root.AddCommand(NewDocumentCmd())
	root.AddCommand(NewServiceCmd())
	root.AddCommand(NewChangesCmd())
	root.AddCommand(NewServeCmd(version))
	root.AddCommand(NewDBCmd())

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			logger := log.WithComponent("cli")
			logger.Error().Err(err).Msg("command failed")
		}
	}
	return err
}

// agentName resolves the acting agent identifier from the flag or environment.
func agentName(cmd *cobra.Command) (string, error) {
	name, _ := cmd.Flags().GetString("agent")
	if name == "" {
		name = os.Getenv("HIVE_AGENT")
	}
	if name == "" {
		return "", errors.New("--agent is required (or set $HIVE_AGENT)")
	}
	return name, nil
}

// projectID resolves the project scope from the flag or environment.
func projectID(cmd *cobra.Command, required bool) (int64, error) {
	id, _ := cmd.Flags().GetInt64("project")
	if id == 0 && required {
		return 0, errors.New("--project is required")
	}
	return id, nil
}
