package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// NewServiceCmd creates the service command group.
func NewServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Register and monitor long-running services",
	}

	cmd.AddCommand(newServiceRegisterCmd())
	cmd.AddCommand(newServiceListCmd())
	cmd.AddCommand(newServiceHeartbeatCmd())
	cmd.AddCommand(newServiceUnregisterCmd())

	return cmd
}

func newServiceRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a service for health probing (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			serviceName, _ := cmd.Flags().GetString("name")
			pingURL, _ := cmd.Flags().GetString("ping-url")
			port, _ := cmd.Flags().GetInt("port")
			metadata, _ := cmd.Flags().GetString("metadata")

			var portPtr *int
			if port > 0 {
				portPtr = &port
			}

			var service *models.Service
			if err := withDB(func(db *DB) error {
				s, err := store.RegisterService(db, store.RegisterServiceParams{
					ProjectID:    pid,
					Name:         serviceName,
					OwnerAgentID: name,
					PingURL:      pingURL,
					Port:         portPtr,
					Metadata:     metadata,
				})
				if err != nil {
					return err
				}
				service = s
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(service)
		},
	}

	cmd.Flags().String("name", "", "Service name (required)")
	cmd.Flags().String("ping-url", "", "Health check URL (required)")
	cmd.Flags().Int("port", 0, "Service port")
	cmd.Flags().String("metadata", "", "Structured metadata (JSON)")

	return cmd
}

func newServiceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered services",
		RunE: func(cmd *cobra.Command, args []string) error {
			var services []*models.Service
			if err := withDB(func(db *DB) error {
				s, err := store.ListServices(db)
				if err != nil {
					return err
				}
				services = s
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count    int               `json:"count"`
				Services []*models.Service `json:"services"`
			}
			return output.PrintSuccess(resp{Count: len(services), Services: services})
		},
	}
}

func newServiceHeartbeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Bump a service's heartbeat timestamp",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			serviceName, _ := cmd.Flags().GetString("name")
			if serviceName == "" {
				return cmdErr(errors.New("--name is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.HeartbeatService(db, serviceName, pid)
			}); err != nil {
				return err
			}

			type resp struct {
				Service string `json:"service"`
				Touched bool   `json:"touched"`
			}
			return output.PrintSuccess(resp{Service: serviceName, Touched: true})
		},
	}

	cmd.Flags().String("name", "", "Service name (required)")

	return cmd
}

func newServiceUnregisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unregister",
		Short: "Remove a service from probing",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			serviceName, _ := cmd.Flags().GetString("name")
			if serviceName == "" {
				return cmdErr(errors.New("--name is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.UnregisterService(db, serviceName, pid)
			}); err != nil {
				return err
			}

			type resp struct {
				Service string `json:"service"`
				Removed bool   `json:"removed"`
			}
			return output.PrintSuccess(resp{Service: serviceName, Removed: true})
		},
	}

	cmd.Flags().String("name", "", "Service name (required)")

	return cmd
}
