package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/hive/internal/app"
	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/probe"
)

// NewServeCmd creates the long-running coordinator process: the service
// health probe loop plus a prometheus metrics endpoint. Stops cleanly on
// SIGINT/SIGTERM.
func NewServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background probe loop and metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

			db, closeDB, err := openDB()
			if err != nil {
				return cmdErr(err)
			}
			defer closeDB()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := log.WithComponent("serve")
			logger.Info().Str("version", version).Str("metrics_addr", metricsAddr).Msg("starting")

			timings := app.EffectiveTimings()
			loop := probe.New(db, timings.ProbeInterval, timings.ProbeTimeout)

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok\n"))
			})
			server := &http.Server{
				Addr:              metricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			err = g.Wait()
			logger.Info().Msg("stopped")
			if err != nil && !errors.Is(err, context.Canceled) {
				return cmdErr(err)
			}
			return nil
		},
	}

	cmd.Flags().String("metrics-addr", ":9090", "Listen address for /metrics and /healthz")

	return cmd
}
