// Package probe runs the background health sweep over registered services:
// a periodic concurrent HTTP GET against every ping URL, with results
// committed in one batch per sweep.
package probe

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/hive/internal/log"
	"github.com/dotcommander/hive/internal/metrics"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/store"
)

// Loop periodically probes every registered service.
type Loop struct {
	db       *sql.DB
	client   *http.Client
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// New builds a probe loop. interval is the sweep period, timeout the per-probe
// request deadline.
func New(db *sql.DB, interval, timeout time.Duration) *Loop {
	return &Loop{
		db:       db,
		client:   &http.Client{Timeout: timeout},
		interval: interval,
		timeout:  timeout,
		logger:   log.WithComponent("probe"),
	}
}

// Run sweeps until ctx is cancelled. Each sweep probes all services
// concurrently, joins, then commits the batch. A stuck endpoint cannot block
// the next sweep; its probe is cancelled at the timeout.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.Sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep probes every registered service once and applies the results.
func (l *Loop) Sweep(ctx context.Context) {
	services, err := store.ListServices(l.db)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to list services")
		return
	}
	if len(services) == 0 {
		return
	}

	var mu sync.Mutex
	results := make([]store.ProbeResult, 0, len(services))

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error {
			ok := l.probeOne(gctx, svc.PingURL)
			mu.Lock()
			results = append(results, store.ProbeResult{ServiceID: svc.ID, Success: ok, At: time.Now()})
			mu.Unlock()

			if ok {
				metrics.ProbeResults.WithLabelValues("up").Inc()
			} else {
				metrics.ProbeResults.WithLabelValues("down").Inc()
			}

			// Log transitions only; steady state is silent.
			wasUp := svc.Status == models.ServiceUp
			if ok != wasUp && svc.Status != models.ServiceStarting {
				evt := l.logger.Warn()
				if ok {
					evt = l.logger.Info()
				}
				evt.Str("service", svc.Name).
					Int64("project_id", svc.ProjectID).
					Bool("up", ok).
					Msg("service status changed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := store.ApplyProbeResults(l.db, results); err != nil {
		l.logger.Error().Err(err).Msg("failed to apply probe results")
	}
}

func (l *Loop) probeOne(ctx context.Context, url string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
