// Package metrics exposes prometheus counters for the coordinator's hot
// paths: dispatch, lock arbitration, lock reclamation and health probes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // promauto collectors are registered once at init
var (
	// TasksDispatched counts real tasks handed to polling agents, by role.
	TasksDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hive_tasks_dispatched_total",
		Help: "Tasks returned to polling agents, by target role.",
	}, []string{"role"})

	// WaitingTokens counts dispatch timeouts that returned a waiting token.
	WaitingTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hive_waiting_tokens_total",
		Help: "Dispatch calls that timed out and returned a waiting token.",
	}, []string{"role"})

	// LockConflicts counts failed lock acquisitions.
	LockConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hive_lock_conflicts_total",
		Help: "Lock acquisitions rejected due to contention or busy agents.",
	})

	// LocksReaped counts stale locks reclaimed by the reaper.
	LocksReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hive_locks_reaped_total",
		Help: "Task locks reclaimed from unseen agents.",
	})

	// ProbeResults counts health probe outcomes.
	ProbeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hive_probe_results_total",
		Help: "Service health probe outcomes.",
	}, []string{"result"})

	// StatusTransitions counts task state machine transitions.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hive_status_transitions_total",
		Help: "Task status transitions applied, by new status.",
	}, []string{"to"})
)
