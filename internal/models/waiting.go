package models

import (
	"fmt"
	"time"
)

// Waiting token contract (bit-exact for client compatibility): id < 0,
// task_type waiting, status under_work, locked by the caller, poll_interval
// in seconds. The token is constructed on demand and never persisted.

// WaitingTokenID is the reserved sentinel id for waiting tokens.
const WaitingTokenID int64 = -1

// DefaultPollInterval is the re-poll hint carried on waiting tokens.
const DefaultPollInterval = 300

// NewWaitingToken builds the synthetic task returned when no work is
// available for the given role after the dispatch timeout.
func NewWaitingToken(role Role, callerAgentID string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:              WaitingTokenID,
		Title:           fmt.Sprintf("Monitoring for new %s tasks", role),
		TargetRole:      role,
		TaskType:        TaskTypeWaiting,
		Status:          TaskStatusUnderWork,
		LockedByAgentID: callerAgentID,
		CreatedAt:       now,
		UpdatedAt:       now,
		PollInterval:    DefaultPollInterval,
	}
}
