package store

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dotcommander/hive/internal/models"
)

// RecoverableError is an alias for models.RecoverableError, retained so that
// callers can reference store.RecoverableError directly.
type RecoverableError = models.RecoverableError

// Sentinel errors. The structured error types below bridge to these via Is,
// so callers can branch with errors.Is without losing context.
var (
	// ErrLockContention is returned when a lock acquisition fails because
	// another agent already holds the task.
	ErrLockContention = errors.New("task already locked by another agent")

	// ErrAgentBusy is returned when an agent attempts to lock a second task.
	ErrAgentBusy = errors.New("agent already has a locked task")

	// ErrForbidden is returned on cross-project access or missing privilege.
	ErrForbidden = errors.New("operation not permitted")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a uniqueness constraint would be violated.
	ErrDuplicate = errors.New("entity already exists")
)

// NotFoundError reports a missing entity with enough context to self-correct.
type NotFoundError struct {
	Entity string
	ID     string
	Hint   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ErrorCode implements RecoverableError.
func (e *NotFoundError) ErrorCode() string { return "NOT_FOUND" }

// Context implements RecoverableError.
func (e *NotFoundError) Context() map[string]string {
	return map[string]string{"entity": e.Entity, "id": e.ID}
}

// SuggestedAction implements RecoverableError.
func (e *NotFoundError) SuggestedAction() string {
	if e.Hint != "" {
		return e.Hint
	}
	return fmt.Sprintf("verify the %s id", e.Entity)
}

// Is bridges to ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// LockContentionError reports a failed lock acquisition with both parties.
type LockContentionError struct {
	TaskID       int64
	CurrentOwner string
	RequestedBy  string
}

func (e *LockContentionError) Error() string { return "task already locked by another agent" }

// ErrorCode implements RecoverableError.
func (e *LockContentionError) ErrorCode() string { return "LOCK_CONTENTION" }

// Context implements RecoverableError.
func (e *LockContentionError) Context() map[string]string {
	return map[string]string{
		"task_id":       strconv.FormatInt(e.TaskID, 10),
		"current_owner": e.CurrentOwner,
		"requested_by":  e.RequestedBy,
	}
}

// SuggestedAction implements RecoverableError.
func (e *LockContentionError) SuggestedAction() string {
	return "poll for the next eligible task instead"
}

// Is bridges to ErrLockContention.
func (e *LockContentionError) Is(target error) bool { return target == ErrLockContention }

// AgentBusyError reports a violated at-most-one-active-task invariant.
type AgentBusyError struct {
	AgentID    string
	HeldTaskID int64
	WantedTask int64
}

func (e *AgentBusyError) Error() string { return "agent already has a locked task" }

// ErrorCode implements RecoverableError.
func (e *AgentBusyError) ErrorCode() string { return "AGENT_BUSY" }

// Context implements RecoverableError.
func (e *AgentBusyError) Context() map[string]string {
	return map[string]string{
		"agent_id":     e.AgentID,
		"held_task_id": strconv.FormatInt(e.HeldTaskID, 10),
		"wanted_task":  strconv.FormatInt(e.WantedTask, 10),
	}
}

// SuggestedAction implements RecoverableError.
func (e *AgentBusyError) SuggestedAction() string {
	return fmt.Sprintf("finish or release task %d first", e.HeldTaskID)
}

// Is bridges to ErrAgentBusy.
func (e *AgentBusyError) Is(target error) bool { return target == ErrAgentBusy }

// ForbiddenError reports a scoping or privilege failure.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("operation not permitted: %s", e.Reason)
}

// ErrorCode implements RecoverableError.
func (e *ForbiddenError) ErrorCode() string { return "FORBIDDEN" }

// Context implements RecoverableError.
func (e *ForbiddenError) Context() map[string]string {
	return map[string]string{"reason": e.Reason}
}

// SuggestedAction implements RecoverableError.
func (e *ForbiddenError) SuggestedAction() string {
	return "check project scope and the acting agent's role"
}

// Is bridges to ErrForbidden.
func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// DuplicateError reports a uniqueness conflict (project name, service name).
type DuplicateError struct {
	Entity string
	Key    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.Key)
}

// ErrorCode implements RecoverableError.
func (e *DuplicateError) ErrorCode() string { return "DUPLICATE" }

// Context implements RecoverableError.
func (e *DuplicateError) Context() map[string]string {
	return map[string]string{"entity": e.Entity, "key": e.Key}
}

// SuggestedAction implements RecoverableError.
func (e *DuplicateError) SuggestedAction() string {
	return fmt.Sprintf("pick a different %s name", e.Entity)
}

// Is bridges to ErrDuplicate.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
