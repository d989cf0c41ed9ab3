package models

import (
	"encoding/json"
	"time"
)

// ID Strategy:
// - Projects, epics, features, tasks, agents, services, changelog and mention
//   rows use int64 (store-assigned, monotonic).
// - Documents use string IDs (uuid, collision-free creation by many agents).
// - Agents are addressed externally by their agent identifier string, unique
//   within a project; the int64 row id is internal to the store.

// Role is the working role of an agent and the target role of a task.
type Role string

// Canonical roles.
const (
	RoleFrontendDev Role = "frontend_dev"
	RoleBackendDev  Role = "backend_dev"
	RoleQA          Role = "qa"
	RoleArchitect   Role = "architect"
	RoleProjectPM   Role = "project_pm"
	RoleUIAdmin     Role = "ui_admin"
)

// SkillLevel is an agent's level and a task's difficulty rating.
type SkillLevel string

// Skill levels, ordered weakest to strongest.
const (
	LevelJunior    SkillLevel = "junior"
	LevelSenior    SkillLevel = "senior"
	LevelPrincipal SkillLevel = "principal"
)

// SkillLevels returns the canonical ordering used by the fallback rules.
func SkillLevels() []SkillLevel {
	return []SkillLevel{LevelJunior, LevelSenior, LevelPrincipal}
}

// Index returns the position of the level in the canonical ordering, or -1.
func (l SkillLevel) Index() int {
	for i, lvl := range SkillLevels() {
		if lvl == l {
			return i
		}
	}
	return -1
}

// ConnectionKind describes how an agent talks to the coordinator.
type ConnectionKind string

// Connection kinds.
const (
	ConnectionDirect  ConnectionKind = "direct"
	ConnectionBridged ConnectionKind = "bridged"
	ConnectionUI      ConnectionKind = "ui"
)

// AgentStatus is the lifecycle state of an agent.
type AgentStatus string

// Agent statuses.
const (
	AgentIdle    AgentStatus = "idle"
	AgentWorking AgentStatus = "working"
	AgentOffline AgentStatus = "offline"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

// Task status constants, in workflow order. COMMITTED is terminal.
const (
	TaskStatusCreated   TaskStatus = "created"
	TaskStatusUnderWork TaskStatus = "under_work"
	TaskStatusDevDone   TaskStatus = "dev_done"
	TaskStatusQADone    TaskStatus = "qa_done"
	TaskStatusDocsDone  TaskStatus = "documentation_done"
	TaskStatusCommitted TaskStatus = "committed"
)

// IsTerminal returns true if the task is in a completed state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCommitted
}

// Difficulty clarifies that task difficulty uses the skill level scale.
type Difficulty = SkillLevel

// Complexity is a coarse sizing of a task.
type Complexity string

// Complexity values.
const (
	ComplexityMinor Complexity = "minor"
	ComplexityMajor Complexity = "major"
)

// TaskType distinguishes auto-dispatched, explicitly assigned, and synthetic tasks.
type TaskType string

// Task types. TaskTypeWaiting is synthetic and never persisted.
const (
	TaskTypeRegular    TaskType = "regular"
	TaskTypeManagement TaskType = "management"
	TaskTypeWaiting    TaskType = "waiting"
)

// DocumentType classifies project documents.
type DocumentType string

// Document types.
const (
	DocStandup       DocumentType = "standup"
	DocCriticalIssue DocumentType = "critical_issue"
	DocServiceStatus DocumentType = "service_status"
	DocUpdate        DocumentType = "update"
)

// ServiceStatus is the health state of a registered service.
type ServiceStatus string

// Service statuses.
const (
	ServiceUp       ServiceStatus = "up"
	ServiceDown     ServiceStatus = "down"
	ServiceStarting ServiceStatus = "starting"
)

// Project is the scoping root owning agents, epics, documents and services.
type Project struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	SharedPath       string    `json:"shared_path"`
	InstructionsPath string    `json:"instructions_path"`
	DocsPath         string    `json:"docs_path"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Agent is a working participant registered within a project.
//
// Invariant: Status == working implies CurrentTaskID is non-nil and the
// referenced task is locked by this agent.
type Agent struct {
	ID             int64          `json:"id"`
	AgentID        string         `json:"agent_id"`
	ProjectID      int64          `json:"project_id"`
	Role           Role           `json:"role"`
	Level          SkillLevel     `json:"skill_level"`
	Connection     ConnectionKind `json:"connection_kind"`
	Status         AgentStatus    `json:"status"`
	CurrentTaskID  *int64         `json:"current_task_id,omitempty"`
	LastSeenAt     time.Time      `json:"last_seen_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Epic is the top level of the work hierarchy.
type Epic struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Feature groups tasks under an epic.
type Feature struct {
	ID          int64     `json:"id"`
	EpicID      int64     `json:"epic_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task is the unit of dispatchable work.
//
// Invariant: LockedBy is nil iff LockedAt is nil; status under_work requires
// a lock holder (except the synthetic waiting token, which is never stored).
type Task struct {
	ID          int64      `json:"id"`
	FeatureID   int64      `json:"feature_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	TargetRole  Role       `json:"target_role"`
	Difficulty  Difficulty `json:"difficulty"`
	Complexity  Complexity `json:"complexity"`
	TaskType    TaskType   `json:"task_type"`
	Branch      string     `json:"branch,omitempty"`
	Status      TaskStatus `json:"status"`
	LockedBy    *int64     `json:"locked_by,omitempty"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`
	// LockedByAgentID carries the holder's agent identifier when the row was
	// loaded through a join, and the caller's identifier on waiting tokens.
	LockedByAgentID string    `json:"locked_by_agent_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	// PollInterval is set only on waiting tokens (seconds).
	PollInterval int `json:"poll_interval,omitempty"`
}

// IsLocked returns true if the task has a lock holder.
func (t *Task) IsLocked() bool {
	return t.LockedBy != nil
}

// IsWaitingToken returns true for the synthetic no-work-available task.
// Clients must re-poll rather than act on these; the id sign is the contract.
func (t *Task) IsWaitingToken() bool {
	return t.ID < 0
}

// ChangelogEntry is an immutable record of a task status transition.
// Task creation is recorded as a created -> created self-transition so that
// the change feed covers creations uniformly.
type ChangelogEntry struct {
	ID        int64      `json:"id"`
	TaskID    int64      `json:"task_id"`
	OldStatus TaskStatus `json:"old_status"`
	NewStatus TaskStatus `json:"new_status"`
	ChangedBy string     `json:"changed_by"`
	Notes     string     `json:"notes,omitempty"`
	ChangedAt time.Time  `json:"changed_at"`
}

// Document is a project-scoped message authored by an agent.
type Document struct {
	ID        string          `json:"id"`
	ProjectID int64           `json:"project_id"`
	Type      DocumentType    `json:"doc_type"`
	Author    string          `json:"author"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Mention is a notification edge from a document or a task (exactly one)
// to a mentioned agent identifier.
type Mention struct {
	ID         int64     `json:"id"`
	DocumentID *string   `json:"document_id,omitempty"`
	TaskID     *int64    `json:"task_id,omitempty"`
	AgentID    string    `json:"mentioned_agent_id"`
	CreatedBy  string    `json:"created_by"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service is an externally runnable component owned by an agent, probed
// periodically over HTTP.
type Service struct {
	ID              int64           `json:"id"`
	ProjectID       int64           `json:"project_id"`
	Name            string          `json:"service_name"`
	OwnerAgentID    string          `json:"owner_agent_id"`
	PingURL         string          `json:"ping_url"`
	Port            *int            `json:"port,omitempty"`
	Status          ServiceStatus   `json:"status"`
	LastHeartbeatAt *time.Time      `json:"last_heartbeat_at,omitempty"`
	LastPingAt      *time.Time      `json:"last_ping_at,omitempty"`
	LastPingSuccess bool            `json:"last_ping_success"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ChangeEventType labels entries in the change feed.
type ChangeEventType string

// Change feed event types.
const (
	ChangeDocumentCreated ChangeEventType = "document_created"
	ChangeDocumentUpdated ChangeEventType = "document_updated"
	ChangeTaskUpdated     ChangeEventType = "task_updated"
)

// ChangeEvent is one entry in the timestamp-bounded change feed.
type ChangeEvent struct {
	Type       ChangeEventType `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	DocumentID string          `json:"document_id,omitempty"`
	TaskID     int64           `json:"task_id,omitempty"`
	Title      string          `json:"title,omitempty"`
	OldStatus  TaskStatus      `json:"old_status,omitempty"`
	NewStatus  TaskStatus      `json:"new_status,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}
