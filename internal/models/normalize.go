package models

import (
	"fmt"
	"strings"
)

// Boundary normalization: enum input is case-insensitive, and the documented
// legacy aliases are accepted and canonicalized here so that the store and
// everything below it only ever sees canonical lowercase values.

// NormalizeRole canonicalizes a role string. Legacy "pm" maps to project_pm.
func NormalizeRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frontend_dev", "frontend-dev":
		return RoleFrontendDev, nil
	case "backend_dev", "backend-dev":
		return RoleBackendDev, nil
	case "qa":
		return RoleQA, nil
	case "architect":
		return RoleArchitect, nil
	case "project_pm", "project-pm", "pm":
		return RoleProjectPM, nil
	case "ui_admin", "ui-admin":
		return RoleUIAdmin, nil
	}
	return "", &InvalidEnumError{Enum: "role", Value: s}
}

// NormalizeSkillLevel canonicalizes a skill level string.
func NormalizeSkillLevel(s string) (SkillLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "junior":
		return LevelJunior, nil
	case "senior":
		return LevelSenior, nil
	case "principal":
		return LevelPrincipal, nil
	}
	return "", &InvalidEnumError{Enum: "skill_level", Value: s}
}

// NormalizeTaskStatus canonicalizes a task status string. Legacy values
// "evaluation" and "approved" map to qa_done and committed respectively.
func NormalizeTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created":
		return TaskStatusCreated, nil
	case "under_work", "under-work":
		return TaskStatusUnderWork, nil
	case "dev_done", "dev-done":
		return TaskStatusDevDone, nil
	case "qa_done", "qa-done", "evaluation":
		return TaskStatusQADone, nil
	case "documentation_done", "documentation-done":
		return TaskStatusDocsDone, nil
	case "committed", "approved":
		return TaskStatusCommitted, nil
	}
	return "", &InvalidEnumError{Enum: "task_status", Value: s}
}

// NormalizeTaskType canonicalizes a task type string. "waiting" is accepted
// on input for completeness but is never persisted.
func NormalizeTaskType(s string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regular", "":
		return TaskTypeRegular, nil
	case "management":
		return TaskTypeManagement, nil
	case "waiting":
		return TaskTypeWaiting, nil
	}
	return "", &InvalidEnumError{Enum: "task_type", Value: s}
}

// NormalizeComplexity canonicalizes a complexity string.
func NormalizeComplexity(s string) (Complexity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor", "":
		return ComplexityMinor, nil
	case "major":
		return ComplexityMajor, nil
	}
	return "", &InvalidEnumError{Enum: "complexity", Value: s}
}

// NormalizeConnectionKind canonicalizes a connection kind string.
func NormalizeConnectionKind(s string) (ConnectionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct", "":
		return ConnectionDirect, nil
	case "bridged", "bridge", "mcp":
		return ConnectionBridged, nil
	case "ui":
		return ConnectionUI, nil
	}
	return "", &InvalidEnumError{Enum: "connection_kind", Value: s}
}

// NormalizeDocumentType canonicalizes a document type string.
func NormalizeDocumentType(s string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standup":
		return DocStandup, nil
	case "critical_issue", "critical-issue":
		return DocCriticalIssue, nil
	case "service_status", "service-status":
		return DocServiceStatus, nil
	case "update":
		return DocUpdate, nil
	}
	return "", &InvalidEnumError{Enum: "doc_type", Value: s}
}

// InvalidEnumError reports a value outside the canonical set after
// normalization. Boundary validators return it before any store access.
type InvalidEnumError struct {
	Enum  string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Enum, e.Value)
}

// ErrorCode implements RecoverableError.
func (e *InvalidEnumError) ErrorCode() string { return "INVALID_ENUM" }

// Context implements RecoverableError.
func (e *InvalidEnumError) Context() map[string]string {
	return map[string]string{"enum": e.Enum, "value": e.Value}
}

// SuggestedAction implements RecoverableError.
func (e *InvalidEnumError) SuggestedAction() string {
	return fmt.Sprintf("use a canonical %s value", e.Enum)
}
