package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Project workspaces live at <root>/<sanitized-name>/{docs,shared,instructions}.

// maxProjectNameLength bounds sanitized project directory names.
const maxProjectNameLength = 50

// workspaceSubdirs are created for every project.
var workspaceSubdirs = []string{"docs", "shared", "instructions"}

// ErrEmptyProjectName is returned when sanitization strips a name to nothing.
var ErrEmptyProjectName = errors.New("project name is empty after sanitization")

// SanitizeProjectName maps an arbitrary name onto a safe directory name:
// lowercase alphanumerics, hyphen and underscore only, max 50 chars, must not
// begin with '.' or '-'. All other characters are stripped.
func SanitizeProjectName(name string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	s := b.String()
	s = strings.TrimLeft(s, ".-")
	if len(s) > maxProjectNameLength {
		s = s[:maxProjectNameLength]
	}
	if s == "" {
		return "", ErrEmptyProjectName
	}
	return s, nil
}

// WorkspacePaths holds the created directories of a project workspace.
type WorkspacePaths struct {
	Docs         string
	Shared       string
	Instructions string
}

// EnsureProjectWorkspace creates the workspace tree for a project under root
// and returns the three paths.
func EnsureProjectWorkspace(root, name string) (WorkspacePaths, error) {
	sanitized, err := SanitizeProjectName(name)
	if err != nil {
		return WorkspacePaths{}, err
	}

	base := filepath.Join(root, sanitized)
	for _, sub := range workspaceSubdirs {
		if err := os.MkdirAll(filepath.Join(base, sub), 0750); err != nil {
			return WorkspacePaths{}, fmt.Errorf("failed to create workspace dir: %w", err)
		}
	}
	return WorkspacePaths{
		Docs:         filepath.Join(base, "docs"),
		Shared:       filepath.Join(base, "shared"),
		Instructions: filepath.Join(base, "instructions"),
	}, nil
}

// SafeJoin joins rel under base, rejecting path traversal: '..' segments,
// leading separators, backslashes and control characters all fail, and the
// resolved absolute path must stay under base.
func SafeJoin(base, rel string) (string, error) {
	if rel == "" {
		return "", errors.New("path is empty")
	}
	if strings.Contains(rel, "..") {
		return "", fmt.Errorf("path %q contains traversal", rel)
	}
	if strings.HasPrefix(rel, "/") || strings.ContainsRune(rel, '\\') {
		return "", fmt.Errorf("path %q is not relative", rel)
	}
	for _, r := range rel {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("path %q contains control characters", rel)
		}
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base: %w", err)
	}
	joined, err := filepath.Abs(filepath.Join(absBase, rel))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if joined != absBase && !strings.HasPrefix(joined, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes base directory", rel)
	}
	return joined, nil
}
