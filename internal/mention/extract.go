// Package mention derives agent notifications from free-text content.
// A mention is an at-sign followed by alphanumerics and underscores.
package mention

import (
	"regexp"
	"sort"
)

// mentionPattern matches @<identifier> on word boundaries. The identifier
// grammar doubles as the agent-id format: alphanumerics and underscores.
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// Extract returns the set of agent identifiers mentioned in text, sorted for
// deterministic fan-out order. Case is preserved; matching downstream is
// case-sensitive. No check is made that the identifiers belong to registered
// agents — mentions are best-effort.
func Extract(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
