package parsers

import "strings"

// ResolveColumn returns the header matching the highest-priority candidate.
// Comparison is case-insensitive; when two headers differ only by case the
// first one in sheet order wins. ok is false when no candidate matches, which
// callers treat as an absent column rather than a failure.
func ResolveColumn(headers []string, candidates []string) (header string, ok bool) {
	lookup := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := lookup[key]; !seen {
			lookup[key] = h
		}
	}

	for _, candidate := range candidates {
		if h, found := lookup[strings.ToLower(strings.TrimSpace(candidate))]; found {
			return h, true
		}
	}
	return "", false
}
