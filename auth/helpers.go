package auth

import (
	"sort"
	"strings"
)

// normalizeScopes trims, dedupes and sorts scopes so equal scope sets share
// one cache key.
func normalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return []string{}
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		trimmed := strings.TrimSpace(scope)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}

func scopeKey(scopes []string) string {
	return strings.Join(normalizeScopes(scopes), " ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func cloneScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	return append([]string(nil), scopes...)
}
