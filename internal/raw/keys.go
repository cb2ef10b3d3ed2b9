// Package raw holds the raw configuration layers of a project before any
// inference takes place: the public and private project files, CLI overrides
// and wizard answers, and the deep merge that folds them together.
package raw

import "strings"

// freeFormKeys are mappings whose child keys are user data and must be kept
// verbatim (environment variable names are case and underscore sensitive).
var freeFormKeys = map[string]bool{
	"environment-variables": true,
}

// SplitKey splits a dotted key into its path segments, normalizing the
// spelling of every schema segment.
func SplitKey(key string) []string {
	parts := strings.Split(strings.TrimSpace(key), ".")
	return normalizeParts(parts)
}

// NormalizeKey returns the canonical (hyphenated) spelling of a dotted key.
// "python_version" and "python-version" both normalize to "python-version".
func NormalizeKey(key string) string {
	return strings.Join(SplitKey(key), ".")
}

// AttributeName converts a canonical key into the underscore spelling used for
// attribute names and issue paths ("server-file" -> "server_file").
func AttributeName(key string) string {
	parts := strings.Split(key, ".")
	freeForm := false
	for i, p := range parts {
		if !freeForm {
			parts[i] = strings.ReplaceAll(p, "-", "_")
		}
		if i == 0 && freeFormKeys[normalizeSegment(p)] {
			freeForm = true
		}
	}
	return strings.Join(parts, ".")
}

func normalizeParts(parts []string) []string {
	out := make([]string, len(parts))
	freeForm := false
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if freeForm {
			out[i] = p
			continue
		}
		out[i] = normalizeSegment(p)
		if i == 0 && freeFormKeys[out[i]] {
			freeForm = true
		}
	}
	return out
}

func normalizeSegment(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", "-"))
}

// normalizeMap returns a deep copy of m with every schema key normalized.
// Nil values are dropped: a YAML null is the same as an absent key.
func normalizeMap(m map[string]any, freeForm bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := k
		childFreeForm := false
		if !freeForm {
			key = normalizeSegment(k)
			childFreeForm = freeFormKeys[key]
		}
		if v == nil {
			continue
		}
		if child, ok := asMap(v); ok {
			out[key] = normalizeMap(child, childFreeForm)
			continue
		}
		out[key] = copyValue(v)
	}
	return out
}
