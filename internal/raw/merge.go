package raw

import (
	"sort"
)

// tombstone marks a key as explicitly removed by a higher-precedence layer.
type tombstone struct{}

// Tombstone is the value stored by Store.Unset. Merging a tombstone over a
// key removes that key from the result.
var Tombstone any = tombstone{}

// IsTombstone reports whether v is the removal marker.
func IsTombstone(v any) bool {
	_, ok := v.(tombstone)
	return ok
}

// Conflict records a key that is a mapping in one layer and a scalar or
// sequence in the other. The override value is kept; the conflict is
// surfaced later as a validation issue.
type Conflict struct {
	// Path is the canonical dotted key.
	Path string
	// Base is the value from the lower-precedence layer.
	Base any
	// Override is the value from the higher-precedence layer.
	Override any
}

// Merge deep-merges override over base and returns a new map. Neither input
// is modified.
//
// For every leaf the override wins if present; keys absent from the override
// keep the base value; keys only in the override are added. Sequences are
// replaced wholesale. Nil override values are ignored and tombstones delete
// the key. Merge never fails: mapping/scalar mismatches are reported as
// conflicts.
func Merge(base, override map[string]any) (map[string]any, []Conflict) {
	var conflicts []Conflict
	merged := mergeInto(copyMap(base), override, "", &conflicts)
	return merged, conflicts
}

func mergeInto(dst, override map[string]any, prefix string, conflicts *[]Conflict) map[string]any {
	keys := make([]string, 0, len(override))
	for k := range override {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := override[k]
		path := joinPath(prefix, k)

		switch {
		case v == nil:
			continue
		case IsTombstone(v):
			delete(dst, k)
			continue
		}

		existing, present := dst[k]
		overrideMap, overrideIsMap := asMap(v)
		existingMap, existingIsMap := asMap(existing)

		switch {
		case present && existingIsMap && overrideIsMap:
			dst[k] = mergeInto(existingMap, overrideMap, path, conflicts)
		case present && existingIsMap != overrideIsMap:
			*conflicts = append(*conflicts, Conflict{Path: path, Base: existing, Override: v})
			dst[k] = copyValue(v)
		default:
			dst[k] = copyValue(v)
		}
	}
	return dst
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// copyMap deep-copies m, dropping nil values and tombstones.
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil || IsTombstone(v) {
			continue
		}
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	if m, ok := asMap(v); ok {
		return copyMap(m)
	}
	if s, ok := v.([]any); ok {
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = copyValue(e)
		}
		return out
	}
	return v
}
