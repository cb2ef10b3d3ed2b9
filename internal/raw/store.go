package raw

import (
	"fmt"
	"sort"
	"strings"
)

// Origin identifies the layer a raw value came from.
type Origin string

const (
	// OriginPublic is the shared project file (emsipi.yaml).
	OriginPublic Origin = "public"
	// OriginPrivate is the untracked project file (emsipi.private.yaml).
	OriginPrivate Origin = "private"
	// OriginWizard is an answer given interactively.
	OriginWizard Origin = "wizard-answer"
	// OriginCLI is a command-line override.
	OriginCLI Origin = "cli-override"
)

// Precedence lists origins from lowest to highest precedence.
var Precedence = []Origin{OriginPublic, OriginPrivate, OriginWizard, OriginCLI}

// Attribute is a single raw leaf value together with the layer it came from.
type Attribute struct {
	Key    string
	Value  any
	Origin Origin
}

// Provenance describes where the merged value of a leaf came from.
type Provenance struct {
	// Origin is the layer whose value won.
	Origin Origin
	// Value is the winning value.
	Value any
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[Origin]any
}

// Merged is the result of folding every layer of a Store.
type Merged struct {
	// Values is the merged nested map with canonical keys.
	Values map[string]any
	// Conflicts lists mapping/scalar mismatches found while merging.
	Conflicts []Conflict
	// Provenance maps every merged leaf key to its origin.
	Provenance map[string]Provenance
}

// Lookup returns the merged value at a dotted key.
func (m Merged) Lookup(key string) (any, bool) {
	return lookup(m.Values, SplitKey(key))
}

// Store holds the raw layers keyed by origin. The zero value is not usable;
// create one with NewStore.
type Store struct {
	layers map[Origin]map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{layers: make(map[Origin]map[string]any, len(Precedence))}
	for _, o := range Precedence {
		s.layers[o] = map[string]any{}
	}
	return s
}

// SetLayer replaces an entire layer with a normalized copy of m.
func (s *Store) SetLayer(origin Origin, m map[string]any) {
	s.layers[origin] = normalizeMap(m, false)
}

// Layer returns a copy of the layer for origin. Tombstones are preserved.
func (s *Store) Layer(origin Origin) map[string]any {
	return copyLayer(s.layers[origin])
}

// Set stores value at the dotted key in the given layer, creating
// intermediate mappings as needed.
func (s *Store) Set(origin Origin, key string, value any) {
	setPath(s.layers[origin], SplitKey(key), value)
}

// Unset records an explicit removal of key in the given layer. Lower layers
// keep their value, but it no longer reaches the merged map.
func (s *Store) Unset(origin Origin, key string) {
	s.Set(origin, key, Tombstone)
}

// Get returns the value stored at key in a single layer.
func (s *Store) Get(origin Origin, key string) (any, bool) {
	return lookup(s.layers[origin], SplitKey(key))
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{layers: make(map[Origin]map[string]any, len(s.layers))}
	for o, l := range s.layers {
		c.layers[o] = copyLayer(l)
	}
	return c
}

// Attributes returns the leaves of one layer sorted by key. Tombstones are
// included so that writers can apply removals.
func (s *Store) Attributes(origin Origin) []Attribute {
	leaves := map[string]any{}
	flatten(s.layers[origin], "", leaves)

	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, Attribute{Key: k, Value: leaves[k], Origin: origin})
	}
	return attrs
}

// Merged folds the layers in precedence order.
func (s *Store) Merged() Merged {
	values := map[string]any{}
	var conflicts []Conflict
	for _, o := range Precedence {
		var c []Conflict
		values, c = Merge(values, s.layers[o])
		conflicts = append(conflicts, c...)
	}

	return Merged{
		Values:     values,
		Conflicts:  conflicts,
		Provenance: s.provenance(values),
	}
}

func (s *Store) provenance(merged map[string]any) map[string]Provenance {
	finalLeaves := map[string]any{}
	flatten(merged, "", finalLeaves)

	out := make(map[string]Provenance, len(finalLeaves))
	for key, value := range finalLeaves {
		p := Provenance{Value: value, Shadowed: map[Origin]any{}}
		for _, o := range Precedence {
			v, ok := lookup(s.layers[o], strings.Split(key, "."))
			if !ok || v == nil {
				continue
			}
			if IsTombstone(v) {
				p.Origin = ""
				p.Shadowed = map[Origin]any{}
				continue
			}
			if p.Origin != "" {
				p.Shadowed[p.Origin] = valueAt(s.layers[p.Origin], key)
			}
			p.Origin = o
		}
		out[key] = p
	}
	return out
}

func setPath(m map[string]any, parts []string, value any) {
	for _, p := range parts[:len(parts)-1] {
		child, ok := asMap(m[p])
		if !ok {
			child = map[string]any{}
		}
		m[p] = child
		m = child
	}
	m[parts[len(parts)-1]] = value
}

func valueAt(m map[string]any, key string) any {
	v, _ := lookup(m, strings.Split(key, "."))
	return v
}

func lookup(m map[string]any, parts []string) (any, bool) {
	var cur any = m
	for _, p := range parts {
		node, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = node[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// flatten collects leaf values of m into out keyed by dotted path. Sequences
// and tombstones are leaves.
func flatten(m map[string]any, prefix string, out map[string]any) {
	for k, v := range m {
		path := joinPath(prefix, k)
		if child, ok := asMap(v); ok {
			if len(child) == 0 {
				out[path] = child
				continue
			}
			flatten(child, path, out)
			continue
		}
		out[path] = v
	}
}

func copyLayer(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if child, ok := asMap(v); ok {
			out[k] = copyLayer(child)
			continue
		}
		out[k] = copyValue(v)
	}
	return out
}

// String renders an attribute for debug output.
func (a Attribute) String() string {
	if IsTombstone(a.Value) {
		return fmt.Sprintf("%s=<removed> (%s)", a.Key, a.Origin)
	}
	return fmt.Sprintf("%s=%v (%s)", a.Key, a.Value, a.Origin)
}
