// Package resolve turns layered raw configuration and a probe snapshot into a
// fully determined ResolvedConfiguration, or a report listing every reason
// it cannot.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/probe"
	"github.com/emsipi/cli/internal/raw"
)

// GenerationMarker on the first line of a Dockerfile allows overwriting it.
const GenerationMarker = "# OVERWRITE:OK"

type status int

const (
	statusOK status = iota
	statusFailed
	statusSkipped
)

func (s status) String() string {
	switch s {
	case statusOK:
		return "ok"
	case statusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// step is one decision in the pipeline. A step runs only when every step it
// needs finished ok; otherwise it is skipped and emits nothing.
type step struct {
	name  string
	needs []string
	run   func(p *pass) status
}

var pipeline = []step{
	{name: "schema", run: (*pass).checkSchema},
	{name: "server-name", run: (*pass).resolveServerName},
	{name: "target", run: (*pass).resolveTarget},
	{name: "command-type", needs: []string{"target"}, run: (*pass).deriveCommandType},
	{name: "probes", run: (*pass).readProbes},
	{name: "runtime", needs: []string{"probes"}, run: (*pass).resolveRuntime},
	{name: "cross-runtime", needs: []string{"runtime"}, run: (*pass).checkCrossRuntime},
	{name: "python-deps", needs: []string{"runtime"}, run: (*pass).resolvePythonDeps},
	{name: "python-version", needs: []string{"python-deps"}, run: (*pass).resolvePythonVersion},
	{name: "node", needs: []string{"runtime"}, run: (*pass).resolveNode},
	{name: "dockerfile", needs: []string{"probes"}, run: (*pass).resolveDockerfile},
	{name: "environment", run: (*pass).resolveEnvironment},
	{name: "provider", run: (*pass).resolveProvider},
}

// Resolver runs the resolution pipeline. It is safe to reuse across passes.
type Resolver struct {
	schema *Schema
}

// NewResolver compiles the raw schema and returns a resolver.
func NewResolver() (*Resolver, error) {
	schema, err := NewSchema()
	if err != nil {
		return nil, err
	}
	return &Resolver{schema: schema}, nil
}

// Resolve merges the layers of store and resolves them against probes.
//
// The report is never nil. The configuration is non-nil exactly when the
// report holds no error; warnings may accompany a configuration.
func (r *Resolver) Resolve(store *raw.Store, probes *probe.ProbeSet) (*ResolvedConfiguration, *Report) {
	merged := store.Merged()
	logProvenance(merged)
	return r.ResolveMerged(merged, probes)
}

// ConfiguredDockerfile returns the dockerfile path set in the merged layers
// of store, or "" when none is set. The path must be observed by the probe
// snapshot before resolution.
func ConfiguredDockerfile(store *raw.Store) string {
	v, ok := store.Merged().Lookup(keyDockerfile)
	if !ok {
		return ""
	}
	path, _ := v.(string)
	return path
}

// ResolveMerged resolves an already merged raw map.
func (r *Resolver) ResolveMerged(merged raw.Merged, probes *probe.ProbeSet) (*ResolvedConfiguration, *Report) {
	p := &pass{
		schema:    r.schema,
		values:    merged.Values,
		conflicts: merged.Conflicts,
		probes:    probes,
		report:    newReport(),
		flagged:   map[string]bool{},
		statuses:  map[string]status{},
		env:       map[string]string{},
	}
	p.cfg.WorkingDirectory = probes.WorkingDirectory

	for _, s := range pipeline {
		st := statusOK
		for _, dep := range s.needs {
			if p.statuses[dep] != statusOK {
				st = statusSkipped
				break
			}
		}
		if st == statusOK {
			st = s.run(p)
		}
		p.statuses[s.name] = st
		output.Debug("resolution step", "step", s.name, "status", st.String())
	}

	return p.finalize()
}

func logProvenance(merged raw.Merged) {
	keys := make([]string, 0, len(merged.Provenance))
	for k := range merged.Provenance {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		prov := merged.Provenance[k]
		output.Debug("raw value", "key", k, "value", prov.Value, "origin", prov.Origin)
		for _, o := range raw.Precedence {
			if v, ok := prov.Shadowed[o]; ok {
				output.Debug("  shadowed by higher precedence", "key", k, "origin", o, "value", v)
			}
		}
	}
}

// pass is the working state of one resolution attempt.
type pass struct {
	schema    *Schema
	values    map[string]any
	conflicts []raw.Conflict
	probes    *probe.ProbeSet
	report    *Report

	// flagged holds canonical keys whose raw value already produced an issue.
	flagged  map[string]bool
	statuses map[string]status

	cfg ResolvedConfiguration
	env map[string]string
}

func (p *pass) ok(stepName string) bool {
	return p.statuses[stepName] == statusOK
}

func (p *pass) finalize() (*ResolvedConfiguration, *Report) {
	if p.report.HasErrors() {
		return nil, p.report
	}

	cfg := p.cfg
	if len(p.env) > 0 {
		cfg.environment = p.env
	}
	if err := validate.Struct(&cfg); err != nil {
		p.report.errorf("", CodeInternalInconsistency, "resolved configuration is inconsistent: %v", err)
		return nil, p.report
	}
	return &cfg, p.report
}

// lookup returns the raw value at a canonical key. flagged is true when the
// key, or one of its parents, already failed the schema check.
func (p *pass) lookup(key string) (value any, present, flagged bool) {
	parts := raw.SplitKey(key)
	for i := range parts {
		if p.flagged[strings.Join(parts[:i+1], ".")] {
			flagged = true
		}
	}
	var cur any = p.values
	for _, k := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false, flagged
		}
		if cur, ok = m[k]; !ok {
			return nil, false, flagged
		}
	}
	return cur, true, flagged
}

// str returns a usable string value. ok is false when the key is absent or
// was flagged by the schema check; failed reports the latter.
func (p *pass) str(key string) (s string, ok, failed bool) {
	v, present, flagged := p.lookup(key)
	if !present {
		return "", false, false
	}
	if flagged {
		return "", false, true
	}
	s, isString := v.(string)
	if !isString {
		s = fmt.Sprint(v)
	}
	return s, true, false
}

// attr converts a canonical key to the attribute path used in issues.
func attr(key string) string {
	return raw.AttributeName(key)
}
