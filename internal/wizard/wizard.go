// Package wizard completes a partial configuration interactively. It asks
// only for what the resolver reports as missing, in a fixed order, and
// re-resolves after every answer.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/probe"
	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/resolve"
)

// Question is what the prompter shows for one state.
type Question struct {
	State State
	// Attribute is the attribute the answer fills.
	Attribute  string
	Text       string
	Help       string
	Default    string
	HasDefault bool
	Choices    []string
}

// Prompter asks questions. Ask blocks until the user answers; returning an
// error wrapping errors.ErrAborted cancels the wizard.
type Prompter interface {
	Ask(q Question) (string, error)
	Inform(message string)
}

// Mode selects which states are visited.
type Mode int

const (
	// ModeMissing asks only for attributes the resolver reports missing.
	ModeMissing Mode = iota
	// ModeConfirm asks every applicable state once, defaulting to the
	// inferred value, then fills anything still missing.
	ModeConfirm
)

// maxRounds bounds the ask/resolve loop.
const maxRounds = 32

// Result is the outcome of a wizard run.
type Result struct {
	// Config is set when resolution succeeded.
	Config *resolve.ResolvedConfiguration
	// Report is the last resolution report.
	Report *resolve.Report
	// Store is a copy of the input store with the wizard answers applied.
	Store *raw.Store
	// Probes is the snapshot the last resolution used. It extends the
	// engine's snapshot with the Dockerfile paths answered.
	Probes *probe.ProbeSet
	// Asked lists the states that were asked, in order.
	Asked []State
}

// Answers returns the wizard-answer attributes, including removals.
func (r *Result) Answers() []raw.Attribute {
	return r.Store.Attributes(raw.OriginWizard)
}

// Engine drives the wizard state machine.
type Engine struct {
	resolver *resolve.Resolver
	probes   *probe.ProbeSet
	prompter Prompter
	mode     Mode
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode sets the visiting mode.
func WithMode(m Mode) Option {
	return func(e *Engine) {
		e.mode = m
	}
}

// New creates an engine. Attempts share the probe snapshot; a Dockerfile
// path answered during the run is observed before the next attempt.
func New(resolver *resolve.Resolver, probes *probe.ProbeSet, prompter Prompter, opts ...Option) *Engine {
	e := &Engine{resolver: resolver, probes: probes, prompter: prompter}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run completes store. The input store is never modified; answers are applied
// to a copy returned in the result. A run that stops on an error the wizard
// cannot ask about returns the report with a nil Config and a nil error.
func (e *Engine) Run(ctx context.Context, store *raw.Store) (*Result, error) {
	res := &Result{Store: store.Clone(), Probes: e.probes}
	asked := map[State]bool{}

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", oerrors.ErrAborted, err)
		}

		res.Config, res.Report = e.resolver.Resolve(res.Store, res.Probes)
		if blocking := blockingIssues(res.Report); len(blocking) > 0 {
			output.Debug("wizard stopped", "issues", len(blocking))
			return res, nil
		}

		state, ok := e.next(res.Report, asked)
		if !ok {
			return res, nil
		}
		if round >= maxRounds {
			output.Debug("wizard gave up", "state", state)
			return res, nil
		}

		value, err := e.ask(state, res.Report, res.Probes)
		if err != nil {
			return nil, err
		}
		stateDefs[state].apply(res.Store, value)
		if state == StateDockerfile {
			res.Probes = res.Probes.WithDockerfiles(value.(string))
		}
		asked[state] = true
		res.Asked = append(res.Asked, state)
		output.Debug("wizard answer", "state", state, "value", value)
	}
}

// next picks the first state to ask. In confirm mode every applicable state
// is asked once; afterwards, and in missing mode, only states whose
// attribute is reported missing are asked.
func (e *Engine) next(report *resolve.Report, asked map[State]bool) (State, bool) {
	missing := map[State]bool{}
	for _, issue := range report.Errors() {
		if s, ok := questionCodes[issue.Code]; ok {
			missing[s] = true
		}
	}
	for _, s := range States {
		if !e.shouldSkip(s, report, asked, missing) {
			return s, true
		}
	}
	return "", false
}

func (e *Engine) shouldSkip(s State, report *resolve.Report, asked, missing map[State]bool) bool {
	def := stateDefs[s]
	if missing[s] {
		return false
	}
	if e.mode != ModeConfirm || asked[s] {
		return true
	}
	if def.applies != nil && !def.applies(report.Partial) {
		return true
	}
	return false
}

// ask prompts until the answer parses.
func (e *Engine) ask(s State, report *resolve.Report, probes *probe.ProbeSet) (any, error) {
	def := stateDefs[s]
	q := Question{
		State:     s,
		Attribute: def.attribute,
		Text:      def.text,
		Help:      resolve.Describe(def.attribute),
	}
	if def.choices != nil {
		q.Choices = def.choices(probes)
	}
	if v, ok := defaultFor(s, report.Partial); ok {
		q.Default, q.HasDefault = v, true
	}

	for {
		answer, err := e.prompter.Ask(q)
		if err != nil {
			if errors.Is(err, oerrors.ErrAborted) {
				return nil, err
			}
			return nil, fmt.Errorf("asking %s: %w", s, err)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			if !q.HasDefault {
				e.prompter.Inform("An answer is required.")
				continue
			}
			answer = q.Default
		}
		if len(q.Choices) > 0 && !slices.Contains(q.Choices, answer) {
			e.prompter.Inform(fmt.Sprintf("Choose one of: %s.", strings.Join(q.Choices, ", ")))
			continue
		}
		value, err := def.parse(answer)
		if err == nil && def.check != nil {
			err = def.check(probes.WorkingDirectory, answer)
		}
		if err != nil {
			e.prompter.Inform(fmt.Sprintf("Invalid answer: %v.", err))
			continue
		}
		return value, nil
	}
}

func defaultFor(s State, partial map[string]any) (string, bool) {
	if s == StateTarget {
		for _, k := range []string{"server_file", "server_command"} {
			if v, ok := partial[k]; ok {
				return formatDefault(v), true
			}
		}
		return "", false
	}
	v, ok := partial[stateDefs[s].attribute]
	if !ok {
		return "", false
	}
	return formatDefault(v), true
}

// blockingIssues returns the errors the wizard cannot ask about.
func blockingIssues(report *resolve.Report) []resolve.Issue {
	var out []resolve.Issue
	for _, issue := range report.Errors() {
		if _, ok := questionCodes[issue.Code]; !ok {
			out = append(out, issue)
		}
	}
	return out
}

// NeedsInput reports whether report can be completed by the wizard: it has
// errors and every one of them maps to a question.
func NeedsInput(report *resolve.Report) bool {
	return report.HasErrors() && len(blockingIssues(report)) == 0
}
