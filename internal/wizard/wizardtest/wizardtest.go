// Package wizardtest provides a scripted prompter for driving the wizard in
// tests.
package wizardtest

import (
	"fmt"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/wizard"
)

// Prompter replays a fixed list of answers and records every question and
// message.
type Prompter struct {
	Answers   []string
	Questions []wizard.Question
	Messages  []string
}

// NewPrompter creates a prompter that answers in order.
func NewPrompter(answers ...string) *Prompter {
	return &Prompter{Answers: answers}
}

// Ask returns the next scripted answer. When the script is exhausted it
// aborts, so a test never hangs on an unexpected question.
func (p *Prompter) Ask(q wizard.Question) (string, error) {
	p.Questions = append(p.Questions, q)
	if len(p.Answers) == 0 {
		return "", fmt.Errorf("no scripted answer for %s: %w", q.State, oerrors.ErrAborted)
	}
	a := p.Answers[0]
	p.Answers = p.Answers[1:]
	return a, nil
}

// Inform records a message.
func (p *Prompter) Inform(message string) {
	p.Messages = append(p.Messages, message)
}

// States returns the states asked, in order, including re-prompts.
func (p *Prompter) States() []wizard.State {
	out := make([]wizard.State, len(p.Questions))
	for i, q := range p.Questions {
		out[i] = q.State
	}
	return out
}
