package cmdutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/wizard"
)

// TerminalPrompter asks wizard questions on a line-oriented terminal.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter reads answers from in and writes prompts to out.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Ask prints the question and reads one line. End of input aborts the
// wizard.
func (p *TerminalPrompter) Ask(q wizard.Question) (string, error) {
	if q.Help != "" {
		fmt.Fprintln(p.out, output.StyleDim.Render(q.Help))
	}
	if len(q.Choices) > 0 {
		fmt.Fprintln(p.out, output.StyleDim.Render("Choices: "+strings.Join(q.Choices, ", ")))
	}
	fmt.Fprint(p.out, output.FormatPrompt(q.Text, q.Default, q.HasDefault))

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		fmt.Fprintln(p.out)
		if errors.Is(err, io.EOF) {
			return "", oerrors.Wrap(oerrors.ErrAborted, "input closed")
		}
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Inform prints a message between questions.
func (p *TerminalPrompter) Inform(message string) {
	fmt.Fprintln(p.out, output.StyleSummary.Render(message))
}
