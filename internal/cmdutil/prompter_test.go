package cmdutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/wizard"
)

func TestTerminalPrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	p := NewTerminalPrompter(strings.NewReader("node\r\n3.12"), &out)

	q := wizard.Question{
		Text:       "Runtime",
		Help:       "Language runtime of the server.",
		Choices:    []string{"python", "node"},
		Default:    "python",
		HasDefault: true,
	}
	answer, err := p.Ask(q)
	require.NoError(t, err)
	assert.Equal(t, "node", answer)
	assert.Contains(t, out.String(), "Runtime")
	assert.Contains(t, out.String(), "python, node")
	assert.Contains(t, out.String(), "[python]")

	answer, err = p.Ask(wizard.Question{Text: "Python version"})
	require.NoError(t, err)
	assert.Equal(t, "3.12", answer, "last line without newline")
}

func TestTerminalPrompter_EOFAborts(t *testing.T) {
	p := NewTerminalPrompter(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Ask(wizard.Question{Text: "Server name"})
	assert.ErrorIs(t, err, oerrors.ErrAborted)
}

func TestTerminalPrompter_Inform(t *testing.T) {
	var out bytes.Buffer
	p := NewTerminalPrompter(strings.NewReader(""), &out)
	p.Inform("Choose one of: python, node.")
	assert.Contains(t, out.String(), "Choose one of: python, node.")
}
