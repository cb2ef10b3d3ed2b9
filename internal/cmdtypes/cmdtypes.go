// Package cmdtypes provides shared types for the cmd package and its sub-packages.
// It is separate from internal/cmd to avoid import cycles between internal/cmd
// and internal/cmd/config.
package cmdtypes

import (
	"io"
	"os"

	"github.com/emsipi/cli/internal/cmdutil"
	"github.com/emsipi/cli/internal/config"
	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/wizard"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	// Settings are the resolved tool settings. Nil before PersistentPreRunE.
	Settings *config.Settings

	// ConfigPath is the resolved settings file path.
	ConfigPath string

	// In is where wizard answers are read from. Nil means os.Stdin, which is
	// only used when it is a terminal.
	In io.Reader
}

// OutputFormat returns the resolved output format.
func (g *GlobalConfig) OutputFormat() output.OutputFormat {
	if g == nil || g.Settings == nil {
		return output.FormatYAML
	}
	return g.Settings.Output
}

// Prompter returns the prompter for the wizard, or nil when prompting is
// disabled or no terminal is attached.
func (g *GlobalConfig) Prompter() wizard.Prompter {
	if g == nil || (g.Settings != nil && !g.Settings.Interactive) {
		return nil
	}
	if g.In != nil {
		return cmdutil.NewTerminalPrompter(g.In, os.Stderr)
	}
	if !output.IsInteractive() {
		return nil
	}
	return cmdutil.NewTerminalPrompter(os.Stdin, os.Stderr)
}

// Exit codes, aliased from internal/errors.
const (
	ExitSuccess          = oerrors.ExitSuccess
	ExitGeneralError     = oerrors.ExitGeneralError
	ExitValidationError  = oerrors.ExitValidationError
	ExitPermissionDenied = oerrors.ExitPermissionDenied
	ExitNotFound         = oerrors.ExitNotFound
	ExitAborted          = oerrors.ExitAborted
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError

// ExitCodeFromError determines the exit code for err.
func ExitCodeFromError(err error) int {
	return oerrors.ExitCodeFromError(err)
}
