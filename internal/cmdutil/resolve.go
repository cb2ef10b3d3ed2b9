package cmdutil

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/probe"
	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/resolve"
	"github.com/emsipi/cli/internal/wizard"
)

// ResolveProjectOpts holds the inputs for ResolveProject.
type ResolveProjectOpts struct {
	// Dir is the absolute project directory.
	Dir string

	// Cmd and Args carry the override flags and the positional target.
	Cmd       *cobra.Command
	Args      []string
	Overrides *OverrideFlags

	// Prompter enables the wizard when resolution reports missing input.
	// Nil disables it.
	Prompter wizard.Prompter

	// Mode is the wizard mode; ModeConfirm runs the wizard even when
	// resolution already succeeds.
	Mode wizard.Mode

	// Files overrides filesystem access for probing. Nil uses the OS.
	Files probe.FileAccess
}

// ResolveProjectResult is the outcome of ResolveProject.
type ResolveProjectResult struct {
	// Config is nil when resolution failed.
	Config *resolve.ResolvedConfiguration
	Report *resolve.Report

	// Store holds the project layers, the CLI overrides and, when the wizard
	// ran, its answers.
	Store  *raw.Store
	Files  raw.ProjectFiles
	Probes *probe.ProbeSet

	// Wizard is set when the wizard ran.
	Wizard *wizard.Result
}

// ResolveProject executes the resolution preamble shared by resolve, vet,
// init and dockerfile: load the project files, apply CLI overrides, probe
// the directory, resolve, and run the wizard when it is enabled and can
// help.
//
// A failed resolution is not an error: the result carries the report.
// Fatal conditions are returned as *ExitError.
func ResolveProject(ctx context.Context, opts ResolveProjectOpts) (*ResolveProjectResult, error) {
	store, files, err := raw.LoadProject(opts.Dir)
	if err != nil {
		return nil, exitError(err)
	}
	output.Debug("loaded project files",
		"public", files.PublicExists,
		"private", files.PrivateExists,
		"dir", opts.Dir)

	if opts.Overrides != nil && opts.Cmd != nil {
		if err := opts.Overrides.Apply(opts.Cmd, opts.Args, store); err != nil {
			return nil, &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
		}
	}

	fileAccess := opts.Files
	if fileAccess == nil {
		fileAccess = probe.NewOSFileAccess(opts.Dir)
	}
	var probes *probe.ProbeSet
	err = output.RunWithSpinner(ctx, func() error {
		var perr error
		probes, perr = probe.Capture(ctx, opts.Dir, fileAccess, resolve.ConfiguredDockerfile(store))
		return perr
	}, output.WithTitle("Inspecting project files..."))
	if err != nil {
		return nil, exitError(fmt.Errorf("probing %s: %w", opts.Dir, err))
	}

	resolver, err := resolve.NewResolver()
	if err != nil {
		return nil, &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}

	result := &ResolveProjectResult{Store: store, Files: files, Probes: probes}
	result.Config, result.Report = resolver.Resolve(store, probes)

	runWizard := opts.Prompter != nil &&
		(opts.Mode == wizard.ModeConfirm || wizard.NeedsInput(result.Report))
	if !runWizard {
		return result, nil
	}

	output.Debug("starting wizard", "mode", opts.Mode)
	res, err := wizard.New(resolver, probes, opts.Prompter, wizard.WithMode(opts.Mode)).Run(ctx, store)
	if err != nil {
		return nil, exitError(err)
	}
	result.Wizard = res
	result.Config, result.Report, result.Store = res.Config, res.Report, res.Store
	result.Probes = res.Probes
	return result, nil
}

// exitError attaches the exit code for err's sentinel.
func exitError(err error) error {
	return &oerrors.ExitError{Code: oerrors.ExitCodeFromError(err), Err: err}
}
