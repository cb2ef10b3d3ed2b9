package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emsipi/cli/internal/cmdtypes"
	"github.com/emsipi/cli/internal/cmdutil"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/wizard"
)

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		pf        cmdutil.ProjectFlags
		overrides cmdutil.OverrideFlags
		dryRun    bool
	)

	c := &cobra.Command{
		Use:   "init [server-file-or-command]",
		Short: "Create or complete the project files",
		Long: `Ask for the project configuration and save the answers.

Without project files every setting is confirmed once; otherwise only missing
values are asked for. Answers and command-line overrides are saved to
emsipi.yaml, except provider settings which go to emsipi.private.yaml.
Existing keys keep their order and comments.`,
		Example: `  # Start a new project
  emsipi config init server.py

  # Show what would change without writing
  emsipi config init --dry-run --python-version 3.12`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runInit(c, args, cfg, &pf, &overrides, dryRun)
		},
	}

	pf.AddTo(c)
	overrides.AddTo(c)
	c.Flags().BoolVar(&dryRun, "dry-run", false, "Show the changes as a diff without writing them")

	return c
}

func runInit(c *cobra.Command, args []string, cfg *cmdtypes.GlobalConfig, pf *cmdutil.ProjectFlags, overrides *cmdutil.OverrideFlags, dryRun bool) error {
	dir, err := pf.ResolveDirectory()
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
	}

	existing, err := projectFilesExist(dir)
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
	}
	mode := wizard.ModeMissing
	if !existing {
		mode = wizard.ModeConfirm
	}

	res, err := cmdutil.ResolveProject(c.Context(), cmdutil.ResolveProjectOpts{
		Dir:       dir,
		Cmd:       c,
		Args:      args,
		Overrides: overrides,
		Prompter:  cfg.Prompter(),
		Mode:      mode,
	})
	if err != nil {
		return err
	}
	if res.Config == nil {
		return cmdutil.ReportFailure(c.ErrOrStderr(), res.Report)
	}
	cmdutil.PrintIssues(res.Report)

	attrs := append(res.Store.Attributes(raw.OriginWizard), res.Store.Attributes(raw.OriginCLI)...)
	plan, err := raw.NewWriter(dir).Plan(attrs)
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitCodeFromError(err), Err: err}
	}

	out := c.OutOrStdout()
	if !plan.HasChanges() {
		fmt.Fprintln(out, output.FormatCheckmark("Project files are up to date"))
		return nil
	}

	if dryRun {
		for _, change := range plan.Changes {
			if !change.Changed() {
				continue
			}
			diff, err := change.Diff(output.IsTTY())
			if err != nil {
				return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
			}
			fmt.Fprintln(out, diff)
		}
		return nil
	}

	written, err := plan.Apply()
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitCodeFromError(err), Err: err}
	}
	output.ProjectLogger(res.Config.ServerName).Debug("project files written", "files", written)
	fmt.Fprintln(out, output.FormatCheckmark("Saved "+plan.Summary(dir)))
	return nil
}

// projectFilesExist reports whether either project file is present.
func projectFilesExist(dir string) (bool, error) {
	for _, name := range []string{raw.PublicFileName, raw.PrivateFileName} {
		_, err := os.Stat(filepath.Join(dir, name))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}
