package config

import (
	"github.com/spf13/cobra"

	"github.com/emsipi/cli/internal/cmdtypes"
	"github.com/emsipi/cli/internal/cmdutil"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/wizard"
)

// NewConfigResolveCmd creates the config resolve command.
func NewConfigResolveCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		pf        cmdutil.ProjectFlags
		overrides cmdutil.OverrideFlags
	)

	c := &cobra.Command{
		Use:   "resolve [server-file-or-command]",
		Short: "Resolve and print the project configuration",
		Long: `Resolve the project configuration from the project files, the
command-line overrides and the files in the project directory, and print it.

On a terminal, values that cannot be inferred are asked for. Answers are not
saved; use "emsipi config init" for that. When resolution fails the
validation report is printed and the command exits with code 2.`,
		Example: `  # Resolve the project in the current directory
  emsipi config resolve

  # Resolve with a server file override, as JSON
  emsipi config resolve server.py -o json

  # Override a nested key
  emsipi config resolve --set providers.google.region=europe-west1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runResolve(c, args, cfg, &pf, &overrides)
		},
	}

	pf.AddTo(c)
	overrides.AddTo(c)

	return c
}

func runResolve(c *cobra.Command, args []string, cfg *cmdtypes.GlobalConfig, pf *cmdutil.ProjectFlags, overrides *cmdutil.OverrideFlags) error {
	dir, err := pf.ResolveDirectory()
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
	}

	res, err := cmdutil.ResolveProject(c.Context(), cmdutil.ResolveProjectOpts{
		Dir:       dir,
		Cmd:       c,
		Args:      args,
		Overrides: overrides,
		Prompter:  cfg.Prompter(),
		Mode:      wizard.ModeMissing,
	})
	if err != nil {
		return err
	}

	format := cfg.OutputFormat()
	if res.Config == nil {
		if format == output.FormatTable {
			return cmdutil.ReportFailure(c.ErrOrStderr(), res.Report)
		}
		if err := cmdutil.WriteReport(c.OutOrStdout(), res.Report, format); err != nil {
			return err
		}
		return &cmdtypes.ExitError{Code: cmdtypes.ExitValidationError, Err: res.Report.Err(), Printed: true}
	}

	cmdutil.PrintIssues(res.Report)
	return cmdutil.WriteResolved(c.OutOrStdout(), res.Config, format)
}
