package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emsipi/cli/internal/cmdtypes"
	"github.com/emsipi/cli/internal/cmdutil"
	"github.com/emsipi/cli/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		pf        cmdutil.ProjectFlags
		overrides cmdutil.OverrideFlags
	)

	c := &cobra.Command{
		Use:   "vet [server-file-or-command]",
		Short: "Validate the project configuration",
		Long: `Validate the project configuration without asking any questions.

Every detectable problem is reported at once. The command exits with code 2
when the configuration is incomplete or invalid; warnings do not fail it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runVet(c, args, &pf, &overrides)
		},
	}

	pf.AddTo(c)
	overrides.AddTo(c)

	return c
}

func runVet(c *cobra.Command, args []string, pf *cmdutil.ProjectFlags, overrides *cmdutil.OverrideFlags) error {
	dir, err := pf.ResolveDirectory()
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
	}

	res, err := cmdutil.ResolveProject(c.Context(), cmdutil.ResolveProjectOpts{
		Dir:       dir,
		Cmd:       c,
		Args:      args,
		Overrides: overrides,
	})
	if err != nil {
		return err
	}
	if res.Config == nil {
		return cmdutil.ReportFailure(c.ErrOrStderr(), res.Report)
	}

	cmdutil.PrintIssues(res.Report)
	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("Configuration is valid: %s", res.Config.ServerName)))
	return nil
}
