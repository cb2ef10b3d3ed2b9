package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emsipi/cli/internal/cmdtypes"
	"github.com/emsipi/cli/internal/cmdutil"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/templates"
	"github.com/emsipi/cli/internal/wizard"
)

// NewDockerfileCmd creates the dockerfile command.
func NewDockerfileCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		pf        cmdutil.ProjectFlags
		overrides cmdutil.OverrideFlags
		force     bool
		printOnly bool
	)

	c := &cobra.Command{
		Use:   "dockerfile [server-file-or-command]",
		Short: "Generate the Dockerfile for the server",
		Long: `Resolve the project configuration and render a Dockerfile for it.

The Dockerfile is written when it does not exist yet or when it still starts
with the generation marker. A Dockerfile maintained by hand is left alone
unless --force is given.

Templates:
` + templateHelp(),
		Example: `  # Generate ./Dockerfile for a Python server
  emsipi dockerfile server.py

  # Show the Dockerfile without writing it
  emsipi dockerfile --print`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runDockerfile(c, args, cfg, &pf, &overrides, force, printOnly)
		},
	}

	pf.AddTo(c)
	overrides.AddTo(c)
	c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite a Dockerfile without the generation marker")
	c.Flags().BoolVar(&printOnly, "print", false, "Print the Dockerfile to stdout instead of writing it")

	return c
}

// templateHelp lists the Dockerfile templates, one per runtime.
func templateHelp() string {
	var b strings.Builder
	for _, t := range templates.List() {
		fmt.Fprintf(&b, "  %-18s %s (%s)\n", t.Name, t.Description, t.Runtime)
	}
	return strings.TrimRight(b.String(), "\n")
}

func runDockerfile(
	c *cobra.Command,
	args []string,
	cfg *cmdtypes.GlobalConfig,
	pf *cmdutil.ProjectFlags,
	overrides *cmdutil.OverrideFlags,
	force, printOnly bool,
) error {
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
	if res.Config == nil {
		return cmdutil.ReportFailure(c.ErrOrStderr(), res.Report)
	}
	cmdutil.PrintIssues(res.Report)

	if printOnly {
		renderer, err := templates.NewRenderer()
		if err != nil {
			return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
		}
		content, _, err := renderer.Render(res.Config)
		if err != nil {
			return &cmdtypes.ExitError{Code: cmdtypes.ExitValidationError, Err: err}
		}
		_, err = c.OutOrStdout().Write(content)
		return err
	}

	gen, err := templates.NewGenerator(templates.GenerateOptions{Dir: dir, Force: force})
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
	}
	result, err := gen.Generate(res.Config)
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitGeneralError, Err: err}
	}

	log := output.ProjectLogger(res.Config.ServerName)
	if !result.Written {
		log.Warn("Dockerfile is maintained by hand, not overwriting (use --force)", "path", result.Path)
		return nil
	}
	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("Dockerfile written: %s (%s)", result.Path, result.Template)))
	return nil
}
