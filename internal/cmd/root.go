// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emsipi/cli/internal/cmd/config"
	"github.com/emsipi/cli/internal/cmdtypes"
	settings "github.com/emsipi/cli/internal/config"
	"github.com/emsipi/cli/internal/output"
)

// rootFlags holds the persistent flag values.
type rootFlags struct {
	config      string
	output      string
	verbose     bool
	timestamps  bool
	interactive bool
}

// NewRootCmd creates the root command for the emsipi CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&cmdtypes.GlobalConfig{})
}

func newRootCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:   "emsipi",
		Short: "Configure and containerize MCP servers",
		Long: `emsipi resolves the configuration of an MCP server project from
emsipi.yaml, emsipi.private.yaml, command-line overrides and the files in the
project directory, and asks for whatever it cannot infer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeGlobals(cmd, &flags, cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "Path to settings file (env: EMSIPI_CONFIG)")
	pf.StringVarP(&flags.output, "output", "o", settings.DefaultOutput, "Output format: yaml, json, table (env: EMSIPI_OUTPUT)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", settings.DefaultVerbose, "Enable verbose output (env: EMSIPI_VERBOSE)")
	pf.BoolVar(&flags.timestamps, "timestamps", settings.DefaultTimestamps, "Show timestamps in log output (env: EMSIPI_TIMESTAMPS)")
	pf.BoolVar(&flags.interactive, "interactive", settings.DefaultInteractive, "Ask for missing values on a terminal (env: EMSIPI_INTERACTIVE)")

	rootCmd.AddCommand(config.NewConfigCmd(cfg))
	rootCmd.AddCommand(NewDockerfileCmd(cfg))
	rootCmd.AddCommand(NewVersionCmd(cfg))

	return rootCmd
}

// initializeGlobals loads the settings file, resolves every setting and sets
// up logging.
func initializeGlobals(cmd *cobra.Command, flags *rootFlags, cfg *cmdtypes.GlobalConfig) error {
	pathResult, err := settings.ResolveConfigPath(settings.ResolveConfigPathOptions{FlagValue: flags.config})
	if err != nil {
		return err
	}
	configPath, err := settings.ExpandPath(pathResult.ConfigPath)
	if err != nil {
		return err
	}

	loaded, err := settings.NewLoader().Load(configPath)
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitValidationError, Err: err}
	}

	fv := settings.FlagValues{}
	changed := cmd.Flags().Changed
	if changed("verbose") {
		fv.Verbose = output.BoolPtr(flags.verbose)
	}
	if changed("timestamps") {
		fv.Timestamps = output.BoolPtr(flags.timestamps)
	}
	if changed("interactive") {
		fv.Interactive = output.BoolPtr(flags.interactive)
	}
	if changed("output") {
		fv.Output = flags.output
	}

	resolved, err := settings.ResolveSettings(loaded, fv)
	if err != nil {
		return &cmdtypes.ExitError{Code: cmdtypes.ExitValidationError, Err: err}
	}

	cfg.Settings = resolved
	cfg.ConfigPath = configPath

	output.SetupLogging(output.LogConfig{
		Verbose:    resolved.Verbose,
		Timestamps: output.BoolPtr(resolved.Timestamps),
	})
	output.Debug("initializing CLI", "config", configPath, "config_source", pathResult.Source)
	if loaded.IsEmpty() {
		output.Debug("settings file sets no values", "config", configPath)
	}
	settings.LogResolvedValues(resolved.Values)

	return nil
}
