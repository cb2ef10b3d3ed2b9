package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emsipi/cli/internal/cmdtypes"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show emsipi version information.

Displays:
  - emsipi version, commit, and build date
  - CUE SDK version used for the project file schema`,
		RunE: func(_ *cobra.Command, _ []string) error {
			output.Println(version.Get().String())
			return nil
		},
	}
}
