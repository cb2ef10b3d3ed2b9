// Package config provides CLI command implementations for the config command group.
package config

import (
	"github.com/spf13/cobra"

	"github.com/emsipi/cli/internal/cmdtypes"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Project configuration",
		Long: `Resolve, validate and initialize the configuration of an MCP server
project (emsipi.yaml and emsipi.private.yaml).`,
	}

	c.AddCommand(NewConfigResolveCmd(cfg))
	c.AddCommand(NewConfigVetCmd(cfg))
	c.AddCommand(NewConfigInitCmd(cfg))

	return c
}
