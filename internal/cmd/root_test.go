package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsipi/cli/internal/cmdtypes"
	settings "github.com/emsipi/cli/internal/config"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/testutil"
)

// isolate clears the settings environment and silences stdout.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG", "VERBOSE", "TIMESTAMPS", "INTERACTIVE", "OUTPUT"} {
		t.Setenv("EMSIPI_"+key, "")
	}
	output.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { output.SetOutput(nil) })
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	assert.Equal(t, "emsipi", root.Use)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
	for _, name := range []string{"config", "dockerfile", "version"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"config", "output", "verbose", "timestamps", "interactive"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRoot_ResolvesSettings(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	configFile := testutil.WriteFile(t, dir, "config.yaml", "output: table\ninteractive: false\n")

	t.Run("config file", func(t *testing.T) {
		cfg := &cmdtypes.GlobalConfig{}
		root := newRootCmd(cfg)
		root.SetArgs([]string{"--config", configFile, "version"})
		require.NoError(t, root.Execute())

		require.NotNil(t, cfg.Settings)
		assert.Equal(t, configFile, cfg.ConfigPath)
		assert.Equal(t, output.FormatTable, cfg.OutputFormat())
		assert.False(t, cfg.Settings.Interactive)
		assert.Nil(t, cfg.Prompter())
	})

	t.Run("flag beats config", func(t *testing.T) {
		cfg := &cmdtypes.GlobalConfig{}
		root := newRootCmd(cfg)
		root.SetArgs([]string{"--config", configFile, "-o", "json", "version"})
		require.NoError(t, root.Execute())
		assert.Equal(t, output.FormatJSON, cfg.OutputFormat())
	})

	t.Run("env beats config", func(t *testing.T) {
		t.Setenv("EMSIPI_OUTPUT", "yaml")
		cfg := &cmdtypes.GlobalConfig{}
		root := newRootCmd(cfg)
		root.SetArgs([]string{"--config", configFile, "version"})
		require.NoError(t, root.Execute())
		assert.Equal(t, output.FormatYAML, cfg.OutputFormat())
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg := &cmdtypes.GlobalConfig{}
		root := newRootCmd(cfg)
		root.SetArgs([]string{"--config", filepath.Join(dir, "absent.yaml"), "version"})
		require.NoError(t, root.Execute())
		assert.Equal(t, output.OutputFormat(settings.DefaultOutput), cfg.OutputFormat())
		assert.Equal(t, settings.DefaultInteractive, cfg.Settings.Interactive)
	})
}

func TestRoot_InvalidSettings(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	t.Run("unknown output format", func(t *testing.T) {
		root := NewRootCmd()
		root.SetArgs([]string{"--config", filepath.Join(dir, "absent.yaml"), "-o", "xml", "version"})
		err := root.Execute()
		assert.Equal(t, cmdtypes.ExitValidationError, cmdtypes.ExitCodeFromError(err))
	})

	t.Run("unparsable config file", func(t *testing.T) {
		bad := testutil.WriteFile(t, dir, "bad.yaml", "output: [\n")
		root := NewRootCmd()
		root.SetArgs([]string{"--config", bad, "version"})
		err := root.Execute()
		assert.Equal(t, cmdtypes.ExitValidationError, cmdtypes.ExitCodeFromError(err))
	})
}
