package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsipi/cli/internal/cmdtypes"
	settings "github.com/emsipi/cli/internal/config"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/testutil"
)

func globals(format output.OutputFormat, answers string) *cmdtypes.GlobalConfig {
	g := &cmdtypes.GlobalConfig{
		Settings: &settings.Settings{Output: format, Interactive: answers != ""},
	}
	if answers != "" {
		g.In = strings.NewReader(answers)
	}
	return g
}

func execute(t *testing.T, c *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c.SetOut(&stdout)
	c.SetErr(&stderr)
	c.SetArgs(args)
	err := c.Execute()
	return stdout.String(), stderr.String(), err
}

func requireExitCode(t *testing.T, err error, code int) *cmdtypes.ExitError {
	t.Helper()
	require.Error(t, err)
	var exitErr *cmdtypes.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
	return exitErr
}

func TestNewConfigCmd(t *testing.T) {
	c := NewConfigCmd(globals(output.FormatYAML, ""))

	assert.Equal(t, "config", c.Use)
	names := make([]string, 0, len(c.Commands()))
	for _, sub := range c.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"resolve", "vet", "init"}, names)
}

func TestConfigResolve(t *testing.T) {
	dir := testutil.Project(t, map[string]string{
		"emsipi.yaml":      "server-name: weather\nserver-file: server.py\npython-version: \"3.12\"\n",
		"requirements.txt": "mcp\n",
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _, err := execute(t, NewConfigResolveCmd(globals(output.FormatYAML, "")), "-C", dir)
		require.NoError(t, err)
		assert.Contains(t, stdout, "server_name: weather")
		assert.Contains(t, stdout, "python_version: \"3.12\"")
	})

	t.Run("json with override", func(t *testing.T) {
		stdout, _, err := execute(t, NewConfigResolveCmd(globals(output.FormatJSON, "")), "-C", dir, "--python-version", "3.11")
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
		assert.Equal(t, "3.11", doc["python_version"])
		assert.Equal(t, "weather", doc["server_name"])
	})
}

func TestConfigResolve_Failure(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"requirements.txt": "mcp\n"})

	t.Run("table goes to stderr", func(t *testing.T) {
		stdout, stderr, err := execute(t, NewConfigResolveCmd(globals(output.FormatTable, "")), "-C", dir)
		exitErr := requireExitCode(t, err, cmdtypes.ExitValidationError)
		assert.True(t, exitErr.Printed)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "server_target")
	})

	t.Run("json report on stdout", func(t *testing.T) {
		stdout, _, err := execute(t, NewConfigResolveCmd(globals(output.FormatJSON, "")), "-C", dir)
		requireExitCode(t, err, cmdtypes.ExitValidationError)
		assert.Contains(t, stdout, "missing-target")
	})
}

func TestConfigResolve_AsksForMissingValues(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"package.json": "{}"})

	stdout, _, err := execute(t, NewConfigResolveCmd(globals(output.FormatYAML, "20\n")), "-C", dir, "index.js")
	require.NoError(t, err)
	assert.Contains(t, stdout, "node_version: \"20\"")

	// resolve never saves answers
	_, statErr := os.Stat(filepath.Join(dir, raw.PublicFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigVet(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dir := testutil.Project(t, map[string]string{
			"emsipi.yaml":  "server-name: weather\nserver-file: index.js\nnode-version: \"20\"\n",
			"package.json": "{}",
		})
		stdout, _, err := execute(t, NewConfigVetCmd(globals(output.FormatYAML, "")), "-C", dir)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Configuration is valid: weather")
	})

	t.Run("invalid never prompts", func(t *testing.T) {
		dir := testutil.Project(t, map[string]string{"package.json": "{}"})
		_, stderr, err := execute(t, NewConfigVetCmd(globals(output.FormatYAML, "20\n")), "-C", dir, "index.js")
		requireExitCode(t, err, cmdtypes.ExitValidationError)
		assert.Contains(t, stderr, "node_version")
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := execute(t, NewConfigVetCmd(globals(output.FormatYAML, "")), "-C", filepath.Join(t.TempDir(), "nope"))
		requireExitCode(t, err, cmdtypes.ExitNotFound)
	})
}

func TestConfigInit_WritesOverrides(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"requirements.txt": "mcp\n"})

	stdout, _, err := execute(t, NewConfigInitCmd(globals(output.FormatYAML, "")),
		"-C", dir, "server.py", "--python-version", "3.12")
	require.NoError(t, err)
	assert.Contains(t, stdout, raw.PublicFileName)

	data, err := os.ReadFile(filepath.Join(dir, raw.PublicFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "server-file: server.py")
	assert.Contains(t, string(data), "3.12")
	assert.NotContains(t, string(data), "server-command")
}

func TestConfigInit_DryRun(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"requirements.txt": "mcp\n"})

	stdout, _, err := execute(t, NewConfigInitCmd(globals(output.FormatYAML, "")),
		"-C", dir, "--dry-run", "server.py", "--python-version", "3.12")
	require.NoError(t, err)
	assert.Contains(t, stdout, "+ server-file: server.py")

	_, statErr := os.Stat(filepath.Join(dir, raw.PublicFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigInit_CompletesExistingProject(t *testing.T) {
	dir := testutil.Project(t, map[string]string{
		"emsipi.yaml":  "# weather MCP server\nserver-name: weather\nserver-file: index.js\n",
		"package.json": "{}",
	})

	_, _, err := execute(t, NewConfigInitCmd(globals(output.FormatYAML, "22\n")), "-C", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, raw.PublicFileName))
	require.NoError(t, err)
	assert.Equal(t, "# weather MCP server\nserver-name: weather\nserver-file: index.js\nnode-version: \"22\"\n", string(data))
}

func TestConfigInit_UpToDate(t *testing.T) {
	dir := testutil.Project(t, map[string]string{
		"emsipi.yaml":  "node-version: \"20\"\nserver-file: index.js\nserver-name: weather\n",
		"package.json": "{}",
	})

	stdout, _, err := execute(t, NewConfigInitCmd(globals(output.FormatYAML, "")), "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "up to date")
}

func TestConfigInit_IncompleteFails(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"package.json": "{}"})

	_, _, err := execute(t, NewConfigInitCmd(globals(output.FormatYAML, "")), "-C", dir, "index.js")
	requireExitCode(t, err, cmdtypes.ExitValidationError)

	_, statErr := os.Stat(filepath.Join(dir, raw.PublicFileName))
	assert.True(t, os.IsNotExist(statErr))
}
