package cmdutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/resolve"
	"github.com/emsipi/cli/internal/testutil"
	"github.com/emsipi/cli/internal/wizard"
	"github.com/emsipi/cli/internal/wizard/wizardtest"
)

func resolveIn(t *testing.T, dir string, prompter wizard.Prompter, args ...string) (*ResolveProjectResult, error) {
	t.Helper()
	var f OverrideFlags
	cmd := &cobra.Command{Use: "test"}
	f.AddTo(cmd)
	require.NoError(t, cmd.Flags().Parse(args))

	return ResolveProject(context.Background(), ResolveProjectOpts{
		Dir:       dir,
		Cmd:       cmd,
		Args:      cmd.Flags().Args(),
		Overrides: &f,
		Prompter:  prompter,
	})
}

func TestResolveProject_Success(t *testing.T) {
	dir := testutil.Project(t, map[string]string{
		"emsipi.yaml":      "server-file: server.py\n",
		"requirements.txt": "mcp\n",
	})

	res, err := resolveIn(t, dir, nil, "--python-version", "3.12")
	require.NoError(t, err)
	require.NotNil(t, res.Config, "issues: %v", res.Report.Issues)

	assert.True(t, res.Files.PublicExists)
	assert.Equal(t, "3.12", res.Config.PythonVersion)
	assert.Equal(t, resolve.DepsRequirements, res.Config.PythonDependenciesFile)
	assert.Nil(t, res.Wizard)
}

func TestResolveProject_ConfiguredDockerfile(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		args     []string
		want     string
		generate bool
	}{
		{
			name: "project file with marker",
			files: map[string]string{
				"emsipi.yaml":       "server-file: server.py\npython-version: \"3.12\"\ndockerfile: docker/Dockerfile\n",
				"docker/Dockerfile": resolve.GenerationMarker + "\nFROM python:3.12\n",
			},
			want:     "docker/Dockerfile",
			generate: true,
		},
		{
			name: "flag override without marker",
			files: map[string]string{
				"emsipi.yaml":       "server-file: server.py\npython-version: \"3.12\"\n",
				"deploy/Dockerfile": "FROM python:3.12\n",
			},
			args: []string{"--dockerfile", "deploy/Dockerfile"},
			want: "deploy/Dockerfile",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.files["requirements.txt"] = "mcp\n"
			dir := testutil.Project(t, tt.files)

			res, err := resolveIn(t, dir, nil, tt.args...)
			require.NoError(t, err)
			require.NotNil(t, res.Config, "issues: %v", res.Report.Issues)

			assert.Equal(t, tt.want, res.Config.Dockerfile)
			assert.Equal(t, tt.generate, res.Config.DoGenerateDockerfile)
			_, observed := res.Probes.Dockerfile(tt.want)
			assert.True(t, observed)
		})
	}
}

func TestResolveProject_FailureWithoutPrompter(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"requirements.txt": "mcp\n"})

	res, err := resolveIn(t, dir, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Config)
	assert.Contains(t, res.Report.Codes(), resolve.CodeMissingTarget)
}

func TestResolveProject_RunsWizard(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"package.json": "{}"})

	res, err := resolveIn(t, dir, wizardtest.NewPrompter("20"), "index.js")
	require.NoError(t, err)
	require.NotNil(t, res.Config, "issues: %v", res.Report.Issues)
	require.NotNil(t, res.Wizard)

	assert.Equal(t, "20", res.Config.NodeVersion)
	v, ok := res.Store.Get(raw.OriginWizard, "node-version")
	require.True(t, ok)
	assert.Equal(t, "20", v)
}

func TestResolveProject_WizardAbort(t *testing.T) {
	dir := testutil.Project(t, map[string]string{"package.json": "{}"})

	_, err := resolveIn(t, dir, wizardtest.NewPrompter(), "index.js")
	require.Error(t, err)
	var exitErr *oerrors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, oerrors.ExitAborted, exitErr.Code)
}

func TestResolveProject_FatalErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := resolveIn(t, filepath.Join(t.TempDir(), "missing"), nil)
		assert.Equal(t, oerrors.ExitNotFound, oerrors.ExitCodeFromError(err))
	})

	t.Run("invalid YAML", func(t *testing.T) {
		dir := testutil.Project(t, map[string]string{"emsipi.yaml": "server-file: [\n"})
		_, err := resolveIn(t, dir, nil)
		assert.Equal(t, oerrors.ExitValidationError, oerrors.ExitCodeFromError(err))
	})
}

func TestWriteResolved(t *testing.T) {
	dir := testutil.Project(t, map[string]string{
		"emsipi.yaml":  "server-file: index.js\nnode-version: 20\nenvironment-variables:\n  LOG_LEVEL: debug\n",
		"package.json": "{}",
	})
	res, err := resolveIn(t, dir, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Config, "issues: %v", res.Report.Issues)

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteResolved(&buf, res.Config, output.FormatYAML))
		assert.Contains(t, buf.String(), "server_file: index.js\n")
		assert.Contains(t, buf.String(), "node_version: \"20\"\n")
		assert.Contains(t, buf.String(), "environment_variables:\n  LOG_LEVEL: debug\n")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteResolved(&buf, res.Config, output.FormatJSON))
		var doc map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, "node", doc["runtime"])
		assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""))
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteResolved(&buf, res.Config, output.FormatTable))
		assert.Contains(t, buf.String(), "environment_variables.LOG_LEVEL")
		assert.Contains(t, buf.String(), "server_name")
	})
}

func TestWriteReport(t *testing.T) {
	report := &resolve.Report{Issues: []resolve.Issue{
		{Path: "server_target", Code: resolve.CodeMissingTarget, Message: "neither server_file nor server_command is set", Severity: resolve.SeverityError},
		{Path: "python_version", Code: resolve.CodeVersionDefaulted, Message: "defaulting python_version to 3.11", Severity: resolve.SeverityWarning},
	}}

	var table bytes.Buffer
	require.NoError(t, WriteReport(&table, report, output.FormatTable))
	assert.Contains(t, table.String(), "server_target")
	assert.Contains(t, table.String(), "defaulting python_version")

	var js bytes.Buffer
	require.NoError(t, WriteReport(&js, report, output.FormatJSON))
	assert.Contains(t, js.String(), `"code": "missing-target"`)

	var empty bytes.Buffer
	require.NoError(t, WriteReport(&empty, &resolve.Report{}, output.FormatTable))
	assert.Contains(t, empty.String(), "No issues")
	assert.NotContains(t, empty.String(), "SEVERITY")
}

func TestFlatten(t *testing.T) {
	rows := flatten(map[string]any{
		"b": 1,
		"a": map[string]any{"y": true, "x": "v"},
	}, "")
	assert.Equal(t, [][2]string{{"a.x", "v"}, {"a.y", "true"}, {"b", "1"}}, rows)
}

func TestReportFailure(t *testing.T) {
	report := &resolve.Report{Issues: []resolve.Issue{
		{Path: "server_target", Code: resolve.CodeMissingTarget, Message: "server_file or server_command is required", Severity: resolve.SeverityError},
	}}

	var buf bytes.Buffer
	err := ReportFailure(&buf, report)

	var exitErr *oerrors.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, oerrors.ExitValidationError, exitErr.Code)
	assert.True(t, exitErr.Printed)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Contains(t, buf.String(), "server_target")
}
