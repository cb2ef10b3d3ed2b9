package cmdutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsipi/cli/internal/raw"
)

func parse(t *testing.T, args ...string) (*cobra.Command, *OverrideFlags, []string) {
	t.Helper()
	var f OverrideFlags
	cmd := &cobra.Command{Use: "test"}
	f.AddTo(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, &f, cmd.Flags().Args()
}

func TestOverrideFlags_AddTo(t *testing.T) {
	cmd, _, _ := parse(t)
	for _, name := range []string{
		"server-file", "server-command", "runtime", "python-version",
		"node-version", "dockerfile", "provider",
	} {
		fl := cmd.Flags().Lookup(name)
		require.NotNil(t, fl, name)
		assert.Equal(t, "", fl.DefValue, name)
	}
	set := cmd.Flags().Lookup("set")
	require.NotNil(t, set)
	assert.Equal(t, "stringArray", set.Value.Type())
}

func TestOverrideFlags_ApplyOnlyChanged(t *testing.T) {
	cmd, f, args := parse(t, "--runtime", "node", "--node-version", "20")
	store := raw.NewStore()
	require.NoError(t, f.Apply(cmd, args, store))

	assert.Equal(t, map[string]any{"runtime": "node", "node-version": "20"}, store.Layer(raw.OriginCLI))
}

func TestOverrideFlags_Set(t *testing.T) {
	cmd, f, args := parse(t,
		"--set", "providers.google.region=europe-west1",
		"--set", "run_npm_build=true",
		"--set", "environment-variables.API_KEY=abc",
		"--set", "python-version=3.12",
	)
	store := raw.NewStore()
	require.NoError(t, f.Apply(cmd, args, store))

	v, ok := store.Get(raw.OriginCLI, "providers.google.region")
	require.True(t, ok)
	assert.Equal(t, "europe-west1", v)

	v, ok = store.Get(raw.OriginCLI, "run-npm-build")
	require.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = store.Get(raw.OriginCLI, "environment-variables.API_KEY")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = store.Get(raw.OriginCLI, "python-version")
	require.True(t, ok)
	assert.Equal(t, "3.12", v)
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		in      string
		key     string
		value   any
		wantErr bool
	}{
		{in: "node-version=20", key: "node-version", value: 20},
		{in: "server_name=weather", key: "server-name", value: "weather"},
		{in: "run-npm-build=false", key: "run-npm-build", value: false},
		{in: "server-command=uv run server.py --port 8080", key: "server-command", value: "uv run server.py --port 8080"},
		{in: "dockerfile=", key: "dockerfile", value: ""},
		{in: "python-version=3.10", key: "python-version", value: "3.10"},
		{in: "runtime", wantErr: true},
		{in: "=python", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, value, err := ParseSet(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestOverrideFlags_PositionalTarget(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		cmd, f, args := parse(t, "server.py")
		store := raw.NewStore()
		require.NoError(t, f.Apply(cmd, args, store))

		v, _ := store.Get(raw.OriginCLI, "server-file")
		assert.Equal(t, "server.py", v)
		v, _ = store.Get(raw.OriginCLI, "server-command")
		assert.True(t, raw.IsTombstone(v))
	})

	t.Run("command", func(t *testing.T) {
		cmd, f, args := parse(t, "npx weather")
		store := raw.NewStore()
		require.NoError(t, f.Apply(cmd, args, store))

		v, _ := store.Get(raw.OriginCLI, "server-command")
		assert.Equal(t, "npx weather", v)
		v, _ = store.Get(raw.OriginCLI, "server-file")
		assert.True(t, raw.IsTombstone(v))
	})

	t.Run("combined with flag", func(t *testing.T) {
		cmd, f, args := parse(t, "--server-file", "a.py", "b.py")
		assert.Error(t, f.Apply(cmd, args, raw.NewStore()))
	})
}

func TestProjectFlags(t *testing.T) {
	var f ProjectFlags
	cmd := &cobra.Command{Use: "test"}
	f.AddTo(cmd)

	fl := cmd.Flags().Lookup("directory")
	require.NotNil(t, fl)
	assert.Equal(t, "C", fl.Shorthand)
	assert.Equal(t, ".", fl.DefValue)

	f.Directory = "/work/weather-server/../weather-server"
	dir, err := f.ResolveDirectory()
	require.NoError(t, err)
	assert.Equal(t, "/work/weather-server", dir)
}
