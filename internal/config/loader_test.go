package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/emsipi/cli/internal/errors"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
	assert.NotNil(t, loader.v)
}

func TestLoaderLoad(t *testing.T) {
	t.Run("loads settings from file", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		content := `
verbose: true
timestamps: false
interactive: false
output: json
`
		require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

		cfg, err := NewLoader().Load(configFile)
		require.NoError(t, err)
		require.NotNil(t, cfg.Verbose)
		assert.True(t, *cfg.Verbose)
		require.NotNil(t, cfg.Timestamps)
		assert.False(t, *cfg.Timestamps)
		require.NotNil(t, cfg.Interactive)
		assert.False(t, *cfg.Interactive)
		assert.Equal(t, "json", cfg.Output)
	})

	t.Run("partial file leaves other settings unset", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("output: table\n"), 0o644))

		cfg, err := NewLoader().Load(configFile)
		require.NoError(t, err)
		assert.Nil(t, cfg.Verbose)
		assert.Nil(t, cfg.Timestamps)
		assert.Equal(t, "table", cfg.Output)
	})

	t.Run("returns empty config for missing file", func(t *testing.T) {
		cfg, err := NewLoader().Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.IsEmpty())
	})

	t.Run("invalid YAML is a validation error", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("output: [unclosed\n"), 0o644))

		_, err := NewLoader().Load(configFile)
		require.Error(t, err)
		assert.ErrorIs(t, err, oerrors.ErrValidation)
	})

	t.Run("environment does not leak into file values", func(t *testing.T) {
		t.Setenv("EMSIPI_OUTPUT", "json")
		cfg, err := NewLoader().Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		require.NoError(t, err)
		assert.Empty(t, cfg.Output)
	})
}
