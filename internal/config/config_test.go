package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigIsEmpty(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		assert.True(t, cfg.IsEmpty())
	})

	t.Run("empty config", func(t *testing.T) {
		assert.True(t, (&Config{}).IsEmpty())
	})

	t.Run("non-empty config", func(t *testing.T) {
		no := false
		assert.False(t, (&Config{Timestamps: &no}).IsEmpty())
		assert.False(t, (&Config{Output: "json"}).IsEmpty())
	})
}
