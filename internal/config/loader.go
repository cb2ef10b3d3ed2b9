package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	oerrors "github.com/emsipi/cli/internal/errors"
)

// Environment variable prefix for tool settings.
const envPrefix = "EMSIPI"

// Loader reads the settings file.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new settings loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load reads the settings file at configFile, or the default path when
// configFile is empty. A missing file yields an empty Config. Environment
// variables are applied later by ResolveSettings so their source can be
// reported.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, &oerrors.DetailError{
				Type:     "validation failed",
				Message:  "cannot read settings file",
				Location: expandedPath,
				Hint:     "Fix the YAML syntax or remove the file.",
				Cause:    errors.Join(oerrors.ErrValidation, err),
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "invalid settings file",
			Location: expandedPath,
			Cause:    errors.Join(oerrors.ErrValidation, err),
		}
	}
	return &cfg, nil
}
