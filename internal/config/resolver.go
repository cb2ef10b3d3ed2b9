package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/output"
)

// ConfigSource indicates where a setting came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue records how one setting was resolved.
type ResolvedValue struct {
	Key    string
	Value  any
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]any
}

// FlagValues holds the command-line flags that map to settings. A nil
// pointer or empty string means the flag was not given.
type FlagValues struct {
	Verbose     *bool
	Timestamps  *bool
	Interactive *bool
	Output      string
}

// Settings are the effective tool settings.
type Settings struct {
	Verbose     bool
	Timestamps  bool
	Interactive bool
	Output      output.OutputFormat

	// Values lists every setting with its source, in a stable order.
	Values []ResolvedValue
}

type candidate struct {
	source ConfigSource
	value  any
	set    bool
}

// pick applies flag > env > config > default.
func pick(key string, candidates ...candidate) ResolvedValue {
	rv := ResolvedValue{Key: key, Shadowed: map[ConfigSource]any{}}
	for _, c := range candidates {
		if !c.set {
			continue
		}
		if rv.Source == "" {
			rv.Value, rv.Source = c.value, c.source
			continue
		}
		rv.Shadowed[c.source] = c.value
	}
	return rv
}

// ResolveSettings resolves every setting using precedence: (1) flag,
// (2) EMSIPI_* environment variable, (3) settings file, (4) default.
func ResolveSettings(cfg *Config, flags FlagValues) (*Settings, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Settings{}

	bools := []struct {
		key    string
		flag   *bool
		config *bool
		def    bool
		target *bool
	}{
		{"verbose", flags.Verbose, cfg.Verbose, DefaultVerbose, &s.Verbose},
		{"timestamps", flags.Timestamps, cfg.Timestamps, DefaultTimestamps, &s.Timestamps},
		{"interactive", flags.Interactive, cfg.Interactive, DefaultInteractive, &s.Interactive},
	}
	for _, b := range bools {
		env, envSet, err := envBool(b.key)
		if err != nil {
			return nil, err
		}
		rv := pick(b.key,
			boolCandidate(SourceFlag, b.flag),
			candidate{SourceEnv, env, envSet},
			boolCandidate(SourceConfig, b.config),
			candidate{SourceDefault, b.def, true},
		)
		*b.target = rv.Value.(bool)
		s.Values = append(s.Values, rv)
	}

	envOutput, envSet := os.LookupEnv(envName("output"))
	rv := pick("output",
		candidate{SourceFlag, flags.Output, flags.Output != ""},
		candidate{SourceEnv, envOutput, envSet && envOutput != ""},
		candidate{SourceConfig, cfg.Output, cfg.Output != ""},
		candidate{SourceDefault, DefaultOutput, true},
	)
	format, ok := output.ParseOutputFormat(rv.Value.(string))
	if !ok {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid output format %q (from %s)", rv.Value, rv.Source),
			"", "output", fmt.Sprintf("Use one of: %v.", output.ValidFormats()))
	}
	s.Output = format
	s.Values = append(s.Values, rv)

	return s, nil
}

func boolCandidate(source ConfigSource, v *bool) candidate {
	if v == nil {
		return candidate{source: source}
	}
	return candidate{source, *v, true}
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

func envBool(key string) (value, set bool, err error) {
	name := envName(key)
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, oerrors.NewValidationError(
			fmt.Sprintf("%s=%q is not a boolean", name, raw), "", key, "Use true or false.")
	}
	return v, true, nil
}

// ResolveConfigPathOptions contains options for settings path resolution.
type ResolveConfigPathOptions struct {
	// FlagValue is the --config flag value (empty if not set).
	FlagValue string
}

// ResolveConfigPathResult contains the resolved settings path and its source.
type ResolveConfigPathResult struct {
	ConfigPath string
	Source     ConfigSource
	Shadowed   map[ConfigSource]string
}

// ResolveConfigPath resolves the settings file path using precedence:
// (1) --config flag, (2) EMSIPI_CONFIG env, (3) ~/.emsipi/config.yaml.
func ResolveConfigPath(opts ResolveConfigPathOptions) (ResolveConfigPathResult, error) {
	result := ResolveConfigPathResult{
		Shadowed: make(map[ConfigSource]string),
	}

	envValue := os.Getenv(envName("config"))

	paths, err := DefaultPaths()
	if err != nil {
		return result, err
	}
	defaultPath := paths.ConfigFile

	switch {
	case opts.FlagValue != "":
		result.ConfigPath = opts.FlagValue
		result.Source = SourceFlag
		if envValue != "" {
			result.Shadowed[SourceEnv] = envValue
		}
		result.Shadowed[SourceDefault] = defaultPath
	case envValue != "":
		result.ConfigPath = envValue
		result.Source = SourceEnv
		result.Shadowed[SourceDefault] = defaultPath
	default:
		result.ConfigPath = defaultPath
		result.Source = SourceDefault
	}
	return result, nil
}

// LogResolvedValues logs each setting's resolution at debug level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("setting resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
