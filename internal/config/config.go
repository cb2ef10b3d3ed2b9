// Package config loads the settings of the emsipi tool itself. Project
// configuration lives in internal/raw.
package config

// Config is the content of ~/.emsipi/config.yaml. Pointer fields are nil
// when the file does not set them.
type Config struct {
	// Verbose enables debug logging.
	// Env: EMSIPI_VERBOSE, Flag: --verbose
	Verbose *bool `mapstructure:"verbose" json:"verbose,omitempty"`

	// Timestamps controls whether log lines carry a timestamp.
	// Env: EMSIPI_TIMESTAMPS, Flag: --timestamps, Default: true
	Timestamps *bool `mapstructure:"timestamps" json:"timestamps,omitempty"`

	// Interactive allows the wizard to prompt when input is missing.
	// Env: EMSIPI_INTERACTIVE, Flag: --interactive, Default: true
	Interactive *bool `mapstructure:"interactive" json:"interactive,omitempty"`

	// Output is the default output format of resolve.
	// Env: EMSIPI_OUTPUT, Flag: --output, Default: yaml
	Output string `mapstructure:"output" json:"output,omitempty"`
}

// IsEmpty reports whether the file set nothing.
func (c *Config) IsEmpty() bool {
	return c == nil || (c.Verbose == nil && c.Timestamps == nil && c.Interactive == nil && c.Output == "")
}

// Defaults used when neither flag, environment nor config file set a value.
const (
	DefaultVerbose     = false
	DefaultTimestamps  = true
	DefaultInteractive = true
	DefaultOutput      = "yaml"
)
