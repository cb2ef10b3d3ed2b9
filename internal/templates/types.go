// Package templates renders the Dockerfile for a resolved configuration.
package templates

// DefaultPort is the port the generated image exposes.
const DefaultPort = 8080

// EnvVar is one ENV instruction.
type EnvVar struct {
	Name  string
	Value string
}

// Data holds the values passed to a Dockerfile template.
type Data struct {
	// Marker is the first line; it allows later regeneration.
	Marker string

	PythonVersion   string
	DependencyFiles []string
	InstallCommand  string

	NodeVersion string
	RunNpmBuild bool

	// Env is sorted by name.
	Env  []EnvVar
	Port int

	// Cmd is the exec-form CMD argument list, JSON encoded.
	Cmd string
}

// GenerateOptions configures Dockerfile generation.
type GenerateOptions struct {
	// Dir is the project directory the Dockerfile path is relative to.
	Dir string

	// Force writes the Dockerfile even when the configuration says it is
	// user-maintained.
	Force bool
}

// GenerateResult is the outcome of Generate.
type GenerateResult struct {
	// Path is the Dockerfile path as configured.
	Path string

	// Template is the template that was rendered.
	Template string

	// Written is false when an existing user-maintained Dockerfile was kept.
	Written bool

	Content []byte
}
