package resolve

import (
	"encoding/json"
	"maps"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var serverNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]{3,}$`)

// validate carries the struct rules a resolved configuration must satisfy.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("servername", func(fl validator.FieldLevel) bool {
		return serverNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidServerName reports whether name may be used as a server name.
func ValidServerName(name string) bool {
	return validate.Var(name, "required,servername") == nil
}

// GoogleSettings holds the resolved Google Cloud deployment settings.
type GoogleSettings struct {
	Project          string `json:"project" validate:"required"`
	Region           string `json:"region" validate:"required"`
	ArtifactRegistry string `json:"artifact_registry" validate:"required"`
	ServiceName      string `json:"service_name" validate:"required"`
}

// ResolvedConfiguration is the outcome of a successful resolution. It is
// only produced when every attribute was determined; treat it as read-only.
type ResolvedConfiguration struct {
	WorkingDirectory string `validate:"required"`
	ServerName       string `validate:"required,servername"`
	Target           ServerTarget
	CommandType      CommandType `validate:"oneof=python node shell"`

	RawRuntime Setting[Runtime]
	Runtime    Runtime `validate:"oneof=python node"`

	RawPythonDependenciesFile Setting[PythonDepsFile]
	PythonDependenciesFile    PythonDepsFile `validate:"required_if=Runtime python,excluded_unless=Runtime python"`
	RawPythonVersion          Setting[string]
	PythonVersion             string `validate:"required_if=Runtime python,excluded_unless=Runtime python"`

	NodeVersion string `validate:"required_if=Runtime node,excluded_unless=Runtime node"`
	RunNpmBuild bool

	Dockerfile           string `validate:"required"`
	DoGenerateDockerfile bool

	UVLockPresent              bool
	DepsInPyproject            bool
	RequirementsTxtPresent     bool
	PackageJSONPresent         bool
	AnyPythonConfigFilePresent bool

	Provider Provider        `validate:"omitempty,oneof=google"`
	Google   *GoogleSettings `validate:"required_if=Provider google"`

	environment map[string]string
}

// EnvironmentVariables returns a copy of the container environment.
func (c *ResolvedConfiguration) EnvironmentVariables() map[string]string {
	return maps.Clone(c.environment)
}

// ServerFile returns the server file path, if the target is a file.
func (c *ResolvedConfiguration) ServerFile() string {
	if c.Target.IsFile() {
		return c.Target.Path
	}
	return ""
}

// ServerCommand returns the server command, if the target is a command.
func (c *ResolvedConfiguration) ServerCommand() string {
	if c.Target.IsCommand() {
		return c.Target.Command
	}
	return ""
}

type resolvedJSON struct {
	WorkingDirectory           string            `json:"working_directory"`
	ServerName                 string            `json:"server_name"`
	ServerFile                 string            `json:"server_file,omitempty"`
	ServerCommand              string            `json:"server_command,omitempty"`
	CommandType                CommandType       `json:"command_type"`
	RawRuntime                 string            `json:"raw_runtime"`
	Runtime                    Runtime           `json:"runtime"`
	RawPythonDependenciesFile  string            `json:"raw_python_dependencies_file,omitempty"`
	PythonDependenciesFile     PythonDepsFile    `json:"python_dependencies_file,omitempty"`
	RawPythonVersion           string            `json:"raw_python_version,omitempty"`
	PythonVersion              string            `json:"python_version,omitempty"`
	NodeVersion                string            `json:"node_version,omitempty"`
	RunNpmBuild                *bool             `json:"run_npm_build,omitempty"`
	Dockerfile                 string            `json:"dockerfile"`
	DoGenerateDockerfile       bool              `json:"do_generate_dockerfile"`
	UVLockPresent              bool              `json:"uv_lock_present"`
	DepsInPyproject            bool              `json:"deps_in_pyproject"`
	RequirementsTxtPresent     bool              `json:"requirements_txt_present"`
	PackageJSONPresent         bool              `json:"package_json_present"`
	AnyPythonConfigFilePresent bool              `json:"any_python_config_file_present"`
	EnvironmentVariables       map[string]string `json:"environment_variables,omitempty"`
	Provider                   Provider          `json:"provider,omitempty"`
	Providers                  *providersJSON    `json:"providers,omitempty"`
}

type providersJSON struct {
	Google *GoogleSettings `json:"google,omitempty"`
}

// MarshalJSON renders the configuration with underscore attribute names.
func (c *ResolvedConfiguration) MarshalJSON() ([]byte, error) {
	out := resolvedJSON{
		WorkingDirectory:           c.WorkingDirectory,
		ServerName:                 c.ServerName,
		ServerFile:                 c.ServerFile(),
		ServerCommand:              c.ServerCommand(),
		CommandType:                c.CommandType,
		RawRuntime:                 c.RawRuntime.String(),
		Runtime:                    c.Runtime,
		RawPythonDependenciesFile:  c.RawPythonDependenciesFile.String(),
		PythonDependenciesFile:     c.PythonDependenciesFile,
		RawPythonVersion:           c.RawPythonVersion.String(),
		PythonVersion:              c.PythonVersion,
		NodeVersion:                c.NodeVersion,
		Dockerfile:                 c.Dockerfile,
		DoGenerateDockerfile:       c.DoGenerateDockerfile,
		UVLockPresent:              c.UVLockPresent,
		DepsInPyproject:            c.DepsInPyproject,
		RequirementsTxtPresent:     c.RequirementsTxtPresent,
		PackageJSONPresent:         c.PackageJSONPresent,
		AnyPythonConfigFilePresent: c.AnyPythonConfigFilePresent,
		EnvironmentVariables:       c.environment,
		Provider:                   c.Provider,
	}
	if c.Runtime == RuntimeNode {
		b := c.RunNpmBuild
		out.RunNpmBuild = &b
	}
	if c.Google != nil {
		out.Providers = &providersJSON{Google: c.Google}
	}
	return json.Marshal(out)
}
