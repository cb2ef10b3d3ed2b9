package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/google/shlex"

	"github.com/emsipi/cli/internal/resolve"
)

// Renderer renders Dockerfiles from resolved configurations.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates. Every registered template
// must be embedded.
func NewRenderer() (*Renderer, error) {
	parsed, err := parseAll()
	if err != nil {
		return nil, err
	}
	for _, t := range List() {
		if _, ok := parsed[t.Name]; !ok {
			return nil, fmt.Errorf("template %s is not embedded", t.Name)
		}
	}
	return &Renderer{templates: parsed}, nil
}

// Render returns the Dockerfile content for cfg and the template used.
func (r *Renderer) Render(cfg *resolve.ResolvedConfiguration) ([]byte, Template, error) {
	t, err := Get(cfg.Runtime)
	if err != nil {
		return nil, Template{}, err
	}
	tmpl, ok := r.templates[t.Name]
	if !ok {
		return nil, t, fmt.Errorf("template %s is not embedded", t.Name)
	}

	data, err := NewData(cfg)
	if err != nil {
		return nil, t, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, t, fmt.Errorf("executing template %s: %w", t.Name, err)
	}
	return buf.Bytes(), t, nil
}

// NewData derives the template data from a resolved configuration.
func NewData(cfg *resolve.ResolvedConfiguration) (Data, error) {
	args, err := commandArgs(cfg)
	if err != nil {
		return Data{}, err
	}
	cmd, err := json.Marshal(args)
	if err != nil {
		return Data{}, fmt.Errorf("encoding CMD: %w", err)
	}

	data := Data{
		Marker:      resolve.GenerationMarker,
		NodeVersion: cfg.NodeVersion,
		RunNpmBuild: cfg.RunNpmBuild,
		Port:        DefaultPort,
		Cmd:         string(cmd),
	}

	env := cfg.EnvironmentVariables()
	for name, value := range env {
		data.Env = append(data.Env, EnvVar{Name: name, Value: value})
	}
	sort.Slice(data.Env, func(i, j int) bool { return data.Env[i].Name < data.Env[j].Name })

	if cfg.Runtime == resolve.RuntimePython {
		data.PythonVersion = cfg.PythonVersion
		data.DependencyFiles = dependencyFiles(cfg)
		data.InstallCommand = installCommand(cfg.PythonDependenciesFile)
	}
	return data, nil
}

// dependencyFiles lists the python manifests copied before installing.
func dependencyFiles(cfg *resolve.ResolvedConfiguration) []string {
	var files []string
	if cfg.UVLockPresent {
		files = append(files, string(resolve.DepsUVLock))
	}
	if cfg.DepsInPyproject {
		files = append(files, string(resolve.DepsPyproject))
	}
	if cfg.RequirementsTxtPresent {
		files = append(files, string(resolve.DepsRequirements))
	}
	return files
}

func installCommand(f resolve.PythonDepsFile) string {
	switch f {
	case resolve.DepsUVLock:
		return "uv sync --frozen"
	case resolve.DepsRequirements:
		return "uv pip install --system -r requirements.txt"
	default:
		return "uv sync"
	}
}

// commandArgs builds the exec-form command that starts the server.
func commandArgs(cfg *resolve.ResolvedConfiguration) ([]string, error) {
	if cfg.Target.IsCommand() {
		args, err := shlex.Split(cfg.Target.Command)
		if err != nil {
			return nil, fmt.Errorf("splitting server command %q: %w", cfg.Target.Command, err)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("server command is empty")
		}
		return args, nil
	}

	path := cfg.Target.Path
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(cfg.WorkingDirectory, path)
		if err != nil {
			return nil, fmt.Errorf("server file %s: %w", path, err)
		}
		path = rel
	}
	path = filepath.ToSlash(filepath.Clean(path))

	if cfg.Runtime == resolve.RuntimeNode {
		return []string{"node", path}, nil
	}
	return []string{"uv", "run", path}, nil
}
