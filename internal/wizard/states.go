package wizard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/emsipi/cli/internal/probe"
	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/resolve"
)

// State is one question of the wizard.
type State string

// States in the order they are visited.
const (
	StateServerName      State = "server-name"
	StateTarget          State = "target"
	StateDockerfile      State = "dockerfile-choice"
	StateRuntime         State = "runtime"
	StatePythonDeps      State = "python-deps"
	StatePythonVersion   State = "python-version"
	StateNodeVersion     State = "node-version"
	StateNpmBuild        State = "npm-build"
	StateProviderProject State = "provider-project"
)

// States is the fixed visiting order.
var States = []State{
	StateServerName,
	StateTarget,
	StateDockerfile,
	StateRuntime,
	StatePythonDeps,
	StatePythonVersion,
	StateNodeVersion,
	StateNpmBuild,
	StateProviderProject,
}

// questionCodes maps the issue codes that mean "ask the user" to the state
// that asks. Every other error ends the wizard. A missing dependencies file
// is not a question: no answer can create the file.
var questionCodes = map[resolve.Code]State{
	resolve.CodeMissingServerName:      StateServerName,
	resolve.CodeMissingTarget:          StateTarget,
	resolve.CodeAmbiguousRuntime:       StateRuntime,
	resolve.CodeNoRuntimeDetected:      StateRuntime,
	resolve.CodeVersionUndetectable:    StatePythonVersion,
	resolve.CodeMissingNodeVersion:     StateNodeVersion,
	resolve.CodeMissingProviderProject: StateProviderProject,
}

var (
	pythonVersionAnswer = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)
	nodeVersionAnswer   = regexp.MustCompile(`^\d+$`)
)

// stateDef describes how a state asks, validates and records its answer.
type stateDef struct {
	attribute string
	text      string
	// applies limits a state in confirm mode. Nil means always.
	applies func(partial map[string]any) bool
	choices func(p *probe.ProbeSet) []string
	parse   func(answer string) (any, error)
	// check validates a parsed answer against the project root.
	check func(root, answer string) error
	apply func(store *raw.Store, value any)
}

var stateDefs = map[State]stateDef{
	StateServerName: {
		attribute: "server_name",
		text:      "Server name",
		parse: func(a string) (any, error) {
			if !resolve.ValidServerName(a) {
				return nil, fmt.Errorf("use at least 3 letters, digits or dashes")
			}
			return a, nil
		},
		apply: setter("server-name"),
	},
	StateTarget: {
		attribute: "server_target",
		text:      "Server file (.py or .js) or command",
		parse: func(a string) (any, error) {
			return a, nil
		},
		check: func(root, a string) error {
			if isServerFile(a) && !resolve.InsideRoot(root, a) {
				return fmt.Errorf("%s is outside the project directory", a)
			}
			return nil
		},
		apply: func(store *raw.Store, value any) {
			target := value.(string)
			if isServerFile(target) {
				store.Set(raw.OriginWizard, "server-file", target)
				store.Unset(raw.OriginWizard, "server-command")
				return
			}
			store.Set(raw.OriginWizard, "server-command", target)
			store.Unset(raw.OriginWizard, "server-file")
		},
	},
	StateDockerfile: {
		attribute: "dockerfile",
		text:      "Dockerfile path",
		parse: func(a string) (any, error) {
			return a, nil
		},
		check: func(root, a string) error {
			if !resolve.InsideRoot(root, a) {
				return fmt.Errorf("%s is outside the project directory", a)
			}
			return nil
		},
		apply: setter("dockerfile"),
	},
	StateRuntime: {
		attribute: "runtime",
		text:      "Runtime",
		applies: func(partial map[string]any) bool {
			return partial["command_type"] == string(resolve.CommandShell)
		},
		choices: func(*probe.ProbeSet) []string {
			return []string{string(resolve.RuntimePython), string(resolve.RuntimeNode)}
		},
		parse: func(a string) (any, error) {
			rt, ok := resolve.ParseRuntime(a)
			if !ok || rt.IsAuto() {
				return nil, fmt.Errorf("answer python or node")
			}
			return rt.String(), nil
		},
		apply: setter("runtime"),
	},
	StatePythonDeps: {
		attribute: "python_dependencies_file",
		text:      "Python dependencies file",
		applies:   runtimeIs(resolve.RuntimePython),
		choices:   presentDepsFiles,
		parse: func(a string) (any, error) {
			f, ok := resolve.ParsePythonDepsFile(a)
			if !ok || f.IsAuto() {
				return nil, fmt.Errorf("answer uv.lock, requirements.txt or pyproject.toml")
			}
			return f.String(), nil
		},
		apply: setter("python-dependencies-file"),
	},
	StatePythonVersion: {
		attribute: "python_version",
		text:      "Python version",
		applies:   runtimeIs(resolve.RuntimePython),
		parse: func(a string) (any, error) {
			if !pythonVersionAnswer.MatchString(a) {
				return nil, fmt.Errorf("use a version such as 3.12")
			}
			return a, nil
		},
		apply: setter("python-version"),
	},
	StateNodeVersion: {
		attribute: "node_version",
		text:      "Node.js major version",
		applies:   runtimeIs(resolve.RuntimeNode),
		parse: func(a string) (any, error) {
			if !nodeVersionAnswer.MatchString(a) {
				return nil, fmt.Errorf("use a major version such as 20")
			}
			return a, nil
		},
		apply: setter("node-version"),
	},
	StateNpmBuild: {
		attribute: "run_npm_build",
		text:      "Run npm run build during the image build? (y/n)",
		applies:   runtimeIs(resolve.RuntimeNode),
		parse:     parseYesNo,
		apply:     setter("run-npm-build"),
	},
	StateProviderProject: {
		attribute: "providers.google.project",
		text:      "Google Cloud project ID",
		applies: func(partial map[string]any) bool {
			return partial["provider"] == string(resolve.ProviderGoogle)
		},
		parse: func(a string) (any, error) {
			return a, nil
		},
		apply: setter("providers.google.project"),
	},
}

func setter(key string) func(*raw.Store, any) {
	return func(store *raw.Store, value any) {
		store.Set(raw.OriginWizard, key, value)
	}
}

func runtimeIs(rt resolve.Runtime) func(map[string]any) bool {
	return func(partial map[string]any) bool {
		return partial["runtime"] == string(rt)
	}
}

func isServerFile(target string) bool {
	return resolve.CommandTypeOf(resolve.FileTarget(target)) != ""
}

func presentDepsFiles(p *probe.ProbeSet) []string {
	var out []string
	if p.UVLockPresent {
		out = append(out, string(resolve.DepsUVLock))
	}
	if p.RequirementsTxtPresent {
		out = append(out, string(resolve.DepsRequirements))
	}
	if p.PyprojectPresent {
		out = append(out, string(resolve.DepsPyproject))
	}
	return out
}

func parseYesNo(a string) (any, error) {
	switch strings.ToLower(a) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	if b, err := strconv.ParseBool(a); err == nil {
		return b, nil
	}
	return nil, fmt.Errorf("answer y or n")
}

// formatDefault renders a partial value as an answer.
func formatDefault(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "y"
		}
		return "n"
	}
	return fmt.Sprint(v)
}
