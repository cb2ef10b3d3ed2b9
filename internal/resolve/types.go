package resolve

import (
	"path/filepath"
	"strings"
)

// TargetKind tags a ServerTarget.
type TargetKind int

const (
	// TargetFile is a server script inside the working directory.
	TargetFile TargetKind = iota + 1
	// TargetCommand is an arbitrary command line.
	TargetCommand
)

// ServerTarget is what the container runs: a file or a command, never both.
type ServerTarget struct {
	Kind    TargetKind
	Path    string
	Command string
}

// FileTarget returns a file target.
func FileTarget(path string) ServerTarget {
	return ServerTarget{Kind: TargetFile, Path: path}
}

// CommandTarget returns a command target.
func CommandTarget(command string) ServerTarget {
	return ServerTarget{Kind: TargetCommand, Command: command}
}

// IsFile reports whether the target is a file.
func (t ServerTarget) IsFile() bool { return t.Kind == TargetFile }

// IsCommand reports whether the target is a command.
func (t ServerTarget) IsCommand() bool { return t.Kind == TargetCommand }

// String renders the target as given by the user.
func (t ServerTarget) String() string {
	if t.IsFile() {
		return t.Path
	}
	return t.Command
}

// CommandType is how the server process is launched.
type CommandType string

const (
	CommandPython CommandType = "python"
	CommandNode   CommandType = "node"
	CommandShell  CommandType = "shell"
)

// CommandTypeOf derives the command type from a target.
func CommandTypeOf(t ServerTarget) CommandType {
	if t.IsCommand() {
		return CommandShell
	}
	switch strings.ToLower(filepath.Ext(t.Path)) {
	case ".py":
		return CommandPython
	case ".js":
		return CommandNode
	}
	return ""
}

// Runtime is the server execution environment family.
type Runtime string

const (
	RuntimePython Runtime = "python"
	RuntimeNode   Runtime = "node"
)

// ParseRuntime parses a raw runtime value.
func ParseRuntime(s string) (Setting[Runtime], bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case AutoValue:
		return Auto[Runtime](), true
	case string(RuntimePython):
		return Explicit(RuntimePython), true
	case string(RuntimeNode):
		return Explicit(RuntimeNode), true
	}
	return Unset[Runtime](), false
}

// Opposite returns the other runtime.
func (r Runtime) Opposite() Runtime {
	if r == RuntimePython {
		return RuntimeNode
	}
	return RuntimePython
}

// PythonDepsFile names the file python dependencies are installed from.
type PythonDepsFile string

const (
	DepsUVLock       PythonDepsFile = "uv.lock"
	DepsRequirements PythonDepsFile = "requirements.txt"
	DepsPyproject    PythonDepsFile = "pyproject.toml"
)

// PythonDepsFiles lists the supported files in priority order.
var PythonDepsFiles = []PythonDepsFile{DepsUVLock, DepsRequirements, DepsPyproject}

// ParsePythonDepsFile parses a raw dependency file value.
func ParsePythonDepsFile(s string) (Setting[PythonDepsFile], bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, AutoValue) {
		return Auto[PythonDepsFile](), true
	}
	for _, f := range PythonDepsFiles {
		if s == string(f) {
			return Explicit(f), true
		}
	}
	return Unset[PythonDepsFile](), false
}

// Provider names a deployment provider.
type Provider string

// ProviderGoogle is the only supported provider.
const ProviderGoogle Provider = "google"

// Google defaults.
const (
	DefaultGoogleRegion  = "us-central1"
	DefaultPythonVersion = "3.11"
)
