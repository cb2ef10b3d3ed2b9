// Package cmdutil provides shared command utilities: flag groups that feed
// the CLI override layer, the project resolution preamble, the terminal
// prompter and output rendering.
package cmdutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/resolve"
)

// ProjectFlags selects the project directory.
type ProjectFlags struct {
	Directory string
}

// AddTo registers the project flags on the given cobra command.
func (f *ProjectFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Directory, "directory", "C", ".",
		"Project directory containing emsipi.yaml")
}

// ResolveDirectory returns the absolute project directory.
func (f *ProjectFlags) ResolveDirectory() (string, error) {
	dir := f.Directory
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project directory %s: %w", dir, err)
	}
	return abs, nil
}

// OverrideFlags holds the flags that override project file values. Only
// flags given on the command line reach the CLI override layer.
type OverrideFlags struct {
	ServerFile    string
	ServerCommand string
	Runtime       string
	PythonVersion string
	NodeVersion   string
	Dockerfile    string
	Provider      string
	Set           []string
}

// overrideKeys maps flag names to raw keys.
var overrideKeys = []struct {
	flag string
	key  string
}{
	{"server-file", "server-file"},
	{"server-command", "server-command"},
	{"runtime", "runtime"},
	{"python-version", "python-version"},
	{"node-version", "node-version"},
	{"dockerfile", "dockerfile"},
	{"provider", "provider"},
}

// AddTo registers the override flags on the given cobra command.
func (f *OverrideFlags) AddTo(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.ServerFile, "server-file", "", "Server entry file (.py or .js)")
	fl.StringVar(&f.ServerCommand, "server-command", "", "Command that starts the server")
	fl.StringVar(&f.Runtime, "runtime", "", "Runtime: auto, python or node")
	fl.StringVar(&f.PythonVersion, "python-version", "", "Python version, e.g. 3.12")
	fl.StringVar(&f.NodeVersion, "node-version", "", "Node.js major version, e.g. 20")
	fl.StringVar(&f.Dockerfile, "dockerfile", "", "Dockerfile path (default ./Dockerfile)")
	fl.StringVar(&f.Provider, "provider", "", "Deployment provider: google")
	fl.StringArrayVar(&f.Set, "set", nil, "Override any key, e.g. --set providers.google.region=europe-west1 (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("server-file", "server-command")
}

func (f *OverrideFlags) value(flag string) string {
	switch flag {
	case "server-file":
		return f.ServerFile
	case "server-command":
		return f.ServerCommand
	case "runtime":
		return f.Runtime
	case "python-version":
		return f.PythonVersion
	case "node-version":
		return f.NodeVersion
	case "dockerfile":
		return f.Dockerfile
	default:
		return f.Provider
	}
}

// Apply writes the given flags and the optional positional target into the
// CLI override layer of store.
func (f *OverrideFlags) Apply(cmd *cobra.Command, args []string, store *raw.Store) error {
	for _, o := range overrideKeys {
		if cmd.Flags().Changed(o.flag) {
			store.Set(raw.OriginCLI, o.key, f.value(o.flag))
		}
	}

	for _, kv := range f.Set {
		key, value, err := ParseSet(kv)
		if err != nil {
			return err
		}
		store.Set(raw.OriginCLI, key, value)
	}

	if len(args) > 0 {
		if cmd.Flags().Changed("server-file") || cmd.Flags().Changed("server-command") {
			return fmt.Errorf("the positional target %q cannot be combined with --server-file or --server-command", args[0])
		}
		ApplyTarget(store, args[0])
	}
	return nil
}

// ApplyTarget classifies target as a server file (.py or .js suffix) or a
// server command and records it in the CLI layer, removing the other key.
func ApplyTarget(store *raw.Store, target string) {
	if resolve.CommandTypeOf(resolve.FileTarget(target)) != "" {
		store.Set(raw.OriginCLI, "server-file", target)
		store.Unset(raw.OriginCLI, "server-command")
		return
	}
	store.Set(raw.OriginCLI, "server-command", target)
	store.Unset(raw.OriginCLI, "server-file")
}

// ParseSet splits a --set argument. Booleans and integers keep their type;
// everything else, including "3.12", stays a string.
func ParseSet(kv string) (string, any, error) {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid --set %q: expected key=value", kv)
	}
	key = raw.NormalizeKey(key)
	if value == "" {
		return key, "", nil
	}

	var decoded any
	if err := yaml.Unmarshal([]byte(value), &decoded); err != nil {
		return key, value, nil
	}
	switch decoded.(type) {
	case bool, int:
		return key, decoded, nil
	}
	return key, value, nil
}
