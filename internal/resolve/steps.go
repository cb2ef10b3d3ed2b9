package resolve

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emsipi/cli/internal/probe"
)

var (
	pythonVersionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)
	nodeVersionPattern   = regexp.MustCompile(`^\d+$`)
	envNamePattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	invalidNameChars     = regexp.MustCompile(`[^a-z0-9-]+`)
)

// Canonical raw keys.
const (
	keyServerName       = "server-name"
	keyServerFile       = "server-file"
	keyServerCommand    = "server-command"
	keyRuntime          = "runtime"
	keyPythonDeps       = "python-dependencies-file"
	keyPythonVersion    = "python-version"
	keyNodeVersion      = "node-version"
	keyRunNpmBuild      = "run-npm-build"
	keyDockerfile       = "dockerfile"
	keyEnvironment      = "environment-variables"
	keyProvider         = "provider"
	keyGoogleProject    = "providers.google.project"
	keyGoogleRegion     = "providers.google.region"
	keyGoogleRegistry   = "providers.google.artifact-registry"
	keyGoogleService    = "providers.google.service-name"
	pathServerTarget    = "server_target"
	pathCommandType     = "command_type"
	pathDoGenDockerfile = "do_generate_dockerfile"
)

func (p *pass) checkSchema() status {
	conflicted := map[string]bool{}
	for _, c := range p.conflicts {
		p.report.errorf(attr(c.Path), CodeTypeMismatch,
			"%s is a %s in one file and a %s in another", attr(c.Path), describeType(c.Base), describeType(c.Override))
		p.flagged[c.Path] = true
		conflicted[c.Path] = true
	}
	for _, issue := range p.schema.Check(p.values) {
		if conflicted[issue.Key] {
			continue
		}
		p.report.errorf(attr(issue.Key), issue.Code, "%s", issue.Message)
		p.flagged[issue.Key] = true
	}
	return statusOK
}

func (p *pass) resolveServerName() status {
	name, set, failed := p.str(keyServerName)
	switch {
	case failed:
		return statusFailed
	case set:
		if !ValidServerName(name) {
			p.report.errorf("server_name", CodeInvalidServerName,
				"server name %q must be at least 3 characters of letters, digits and dashes", name)
			return statusFailed
		}
	default:
		name = DeriveServerName(p.probes.WorkingDirectory)
		if !ValidServerName(name) {
			p.report.errorf("server_name", CodeMissingServerName,
				"server name is not set and cannot be derived from the working directory")
			return statusFailed
		}
	}
	p.cfg.ServerName = name
	p.report.Partial["server_name"] = name
	return statusOK
}

// DeriveServerName builds a default server name from a directory path.
func DeriveServerName(dir string) string {
	base := strings.ToLower(filepath.Base(filepath.Clean(dir)))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.Trim(invalidNameChars.ReplaceAllString(base, "-"), "-")
}

func (p *pass) resolveTarget() status {
	file, fileSet, fileFailed := p.str(keyServerFile)
	command, commandSet, commandFailed := p.str(keyServerCommand)
	if fileFailed || commandFailed {
		return statusFailed
	}

	fileBlank := fileSet && strings.TrimSpace(file) == ""
	commandBlank := commandSet && strings.TrimSpace(command) == ""

	switch {
	case fileSet && commandSet && !fileBlank && !commandBlank:
		p.report.errorf(pathServerTarget, CodeMutuallyExclusive,
			"server_file (%s) and server_command (%s) are mutually exclusive; set only one", file, command)
		return statusFailed
	case fileSet && !fileBlank:
		return p.resolveFileTarget(file)
	case commandSet && !commandBlank:
		p.cfg.Target = CommandTarget(command)
		p.report.Partial["server_command"] = command
		return statusOK
	case fileBlank:
		p.report.errorf("server_file", CodeInvalidValue, "server_file must not be empty")
		return statusFailed
	case commandBlank:
		p.report.errorf("server_command", CodeInvalidValue, "server_command must not be empty")
		return statusFailed
	default:
		p.report.errorf(pathServerTarget, CodeMissingTarget,
			"neither server_file nor server_command is set; one of them is required")
		return statusFailed
	}
}

func (p *pass) resolveFileTarget(file string) status {
	st := statusOK
	if !InsideRoot(p.probes.WorkingDirectory, file) {
		p.report.errorf("server_file", CodePathEscapesRoot,
			"server file %s is outside the working directory", file)
		st = statusFailed
	}
	if CommandTypeOf(FileTarget(file)) == "" {
		p.report.errorf("server_file", CodeUnsupportedExtension,
			"server file %s must end in .py or .js", file)
		st = statusFailed
	}
	if st == statusOK {
		p.cfg.Target = FileTarget(file)
		p.report.Partial["server_file"] = file
	}
	return st
}

// InsideRoot reports whether path, relative to root unless absolute, stays
// inside root.
func InsideRoot(root, path string) bool {
	abs := path
	if !filepath.IsAbs(path) {
		abs = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(abs))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (p *pass) deriveCommandType() status {
	p.cfg.CommandType = CommandTypeOf(p.cfg.Target)
	p.report.Partial[pathCommandType] = string(p.cfg.CommandType)
	return statusOK
}

func (p *pass) readProbes() status {
	p.cfg.UVLockPresent = p.probes.UVLockPresent
	p.cfg.DepsInPyproject = p.probes.DepsInPyproject
	p.cfg.RequirementsTxtPresent = p.probes.RequirementsTxtPresent
	p.cfg.PackageJSONPresent = p.probes.PackageJSONPresent
	p.cfg.AnyPythonConfigFilePresent = p.probes.AnyPythonConfigFilePresent()
	return statusOK
}

func (p *pass) resolveRuntime() status {
	value, set, failed := p.str(keyRuntime)
	if failed {
		return statusFailed
	}

	var setting Setting[Runtime]
	switch {
	case set:
		parsed, ok := ParseRuntime(value)
		if !ok {
			p.report.errorf("runtime", CodeInvalidValue, "runtime %q must be one of auto, python, node", value)
			return statusFailed
		}
		setting = parsed
	case !p.ok("command-type"):
		return statusSkipped
	default:
		switch p.cfg.CommandType {
		case CommandPython:
			setting = Explicit(RuntimePython)
		case CommandNode:
			setting = Explicit(RuntimeNode)
		default:
			setting = Auto[Runtime]()
		}
	}
	p.cfg.RawRuntime = setting
	p.report.Partial["raw_runtime"] = setting.String()

	if rt, ok := setting.Value(); ok {
		p.cfg.Runtime = rt
		p.report.Partial["runtime"] = string(rt)
		return statusOK
	}

	pythonMarkers := p.probes.AnyPythonConfigFilePresent()
	nodeMarkers := p.probes.PackageJSONPresent
	switch {
	case pythonMarkers && nodeMarkers:
		p.report.errorf("runtime", CodeAmbiguousRuntime,
			"both python files and package.json are present; set runtime to python or node")
		return statusFailed
	case pythonMarkers:
		p.cfg.Runtime = RuntimePython
	case nodeMarkers:
		p.cfg.Runtime = RuntimeNode
	default:
		p.report.errorf("runtime", CodeNoRuntimeDetected,
			"no uv.lock, requirements.txt, pyproject.toml or package.json found; set runtime to python or node")
		return statusFailed
	}
	p.report.Partial["runtime"] = string(p.cfg.Runtime)
	return statusOK
}

// runtimeOnly lists the attributes that belong to a single runtime.
var runtimeOnly = map[Runtime][]string{
	RuntimePython: {keyPythonDeps, keyPythonVersion},
	RuntimeNode:   {keyNodeVersion, keyRunNpmBuild},
}

func (p *pass) checkCrossRuntime() status {
	st := statusOK
	for _, key := range runtimeOnly[p.cfg.Runtime.Opposite()] {
		v, present, _ := p.lookup(key)
		if !present {
			continue
		}
		if s, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(s), AutoValue) {
			continue
		}
		p.report.errorf(attr(key), CodeCrossRuntimeAttribute,
			"%s only applies to the %s runtime, but runtime is %s", attr(key), p.cfg.Runtime.Opposite(), p.cfg.Runtime)
		st = statusFailed
	}
	return st
}

func (p *pass) resolvePythonDeps() status {
	if p.cfg.Runtime != RuntimePython {
		return statusSkipped
	}
	value, set, failed := p.str(keyPythonDeps)
	if failed {
		return statusFailed
	}

	setting := Unset[PythonDepsFile]()
	if set {
		parsed, ok := ParsePythonDepsFile(value)
		if !ok {
			p.report.errorf("python_dependencies_file", CodeInvalidValue,
				"python_dependencies_file %q must be one of auto, uv.lock, requirements.txt, pyproject.toml", value)
			return statusFailed
		}
		setting = parsed
	}
	p.cfg.RawPythonDependenciesFile = setting

	if f, ok := setting.Value(); ok {
		if !p.depsFilePresent(f) {
			p.report.errorf("python_dependencies_file", CodeInvalidValue,
				"python_dependencies_file is %s but the file does not exist in the working directory", f)
			return statusFailed
		}
		p.cfg.PythonDependenciesFile = f
		p.report.Partial["python_dependencies_file"] = string(f)
		return statusOK
	}

	switch {
	case p.probes.UVLockPresent:
		p.cfg.PythonDependenciesFile = DepsUVLock
		if p.probes.RequirementsTxtPresent {
			p.report.warnf("python_dependencies_file", CodeIgnoredFile,
				"both uv.lock and requirements.txt are present; using uv.lock and ignoring requirements.txt")
		}
	case p.probes.RequirementsTxtPresent:
		p.cfg.PythonDependenciesFile = DepsRequirements
		if p.probes.DepsInPyproject {
			p.report.warnf("python_dependencies_file", CodeIgnoredFile,
				"both requirements.txt and pyproject.toml dependencies are present; using requirements.txt and ignoring pyproject.toml")
		}
	case p.probes.DepsInPyproject:
		p.cfg.PythonDependenciesFile = DepsPyproject
	default:
		p.report.errorf("python_dependencies_file", CodeMissingPythonDeps,
			"no uv.lock, requirements.txt or pyproject.toml with dependencies found")
		return statusFailed
	}
	p.report.Partial["python_dependencies_file"] = string(p.cfg.PythonDependenciesFile)
	return statusOK
}

func (p *pass) depsFilePresent(f PythonDepsFile) bool {
	switch f {
	case DepsUVLock:
		return p.probes.UVLockPresent
	case DepsRequirements:
		return p.probes.RequirementsTxtPresent
	default:
		return p.probes.PyprojectPresent
	}
}

func (p *pass) resolvePythonVersion() status {
	value, set, failed := p.str(keyPythonVersion)
	if failed {
		return statusFailed
	}

	setting := Unset[string]()
	if set {
		value = strings.TrimSpace(value)
		switch {
		case strings.EqualFold(value, AutoValue):
			setting = Auto[string]()
		case pythonVersionPattern.MatchString(value):
			setting = Explicit(value)
		default:
			p.report.errorf("python_version", CodeInvalidValue,
				"python_version %q must look like 3.12 or 3.12.1", value)
			return statusFailed
		}
	}
	p.cfg.RawPythonVersion = setting

	if v, ok := setting.Value(); ok {
		p.cfg.PythonVersion = v
		p.report.Partial["python_version"] = v
		return statusOK
	}

	var fact probe.KeyFact
	var key string
	switch p.cfg.PythonDependenciesFile {
	case DepsRequirements:
		p.report.errorf("python_version", CodeVersionUndetectable,
			"python version cannot be read from requirements.txt; set python_version explicitly")
		return statusFailed
	case DepsUVLock:
		fact, key = p.probes.UVLockRequiresPython, "requires-python"
	default:
		fact, key = p.probes.PyprojectRequiresPython, "project.requires-python"
	}
	file := string(p.cfg.PythonDependenciesFile)

	switch {
	case fact.Err != nil:
		p.report.errorf("python_version", CodeUnreadableFile, "cannot read %s: %v", file, fact.Err)
		return statusFailed
	case !fact.Found:
		p.cfg.PythonVersion = DefaultPythonVersion
		p.report.warnf("python_version", CodeVersionDefaulted,
			"%s has no %s key; defaulting python_version to %s", file, key, DefaultPythonVersion)
	default:
		constraint, ok := fact.Value.(string)
		if !ok {
			p.report.errorf("python_version", CodeInvalidVersionConstraint,
				"%s in %s must be a string, got %s", key, file, describeType(fact.Value))
			return statusFailed
		}
		version, err := probe.FirstSatisfyingPython(constraint)
		if err != nil {
			p.report.errorf("python_version", CodeInvalidVersionConstraint,
				"%s %q in %s: %v", key, constraint, file, err)
			return statusFailed
		}
		p.cfg.PythonVersion = version
	}
	p.report.Partial["python_version"] = p.cfg.PythonVersion
	return statusOK
}

func (p *pass) resolveNode() status {
	if p.cfg.Runtime != RuntimeNode {
		return statusSkipped
	}
	st := statusOK

	v, present, flagged := p.lookup(keyNodeVersion)
	version := ""
	switch val := v.(type) {
	case int:
		version = strconv.Itoa(val)
	case string:
		version = strings.TrimSpace(val)
	}
	switch {
	case flagged:
		st = statusFailed
	case !present || version == "" || strings.EqualFold(version, AutoValue):
		p.report.errorf("node_version", CodeMissingNodeVersion,
			"node_version is required for the node runtime (for example 20)")
		st = statusFailed
	case !nodeVersionPattern.MatchString(version):
		p.report.errorf("node_version", CodeInvalidValue,
			"node_version %q must be a major version number such as 20", version)
		st = statusFailed
	default:
		p.cfg.NodeVersion = version
		p.report.Partial["node_version"] = version
	}

	b, present, flagged := p.lookup(keyRunNpmBuild)
	switch {
	case flagged:
		st = statusFailed
	case present:
		p.cfg.RunNpmBuild, _ = b.(bool)
	}
	p.report.Partial["run_npm_build"] = p.cfg.RunNpmBuild
	return st
}

func (p *pass) resolveDockerfile() status {
	path, set, failed := p.str(keyDockerfile)
	if failed {
		return statusFailed
	}
	if !set {
		path = probe.DefaultDockerfile
	}
	if strings.TrimSpace(path) == "" {
		p.report.errorf("dockerfile", CodeInvalidValue, "dockerfile must not be empty")
		return statusFailed
	}
	if !InsideRoot(p.probes.WorkingDirectory, path) {
		p.report.errorf("dockerfile", CodePathEscapesRoot,
			"dockerfile %s is outside the working directory", path)
		return statusFailed
	}

	fact, ok := p.probes.Dockerfile(path)
	if !ok {
		p.report.errorf("dockerfile", CodeInternalInconsistency,
			"dockerfile %s was not inspected before resolution", path)
		return statusFailed
	}
	p.cfg.Dockerfile = path
	p.cfg.DoGenerateDockerfile = !fact.Exists || strings.Contains(fact.FirstLine, GenerationMarker)
	p.report.Partial["dockerfile"] = path
	p.report.Partial[pathDoGenDockerfile] = p.cfg.DoGenerateDockerfile
	return statusOK
}

func (p *pass) resolveEnvironment() status {
	v, present, flagged := p.lookup(keyEnvironment)
	if !present {
		return statusOK
	}
	if flagged {
		return statusFailed
	}
	vars, _ := v.(map[string]any)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	st := statusOK
	for _, name := range names {
		key := keyEnvironment + "." + name
		if p.flagged[key] {
			st = statusFailed
			continue
		}
		if !envNamePattern.MatchString(name) {
			p.report.errorf(attr(key), CodeInvalidValue,
				"environment variable name %q must match [A-Za-z_][A-Za-z0-9_]*", name)
			st = statusFailed
			continue
		}
		p.env[name] = scalarString(vars[name])
	}
	return st
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func (p *pass) resolveProvider() status {
	name, set, failed := p.str(keyProvider)
	switch {
	case failed:
		return statusFailed
	case !set:
		return statusOK
	case Provider(name) != ProviderGoogle:
		p.report.errorf("provider", CodeUnsupportedProvider, "provider %q is not supported; use google", name)
		return statusFailed
	}
	p.cfg.Provider = ProviderGoogle
	p.report.Partial["provider"] = name

	st := statusOK
	google := &GoogleSettings{}

	project, ok, failed := p.str(keyGoogleProject)
	switch {
	case failed:
		st = statusFailed
	case !ok || strings.TrimSpace(project) == "":
		p.report.errorf(attr(keyGoogleProject), CodeMissingProviderProject,
			"providers.google.project is required when provider is google")
		st = statusFailed
	default:
		google.Project = project
		p.report.Partial[attr(keyGoogleProject)] = project
	}

	defaults := []struct {
		key    string
		target *string
		def    func() (string, bool)
	}{
		{keyGoogleRegion, &google.Region, func() (string, bool) { return DefaultGoogleRegion, true }},
		{keyGoogleRegistry, &google.ArtifactRegistry, p.derivedName("-repo")},
		{keyGoogleService, &google.ServiceName, p.derivedName("-service")},
	}
	for _, d := range defaults {
		value, ok, failed := p.str(d.key)
		switch {
		case failed:
			st = statusFailed
			continue
		case !ok:
			if value, ok = d.def(); !ok {
				if st == statusOK {
					st = statusSkipped
				}
				continue
			}
		}
		*d.target = value
		p.report.Partial[attr(d.key)] = value
	}

	if st == statusOK {
		p.cfg.Google = google
	}
	return st
}

// derivedName returns a default built from the server name. It is not
// available when the server name step did not succeed.
func (p *pass) derivedName(suffix string) func() (string, bool) {
	return func() (string, bool) {
		if !p.ok("server-name") {
			return "", false
		}
		return p.cfg.ServerName + suffix, true
	}
}
