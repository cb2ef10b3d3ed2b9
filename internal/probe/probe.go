package probe

import (
	"context"
	"maps"
	"path/filepath"
)

// Well-known file names.
const (
	UVLock          = "uv.lock"
	RequirementsTxt = "requirements.txt"
	PyprojectTOML   = "pyproject.toml"
	PackageJSON     = "package.json"

	// DefaultDockerfile is used when no dockerfile is configured.
	DefaultDockerfile = "./Dockerfile"
)

// KeyFact is the outcome of reading one key from a TOML manifest.
type KeyFact struct {
	Value any
	Found bool
	Err   error
}

// String returns the value when it is a string.
func (k KeyFact) String() (string, bool) {
	s, ok := k.Value.(string)
	return s, ok && k.Found
}

// DockerfileFact describes a Dockerfile path.
type DockerfileFact struct {
	Exists    bool
	FirstLine string
}

// ProbeSet is an immutable snapshot of the working directory. It is captured
// once and reused for every resolution attempt in the same session.
type ProbeSet struct {
	WorkingDirectory string

	UVLockPresent          bool
	RequirementsTxtPresent bool
	PyprojectPresent       bool
	PackageJSONPresent     bool

	// DepsInPyproject is true when pyproject.toml declares a non-empty
	// [project].dependencies list.
	DepsInPyproject bool

	UVLockRequiresPython    KeyFact
	PyprojectRequiresPython KeyFact

	dockerfiles map[string]DockerfileFact
	files       FileAccess
}

// Capture probes the working directory through files. Dockerfile facts are
// captured for the default path and every extra path given.
func Capture(ctx context.Context, dir string, files FileAccess, dockerfiles ...string) (*ProbeSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := &ProbeSet{
		WorkingDirectory: dir,
		dockerfiles:      map[string]DockerfileFact{},
		files:            files,
	}

	p.UVLockPresent = files.Exists(UVLock)
	p.RequirementsTxtPresent = files.Exists(RequirementsTxt)
	p.PyprojectPresent = files.Exists(PyprojectTOML)
	p.PackageJSONPresent = files.Exists(PackageJSON)

	if p.UVLockPresent {
		p.UVLockRequiresPython = readKey(files, UVLock, "requires-python")
	}
	if p.PyprojectPresent {
		p.PyprojectRequiresPython = readKey(files, PyprojectTOML, "project", "requires-python")
		deps := readKey(files, PyprojectTOML, "project", "dependencies")
		if list, ok := deps.Value.([]any); ok && deps.Err == nil {
			p.DepsInPyproject = len(list) > 0
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.observe(append([]string{DefaultDockerfile}, dockerfiles...))
	return p, nil
}

func readKey(files FileAccess, path string, keyPath ...string) KeyFact {
	v, found, err := files.ReadKey(path, keyPath)
	return KeyFact{Value: v, Found: found, Err: err}
}

// AnyPythonConfigFilePresent reports whether any python dependency marker
// exists. A pyproject.toml without dependencies is not a marker.
func (p *ProbeSet) AnyPythonConfigFilePresent() bool {
	return p.UVLockPresent || p.RequirementsTxtPresent || p.DepsInPyproject
}

// Dockerfile returns the captured facts for a Dockerfile path. ok is false
// when the path was never observed.
func (p *ProbeSet) Dockerfile(path string) (fact DockerfileFact, ok bool) {
	fact, ok = p.dockerfiles[filepath.Clean(path)]
	return fact, ok
}

// WithDockerfiles returns a copy of p that also holds facts for paths. The
// receiver is not modified; paths already observed are not read again.
func (p *ProbeSet) WithDockerfiles(paths ...string) *ProbeSet {
	cp := *p
	cp.dockerfiles = maps.Clone(p.dockerfiles)
	cp.observe(paths)
	return &cp
}

// observe records facts for paths not yet captured. Only used while a
// ProbeSet is being built.
func (p *ProbeSet) observe(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		key := filepath.Clean(path)
		if _, ok := p.dockerfiles[key]; ok {
			continue
		}
		fact := DockerfileFact{}
		if p.files != nil && p.files.Exists(path) {
			fact.Exists = true
			fact.FirstLine, _ = p.files.FirstLine(path)
		}
		p.dockerfiles[key] = fact
	}
}
