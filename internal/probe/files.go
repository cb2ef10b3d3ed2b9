// Package probe captures the environment facts the resolver infers from:
// which dependency manifests exist in the working directory, what they
// declare, and the state of the Dockerfile.
package probe

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileAccess is the read-only view of the working directory used to build a
// ProbeSet. Paths are relative to the working directory unless absolute.
type FileAccess interface {
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// ReadKey parses the TOML file at path and returns the value at keyPath.
	// found is false when the file parses but the key is absent.
	ReadKey(path string, keyPath []string) (value any, found bool, err error)
	// FirstLine returns the first line of the file at path.
	FirstLine(path string) (line string, ok bool)
}

// OSFileAccess reads files from disk below Root.
type OSFileAccess struct {
	Root string
}

// NewOSFileAccess creates a FileAccess rooted at dir.
func NewOSFileAccess(dir string) *OSFileAccess {
	return &OSFileAccess{Root: dir}
}

func (f *OSFileAccess) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.Root, p)
}

// Exists implements FileAccess.
func (f *OSFileAccess) Exists(path string) bool {
	info, err := os.Stat(f.path(path))
	return err == nil && info.Mode().IsRegular()
}

// ReadKey implements FileAccess.
func (f *OSFileAccess) ReadKey(path string, keyPath []string) (any, bool, error) {
	data, err := os.ReadFile(f.path(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("%s not found: %w", path, err)
		}
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	v, ok := LookupKey(doc, keyPath)
	return v, ok, nil
}

// FirstLine implements FileAccess.
func (f *OSFileAccess) FirstLine(path string) (string, bool) {
	file, err := os.Open(f.path(path))
	if err != nil {
		return "", false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return "", scanner.Err() == nil
	}
	return strings.TrimRight(scanner.Text(), "\r"), true
}

// LookupKey walks a decoded document along keyPath.
func LookupKey(doc map[string]any, keyPath []string) (any, bool) {
	var cur any = doc
	for _, k := range keyPath {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
