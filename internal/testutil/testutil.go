// Package testutil provides test helpers shared across packages.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// Project creates a temporary working directory populated with files.
func Project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	return dir
}

// MemFiles is an in-memory file access backed by a name to content map. It
// counts reads so tests can assert that probes are not repeated.
type MemFiles struct {
	Files map[string]string
	// Unreadable lists files that exist but fail to read.
	Unreadable map[string]bool
	Reads      map[string]int
}

// NewMemFiles creates an in-memory file set.
func NewMemFiles(files map[string]string) *MemFiles {
	return &MemFiles{Files: files, Unreadable: map[string]bool{}, Reads: map[string]int{}}
}

func (m *MemFiles) get(path string) (string, bool) {
	path = filepath.Clean(path)
	m.Reads[path]++
	c, ok := m.Files[path]
	return c, ok
}

// Exists reports whether the file is present.
func (m *MemFiles) Exists(path string) bool {
	_, ok := m.get(path)
	return ok
}

// ReadKey decodes the file as TOML and walks keyPath.
func (m *MemFiles) ReadKey(path string, keyPath []string) (any, bool, error) {
	content, ok := m.get(path)
	if !ok {
		return nil, false, errors.New(path + " not found")
	}
	if m.Unreadable[filepath.Clean(path)] {
		return nil, false, errors.New(path + ": permission denied")
	}
	var doc map[string]any
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, false, err
	}
	var cur any = doc
	for _, k := range keyPath {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		if cur, ok = node[k]; !ok {
			return nil, false, nil
		}
	}
	return cur, true, nil
}

// FirstLine returns the first line of the file.
func (m *MemFiles) FirstLine(path string) (string, bool) {
	content, ok := m.get(path)
	if !ok {
		return "", false
	}
	line, _, _ := strings.Cut(content, "\n")
	return line, true
}
