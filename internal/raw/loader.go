package raw

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	oerrors "github.com/emsipi/cli/internal/errors"
)

const (
	// PublicFileName is the shared project configuration file.
	PublicFileName = "emsipi.yaml"

	// PrivateFileName holds values that must not be committed.
	PrivateFileName = "emsipi.private.yaml"
)

// ProjectFiles reports which project files were found.
type ProjectFiles struct {
	// PublicPath is the absolute path of the public file.
	PublicPath string
	// PrivatePath is the absolute path of the private file.
	PrivatePath string
	// PublicExists is true when the public file was found.
	PublicExists bool
	// PrivateExists is true when the private file was found.
	PrivateExists bool
}

// Any reports whether at least one project file exists.
func (f ProjectFiles) Any() bool {
	return f.PublicExists || f.PrivateExists
}

// LoadFile parses a YAML project file into a map.
//
// A missing file is not an error: found is false and the map is empty. An
// empty file yields an empty map. A document that is not a mapping, or that
// cannot be parsed, is returned as a validation error for the whole file.
func LoadFile(path string) (values map[string]any, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return map[string]any{}, false, nil
		case errors.Is(err, fs.ErrPermission):
			return nil, true, oerrors.NewPermissionError("cannot read configuration file", path,
				"Check the file permissions.")
		default:
			return nil, true, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, true, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  fmt.Sprintf("file is not valid YAML: %v", err),
			Location: path,
			Hint:     "Fix the YAML syntax or delete the file to start over with the wizard.",
			Cause:    oerrors.ErrValidation,
		}
	}
	if doc == nil {
		return map[string]any{}, true, nil
	}

	m, ok := asMap(doc)
	if !ok {
		return nil, true, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  fmt.Sprintf("top-level document must be a mapping, got %T", doc),
			Location: path,
			Cause:    oerrors.ErrValidation,
		}
	}
	return m, true, nil
}

// LoadProject reads the public and private project files from dir into a new
// store. Any fatal condition (inaccessible directory, unparsable file) is
// returned as a single error.
func LoadProject(dir string) (*Store, ProjectFiles, error) {
	files := ProjectFiles{
		PublicPath:  filepath.Join(dir, PublicFileName),
		PrivatePath: filepath.Join(dir, PrivateFileName),
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, files, oerrors.NewPermissionError("working directory is not accessible", dir, "")
		}
		return nil, files, oerrors.NewNotFoundError("working directory does not exist", dir,
			"Pass an existing directory with --directory.")
	}
	if !info.IsDir() {
		return nil, files, oerrors.NewNotFoundError("working directory is not a directory", dir, "")
	}

	public, publicFound, err := LoadFile(files.PublicPath)
	if err != nil {
		return nil, files, err
	}
	private, privateFound, err := LoadFile(files.PrivatePath)
	if err != nil {
		return nil, files, err
	}

	files.PublicExists = publicFound
	files.PrivateExists = privateFound

	store := NewStore()
	store.SetLayer(OriginPublic, public)
	store.SetLayer(OriginPrivate, private)
	return store, files, nil
}
