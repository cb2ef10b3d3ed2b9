package raw

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// privateKeys are top-level keys routed to the private file.
var privateKeys = map[string]bool{
	"providers":             true,
	"environment-variables": true,
}

// IsPrivateKey reports whether key belongs in emsipi.private.yaml.
func IsPrivateKey(key string) bool {
	parts := SplitKey(key)
	return privateKeys[parts[0]]
}

// FileChange is the before/after content of one project file.
type FileChange struct {
	Path   string
	Before []byte
	After  []byte
	// Existed is true when the file was present before the change.
	Existed bool
	// Private is true for the private file.
	Private bool
}

// Changed reports whether writing the change would alter the file.
func (c FileChange) Changed() bool {
	return !bytes.Equal(c.Before, c.After)
}

// WritePlan lists the file changes needed to persist a set of attributes.
type WritePlan struct {
	Changes []FileChange
}

// HasChanges reports whether any file would be modified.
func (p *WritePlan) HasChanges() bool {
	for _, c := range p.Changes {
		if c.Changed() {
			return true
		}
	}
	return false
}

// Writer persists raw attributes back into the project files.
type Writer struct {
	dir string
}

// NewWriter creates a writer for the project rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Plan computes the content of both project files after applying attrs.
// Private keys go to the private file, everything else to the public file.
// Tombstones delete the key from the file that would hold it. Existing keys
// keep their position and comments; new keys are appended.
func (w *Writer) Plan(attrs []Attribute) (*WritePlan, error) {
	publicPath := filepath.Join(w.dir, PublicFileName)
	privatePath := filepath.Join(w.dir, PrivateFileName)

	public, err := readForUpdate(publicPath)
	if err != nil {
		return nil, err
	}
	private, err := readForUpdate(privatePath)
	if err != nil {
		return nil, err
	}

	for _, a := range attrs {
		target := public
		if IsPrivateKey(a.Key) {
			target = private
		}
		parts := SplitKey(a.Key)
		if IsTombstone(a.Value) {
			deleteNode(target.root(), parts, false)
			continue
		}
		if err := setNode(target.root(), parts, a.Value, false); err != nil {
			return nil, fmt.Errorf("setting %s: %w", a.Key, err)
		}
	}

	publicAfter, err := public.render()
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", PublicFileName, err)
	}
	privateAfter, err := private.render()
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", PrivateFileName, err)
	}

	return &WritePlan{Changes: []FileChange{
		{Path: publicPath, Before: public.before, After: publicAfter, Existed: public.existed},
		{Path: privatePath, Before: private.before, After: privateAfter, Existed: private.existed, Private: true},
	}}, nil
}

// Apply writes every changed file and returns the written paths. The private
// file is created with owner-only permissions.
func (p *WritePlan) Apply() ([]string, error) {
	var written []string
	for _, c := range p.Changes {
		if !c.Changed() {
			continue
		}
		mode := os.FileMode(0o644)
		if c.Private {
			mode = 0o600
		}
		if err := os.WriteFile(c.Path, c.After, mode); err != nil {
			return written, fmt.Errorf("writing %s: %w", c.Path, err)
		}
		written = append(written, c.Path)
	}
	return written, nil
}

// document is a project file being edited as a YAML node tree.
type document struct {
	doc     yaml.Node
	before  []byte
	existed bool
}

func readForUpdate(path string) (*document, error) {
	// LoadFile reports unreadable and malformed files.
	if _, _, err := LoadFile(path); err != nil {
		return nil, err
	}
	d := &document{}
	before, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		d.before, d.existed = before, true
		if err := yaml.Unmarshal(before, &d.doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if d.doc.Kind != yaml.DocumentNode || len(d.doc.Content) == 0 || d.doc.Content[0].Kind != yaml.MappingNode {
		d.doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{newMapping()}}
	}
	return d, nil
}

func (d *document) root() *yaml.Node {
	return d.doc.Content[0]
}

// render encodes the tree, leaving files that were absent and stay empty
// untouched.
func (d *document) render() ([]byte, error) {
	empty := len(d.root().Content) == 0
	if empty && !d.existed {
		return d.before, nil
	}
	out := []byte{}
	if !empty {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&d.doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		out = buf.Bytes()
	}
	if bytes.Equal(bytes.TrimSpace(out), bytes.TrimSpace(d.before)) {
		return d.before, nil
	}
	return out, nil
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// findKey returns the index of the key node matching key in a mapping node.
// Schema keys match in any spelling; keys below a free-form mapping match
// exactly.
func findKey(m *yaml.Node, key string, freeForm bool) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i].Value
		if freeForm && k == key || !freeForm && normalizeSegment(k) == key {
			return i
		}
	}
	return -1
}

// setNode sets the leaf at parts, creating intermediate mappings. A replaced
// value keeps the comments of the one it replaces.
func setNode(m *yaml.Node, parts []string, value any, freeForm bool) error {
	key := parts[0]
	i := findKey(m, key, freeForm)
	if len(parts) == 1 {
		var v yaml.Node
		if err := v.Encode(value); err != nil {
			return err
		}
		if i < 0 {
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &v)
			return nil
		}
		old := m.Content[i+1]
		v.HeadComment, v.LineComment, v.FootComment = old.HeadComment, old.LineComment, old.FootComment
		m.Content[i+1] = &v
		return nil
	}

	var child *yaml.Node
	switch {
	case i < 0:
		child = newMapping()
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, child)
	case m.Content[i+1].Kind != yaml.MappingNode:
		child = newMapping()
		m.Content[i+1] = child
	default:
		child = m.Content[i+1]
	}
	return setNode(child, parts[1:], value, freeForm || freeFormKeys[key])
}

// deleteNode removes the leaf at parts and prunes mappings left empty.
func deleteNode(m *yaml.Node, parts []string, freeForm bool) {
	i := findKey(m, parts[0], freeForm)
	if i < 0 {
		return
	}
	if len(parts) > 1 {
		child := m.Content[i+1]
		if child.Kind != yaml.MappingNode {
			return
		}
		deleteNode(child, parts[1:], freeForm || freeFormKeys[parts[0]])
		if len(child.Content) > 0 {
			return
		}
	}
	m.Content = append(m.Content[:i], m.Content[i+2:]...)
}

// Summary lists the changed files relative to the project directory.
func (p *WritePlan) Summary(dir string) string {
	var names []string
	for _, c := range p.Changes {
		if !c.Changed() {
			continue
		}
		rel, err := filepath.Rel(dir, c.Path)
		if err != nil {
			rel = c.Path
		}
		names = append(names, rel)
	}
	return strings.Join(names, ", ")
}
