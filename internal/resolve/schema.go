package resolve

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/raw"
)

//go:embed schema.cue
var schemaCUE []byte

// Schema checks the shape of a merged raw map against the embedded CUE
// definition.
type Schema struct {
	ctx *cue.Context
	def cue.Value
}

// NewSchema compiles the embedded schema.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if v.Err() != nil {
		return nil, &oerrors.DetailError{
			Type:    "schema compile failed",
			Message: v.Err().Error(),
			Cause:   oerrors.ErrValidation,
		}
	}
	def := v.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return nil, fmt.Errorf("schema has no #Config definition")
	}
	return &Schema{ctx: ctx, def: def}, nil
}

// SchemaIssue is a schema violation at a canonical (hyphenated) key.
type SchemaIssue struct {
	Key     string
	Code    Code
	Message string
}

// Check validates values and returns one issue per offending key, sorted by
// key.
func (s *Schema) Check(values map[string]any) []SchemaIssue {
	v := s.def.Unify(s.ctx.Encode(values))
	err := v.Validate()
	if err == nil {
		return nil
	}

	byKey := map[string]SchemaIssue{}
	for _, e := range cueerrors.Errors(err) {
		key := schemaKey(e.Path())
		if key == "" {
			continue
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		issue := SchemaIssue{Key: key, Code: CodeInvalidType}
		if val, ok := valueAt(values, key); ok {
			issue.Message = fmt.Sprintf("unexpected %s value: %s", describeType(val), msg)
		} else {
			issue.Message = msg
		}
		if strings.Contains(msg, "not allowed") {
			issue.Code = CodeUnknownKey
			issue.Message = "unknown configuration key"
		}
		if prev, ok := byKey[key]; ok && prev.Code == CodeUnknownKey {
			continue
		}
		byKey[key] = issue
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]SchemaIssue, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// schemaKey turns a CUE error path into a canonical dotted key.
func schemaKey(path []string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		if strings.HasPrefix(p, "#") {
			continue
		}
		p = strings.Trim(p, `"`)
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ".")
}

func valueAt(values map[string]any, key string) (any, bool) {
	var cur any = values
	for _, p := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// describeType names the YAML type of a raw value for messages.
func describeType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	}
	if raw.IsTombstone(v) {
		return "removed"
	}
	return fmt.Sprintf("%T", v)
}
