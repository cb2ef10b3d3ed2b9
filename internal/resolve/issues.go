package resolve

import (
	"fmt"
	"strings"

	oerrors "github.com/emsipi/cli/internal/errors"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable, machine-readable issue identifier.
type Code string

// Issue codes.
const (
	CodeUnknownKey               Code = "unknown-key"
	CodeInvalidType              Code = "invalid-type"
	CodeTypeMismatch             Code = "type-mismatch"
	CodeInvalidServerName        Code = "invalid-server-name"
	CodeMissingServerName        Code = "missing-server-name"
	CodeMutuallyExclusive        Code = "mutually-exclusive"
	CodeMissingTarget            Code = "missing-target"
	CodePathEscapesRoot          Code = "path-escapes-root"
	CodeUnsupportedExtension     Code = "unsupported-extension"
	CodeInvalidValue             Code = "invalid-value"
	CodeAmbiguousRuntime         Code = "ambiguous-runtime"
	CodeNoRuntimeDetected        Code = "no-runtime-detected"
	CodeCrossRuntimeAttribute    Code = "cross-runtime-attribute"
	CodeIgnoredFile              Code = "ignored-file"
	CodeMissingPythonDeps        Code = "missing-python-deps"
	CodeVersionUndetectable      Code = "version-undetectable"
	CodeInvalidVersionConstraint Code = "invalid-version-constraint"
	CodeUnreadableFile           Code = "unreadable-file"
	CodeVersionDefaulted         Code = "version-defaulted"
	CodeMissingNodeVersion       Code = "missing-node-version"
	CodeUnsupportedProvider      Code = "unsupported-provider"
	CodeMissingProviderProject   Code = "missing-provider-project"
	CodeInternalInconsistency    Code = "internal-inconsistency"
)

// Issue is a single validation finding. Path uses underscore attribute names.
type Issue struct {
	Path     string   `json:"path"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// String renders the issue on one line.
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s [%s]", i.Path, i.Message, i.Code)
}

// Report is the ordered list of issues from one resolution pass, plus the
// attributes that pass could determine.
type Report struct {
	Issues []Issue `json:"issues"`

	// Partial maps attribute names to the values resolved so far. The wizard
	// uses them as question defaults.
	Partial map[string]any `json:"partial,omitempty"`
}

func newReport() *Report {
	return &Report{Issues: []Issue{}, Partial: map[string]any{}}
}

func (r *Report) errorf(path string, code Code, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: path, Code: code, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
}

func (r *Report) warnf(path string, code Code, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: path, Code: code, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

// Errors returns the error-severity issues in order.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity issues in order.
func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Find returns the first issue with code.
func (r *Report) Find(code Code) (Issue, bool) {
	for _, i := range r.Issues {
		if i.Code == code {
			return i, true
		}
	}
	return Issue{}, false
}

// Codes returns the codes of every issue in order.
func (r *Report) Codes() []Code {
	out := make([]Code, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Code
	}
	return out
}

// Err converts a failing report into an error wrapping ErrValidation. It
// returns nil when the report has no errors.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	noun := "issue"
	if len(errs) > 1 {
		noun = "issues"
	}
	return &oerrors.DetailError{
		Type:    "validation failed",
		Message: fmt.Sprintf("%d configuration %s:\n  %s", len(errs), noun, strings.Join(lines, "\n  ")),
		Hint:    "Fix the configuration files or run 'emsipi config init' to answer the missing questions.",
		Cause:   oerrors.ErrValidation,
	}
}
