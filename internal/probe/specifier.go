package probe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

var (
	// ErrInvalidSpecifier is returned for constraints that cannot be parsed.
	ErrInvalidSpecifier = errors.New("invalid version specifier")
	// ErrUnsatisfiable is returned when no known CPython release matches.
	ErrUnsatisfiable = errors.New("no python release satisfies the constraint")
)

// maxMicro is the last micro release of each CPython major.minor line.
var maxMicro = map[[2]int]int{
	{2, 7}: 18, {3, 0}: 1, {3, 1}: 5, {3, 2}: 6, {3, 3}: 7, {3, 4}: 10,
	{3, 5}: 10, {3, 6}: 15, {3, 7}: 17, {3, 8}: 20, {3, 9}: 23,
	{3, 10}: 18, {3, 11}: 13, {3, 12}: 11, {3, 13}: 20, {3, 14}: 20, {3, 15}: 20,
}

// releases lists known CPython releases in ascending order as semver strings.
var releases = func() []string {
	var out []string
	for major := 2; major <= 3; major++ {
		maxMinor := 15
		if major == 2 {
			maxMinor = 7
		}
		for minor := 0; minor <= maxMinor; minor++ {
			for micro := 0; micro <= maxMicro[[2]int{major, minor}]; micro++ {
				out = append(out, fmt.Sprintf("v%d.%d.%d", major, minor, micro))
			}
		}
	}
	return out
}()

var clausePattern = regexp.MustCompile(`^(~=|===|==|!=|<=|>=|<|>)\s*(\d+(?:\.\d+){0,2})(\.\*)?$`)

type clause struct {
	op       string
	version  string // canonical semver, e.g. v3.12.0
	parts    int
	wildcard bool
}

// FirstSatisfyingPython reduces a requires-python constraint such as
// ">=3.10,<3.13" to the major.minor of the oldest CPython release matching
// every clause.
func FirstSatisfyingPython(constraint string) (string, error) {
	clauses, err := parseSpecifier(constraint)
	if err != nil {
		return "", err
	}
	for _, v := range releases {
		if matchesAll(v, clauses) {
			return strings.TrimPrefix(semver.MajorMinor(v), "v"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsatisfiable, constraint)
}

func parseSpecifier(s string) ([]clause, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty constraint", ErrInvalidSpecifier)
	}
	var out []clause
	for _, raw := range strings.Split(s, ",") {
		m := clausePattern.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpecifier, strings.TrimSpace(raw))
		}
		c := clause{
			op:       m[1],
			parts:    strings.Count(m[2], ".") + 1,
			wildcard: m[3] != "",
		}
		c.version = semver.Canonical("v" + m[2])
		if c.version == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpecifier, raw)
		}
		if c.wildcard && c.op != "==" && c.op != "!=" {
			return nil, fmt.Errorf("%w: wildcard not allowed with %s", ErrInvalidSpecifier, c.op)
		}
		if c.op == "~=" && c.parts < 2 {
			return nil, fmt.Errorf("%w: ~= needs at least major.minor", ErrInvalidSpecifier)
		}
		out = append(out, c)
	}
	return out, nil
}

func matchesAll(v string, clauses []clause) bool {
	for _, c := range clauses {
		if !c.matches(v) {
			return false
		}
	}
	return true
}

func (c clause) matches(v string) bool {
	cmp := semver.Compare(v, c.version)
	switch c.op {
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case "==", "===":
		if c.wildcard {
			return hasPrefix(v, c.version, c.parts)
		}
		return cmp == 0
	case "!=":
		if c.wildcard {
			return !hasPrefix(v, c.version, c.parts)
		}
		return cmp != 0
	case "~=":
		// ~=X.Y means >=X.Y, ==X.*; ~=X.Y.Z means >=X.Y.Z, ==X.Y.*
		return cmp >= 0 && hasPrefix(v, c.version, c.parts-1)
	}
	return false
}

// hasPrefix reports whether the first n release segments of v and ref match.
func hasPrefix(v, ref string, n int) bool {
	a := segments(v)
	b := segments(ref)
	for i := 0; i < n && i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func segments(v string) []int {
	fields := strings.Split(strings.TrimPrefix(v, "v"), ".")
	out := make([]int, len(fields))
	for i, f := range fields {
		out[i], _ = strconv.Atoi(f)
	}
	return out
}
