package raw

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
)

// Diff renders a YAML-aware diff of the change. A file that is created is
// shown as its full new content with every line prefixed by "+".
func (c FileChange) Diff(useColor bool) (string, error) {
	if !c.Changed() {
		return "", nil
	}
	before := bytes.TrimSpace(c.Before)
	after := bytes.TrimSpace(c.After)
	switch {
	case len(before) == 0 && len(after) == 0:
		return "", nil
	case len(before) == 0:
		return prefixLines(string(after), "+ "), nil
	case len(after) == 0:
		return prefixLines(string(before), "- "), nil
	}

	from, err := yamlInput(c.Path+" (current)", before)
	if err != nil {
		return "", fmt.Errorf("parsing current %s: %w", c.Path, err)
	}
	to, err := yamlInput(c.Path+" (planned)", after)
	if err != nil {
		return "", fmt.Errorf("parsing planned %s: %w", c.Path, err)
	}

	report, err := dyff.CompareInputFiles(from, to)
	if err != nil {
		return "", fmt.Errorf("comparing %s: %w", c.Path, err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	human := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := human.WriteReport(&buf); err != nil {
		return "", fmt.Errorf("writing diff report: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func yamlInput(name string, data []byte) (ytbx.InputFile, error) {
	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
