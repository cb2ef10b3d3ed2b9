package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	oerrors "github.com/emsipi/cli/internal/errors"
	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/resolve"
)

// WriteResolved renders a resolved configuration in the given format.
func WriteResolved(w io.Writer, cfg *resolve.ResolvedConfiguration, format output.OutputFormat) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return writeJSONDocument(w, data, format, "ATTRIBUTE")
}

// WriteReport renders the issues of a report. The table format lists one
// issue per row with the severity colored.
func WriteReport(w io.Writer, report *resolve.Report, format output.OutputFormat) error {
	if format == output.FormatTable {
		tbl := IssueTable(report.Issues)
		if tbl.Len() == 0 {
			_, err := io.WriteString(w, output.FormatCheckmark("No issues")+"\n")
			return err
		}
		_, err := io.WriteString(w, tbl.String()+"\n")
		return err
	}
	data, err := json.Marshal(struct {
		Issues []resolve.Issue `json:"issues"`
	}{Issues: report.Issues})
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return writeJSONDocument(w, data, format, "ISSUE")
}

func writeJSONDocument(w io.Writer, data []byte, format output.OutputFormat, keyHeader string) error {
	switch format {
	case output.FormatJSON:
		var pretty strings.Builder
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := json.NewEncoder(&pretty)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
		_, err := io.WriteString(w, pretty.String())
		return err
	case output.FormatTable:
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		tbl := output.NewTable(keyHeader, "VALUE")
		for _, row := range flatten(doc, "") {
			tbl.Row(row[0], row[1])
		}
		_, err := io.WriteString(w, tbl.String()+"\n")
		return err
	default:
		out, err := yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("converting to YAML: %w", err)
		}
		_, err = w.Write(out)
		return err
	}
}

// flatten turns nested mappings into sorted dotted key/value rows.
func flatten(m map[string]any, prefix string) [][2]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows [][2]string
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := m[k].(map[string]any); ok {
			rows = append(rows, flatten(child, key)...)
			continue
		}
		rows = append(rows, [2]string{key, fmt.Sprint(m[k])})
	}
	return rows
}

// IssueTable builds the table shown for a failed resolution.
func IssueTable(issues []resolve.Issue) *output.Table {
	tbl := output.NewTable("SEVERITY", "ATTRIBUTE", "MESSAGE").SetStyle(output.IssueTableStyle(0))
	for _, i := range issues {
		tbl.Row(string(i.Severity), i.Path, i.Message)
	}
	return tbl
}

// PrintIssues logs every issue of a report; errors at error level and
// warnings at warn level.
func PrintIssues(report *resolve.Report) {
	for _, i := range report.Errors() {
		output.Error(i.Message, "attribute", i.Path, "code", i.Code)
	}
	for _, i := range report.Warnings() {
		output.Warn(i.Message, "attribute", i.Path, "code", i.Code)
	}
}

// ReportFailure writes the issue table of a failed resolution to w and
// returns the exit error for it, marked as already printed.
func ReportFailure(w io.Writer, report *resolve.Report) error {
	fmt.Fprintln(w, output.SeverityStyle(output.SeverityError).Render("configuration is incomplete or invalid"))
	fmt.Fprintln(w, IssueTable(report.Issues).String())
	return &oerrors.ExitError{Code: oerrors.ExitValidationError, Err: report.Err(), Printed: true}
}
