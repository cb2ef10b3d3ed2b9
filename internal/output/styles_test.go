package output

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestSeverityStyle(t *testing.T) {
	tests := []struct {
		name     string
		severity string
		wantBold bool
		wantFG   lipgloss.TerminalColor
	}{
		{name: "error is bold red", severity: SeverityError, wantBold: true, wantFG: ColorBoldRed},
		{name: "warning is yellow", severity: SeverityWarning, wantFG: ColorYellow},
		{name: "unknown is unstyled", severity: "info", wantFG: lipgloss.NoColor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := SeverityStyle(tt.severity)
			assert.Equal(t, tt.wantBold, style.GetBold())
			assert.Equal(t, tt.wantFG, style.GetForeground())
		})
	}
}

func TestFormatCheckmark(t *testing.T) {
	out := FormatCheckmark("configuration resolved")
	assert.True(t, strings.HasSuffix(out, " configuration resolved"))
	assert.Contains(t, out, "✔")
}

func TestFormatPrompt(t *testing.T) {
	withDefault := FormatPrompt("Server name?", "weather", true)
	assert.Contains(t, withDefault, "Server name?")
	assert.Contains(t, withDefault, "[weather]")

	without := FormatPrompt("Server name?", "", false)
	assert.NotContains(t, without, "[")
}

func TestTable_String(t *testing.T) {
	tbl := NewTable("PATH", "SEVERITY").SetStyle(IssueTableStyle(1))
	tbl.Row("server_target", SeverityError)
	tbl.Row("python_dependencies_file", SeverityWarning)

	out := tbl.String()
	assert.Equal(t, 2, tbl.Len())
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "server_target")
	assert.Contains(t, out, "python_dependencies_file")
}
