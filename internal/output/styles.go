package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: server names, file paths, keys.
	ColorCyan = lipgloss.Color("14")

	// ColorYellow is used for warnings.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for errors (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns.
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles prompts and action verbs.
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (defaults, separators, origins).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Severity names as they appear in reports.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// SeverityStyle returns the style for an issue severity. Unknown severities
// are unstyled.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case SeverityError:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	case SeverityWarning:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	default:
		return lipgloss.NewStyle()
	}
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatPrompt renders a question with an optional default in brackets.
func FormatPrompt(text, def string, hasDefault bool) string {
	out := StyleAction.Render(text)
	if hasDefault {
		out += " " + StyleDim.Render("["+def+"]")
	}
	return out + " "
}
