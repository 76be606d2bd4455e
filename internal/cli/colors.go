// Package cli provides terminal output and failure reporting for the
// trello-link command.
package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette shared with the status icons.
var (
	ColorAttached = lipgloss.Color("#9ece6a")
	ColorNotFound = lipgloss.Color("#e0af68")
	ColorErrored  = lipgloss.Color("#f7768e")
	ColorMuted    = lipgloss.Color("#565f89")
	ColorAccent   = lipgloss.Color("#7aa2f7")
)

// Status icons
const (
	CheckMark = "✓"
	Cross     = "✗"
	Circle    = "○"
	Dash      = "─"
)

// colorsEnabled caches whether colors should be used
var colorsEnabled *bool

// ColorsEnabled returns true if stdout is a terminal and NO_COLOR is unset.
func ColorsEnabled() bool {
	if colorsEnabled != nil {
		return *colorsEnabled
	}

	enabled := term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	colorsEnabled = &enabled
	return enabled
}

// ForceColors enables or disables colors regardless of terminal detection.
func ForceColors(enabled bool) {
	colorsEnabled = &enabled
}

func render(text string, color lipgloss.Color, bold bool) string {
	if !ColorsEnabled() {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

// OutcomeColor returns the color for a per-tag outcome.
func OutcomeColor(outcome string) lipgloss.Color {
	switch outcome {
	case "attached":
		return ColorAttached
	case "not_found":
		return ColorNotFound
	case "errored":
		return ColorErrored
	default:
		return ColorMuted
	}
}

// OutcomeIcon returns the icon for a per-tag outcome.
func OutcomeIcon(outcome string) string {
	switch outcome {
	case "attached":
		return CheckMark
	case "errored":
		return Cross
	case "not_found":
		return Circle
	default:
		return Dash
	}
}
