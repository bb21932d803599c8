package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// Palette used for status output.
var (
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourWarning = lipgloss.Color("#F9E2AF") // Yellow
	colourError   = lipgloss.Color("#F38BA8") // Red
	colourInfo    = lipgloss.Color("#06B6D4") // Cyan
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
	successStyle = lipgloss.NewStyle().Foreground(colourSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colourWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colourError)
	infoStyle    = lipgloss.NewStyle().Foreground(colourInfo)
)

// statusStyle returns the style for an installation status.
func statusStyle(s domain.Status) lipgloss.Style {
	switch s {
	case domain.StatusConfigured:
		return successStyle
	case domain.StatusInstalled:
		return infoStyle
	case domain.StatusOutdated:
		return warningStyle
	default:
		return mutedStyle
	}
}

func renderStatus(s domain.Status) string {
	return statusStyle(s).Render(string(s))
}

func renderOutcome(ok bool) string {
	if ok {
		return successStyle.Render("ok")
	}
	return errorStyle.Render("failed")
}

// padRight pads s to width visible cells, ignoring colour codes.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
