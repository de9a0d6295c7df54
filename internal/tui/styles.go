package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(ColorBinding).MarginBottom(1)
	StyleLabel = lipgloss.NewStyle().Bold(true).Foreground(ColorInk)

	// Check marks and pipeline state in the status report and `audiodiary check`.
	StyleDone    = lipgloss.NewStyle().Foreground(ColorDone)
	StyleFailed  = lipgloss.NewStyle().Foreground(ColorFailed).Bold(true)
	StylePending = lipgloss.NewStyle().Foreground(ColorPending)

	StyleFaded = lipgloss.NewStyle().Foreground(ColorFaded)
	StyleHint  = lipgloss.NewStyle().Foreground(ColorPencil).Italic(true)

	// StyleChosen marks a configured model or engine; StyleCurrent the row
	// in use within a price table.
	StyleChosen  = lipgloss.NewStyle().Foreground(ColorBinding).Bold(true)
	StyleCurrent = lipgloss.NewStyle().Foreground(ColorMarker).Bold(true)

	styleSection = lipgloss.NewStyle().Foreground(ColorMarker).Bold(true).Underline(true)
)

// Logo returns the styled program banner
func Logo() string {
	return StyleTitle.Render("audiodiary") + StyleFaded.Render("  voice notes to diary entries")
}

// Section renders a report section title
func Section(title string) string {
	return styleSection.Render(strings.ToUpper(title))
}
