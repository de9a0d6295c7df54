package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Warm notebook palette used by the settings forms and the status report
var (
	ColorInk    = lipgloss.Color("#E7E5E4") // body text
	ColorFaded  = lipgloss.Color("#A8A29E") // paths, timestamps
	ColorPencil = lipgloss.Color("#78716C") // hints

	ColorBinding = lipgloss.Color("#B45309") // titles, chosen values
	ColorMarker  = lipgloss.Color("#0D9488") // section headings, current row

	ColorDone    = lipgloss.Color("#16A34A")
	ColorFailed  = lipgloss.Color("#DC2626")
	ColorPending = lipgloss.Color("#CA8A04")
)

// formTheme styles every huh form in the settings wizard.
func formTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorBinding).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorFaded)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorBinding)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorMarker)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorInk)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorFaded)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorPencil)

	return t
}
