package review

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	colorAccent    = lipgloss.Color("#11C3DB") // cyan
	colorMuted     = lipgloss.Color("8")       // gray
	colorDeleted   = lipgloss.Color("9")       // red
	colorInserted  = lipgloss.Color("10")      // green
	colorHighlight = lipgloss.Color("15")      // white
)

// Header styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorHighlight).
		Background(colorAccent).
		Padding(0, 1)

	locationStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent)
)

// Diff line styles
var (
	deletedLineStyle  = lipgloss.NewStyle().Foreground(colorDeleted)
	insertedLineStyle = lipgloss.NewStyle().Foreground(colorInserted)
	contextLineStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// Status bar
var statusBarStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// Help styles
var (
	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
