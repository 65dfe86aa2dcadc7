package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jmurray2011/skein/internal/source"
)

// Color palette - using ANSI 256 colors for broad terminal support
var (
	ColorCyan   = lipgloss.Color("6")
	ColorYellow = lipgloss.Color("3")
	ColorRed    = lipgloss.Color("1")
	ColorGreen  = lipgloss.Color("2")
	ColorGray   = lipgloss.Color("8")
	ColorWhite  = lipgloss.Color("15")
	ColorBlack  = lipgloss.Color("0")
)

// Text styles
var (
	// Timestamps in entry output
	TimestampStyle = lipgloss.NewStyle().Foreground(ColorCyan)

	// Source file and line of an entry
	LocationStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	// Status messages ("Scanning...", "Writing report...")
	StatusStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	// Error messages
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

	// Warning messages
	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	// Success messages
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	// Muted/secondary text
	MutedStyle = lipgloss.NewStyle().Foreground(ColorGray)

	// Highlighted/matched text
	HighlightStyle = lipgloss.NewStyle().
			Background(ColorYellow).
			Foreground(ColorBlack).
			Bold(true)

	// Labels (field names, headers)
	LabelStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	// Section titles
	SectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan)
)

// Severity badges
var (
	SeverityErrorStyle = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorRed).Bold(true)
	SeverityWarnStyle  = lipgloss.NewStyle().Foreground(ColorBlack).Background(ColorYellow)
	SeverityInfoStyle  = lipgloss.NewStyle().Foreground(ColorCyan)
)

// SeverityStyle returns the badge style for sev.
func SeverityStyle(sev source.Severity) lipgloss.Style {
	switch sev {
	case source.SeverityError:
		return SeverityErrorStyle
	case source.SeverityWarn:
		return SeverityWarnStyle
	default:
		return SeverityInfoStyle
	}
}
