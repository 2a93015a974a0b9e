package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Palette
	fbBlue      = lipgloss.Color("#1877F2")
	lightBlue   = lipgloss.Color("#8AB4F8")
	okGreen     = lipgloss.Color("#42B72A")
	warnOrange  = lipgloss.Color("#F7B928")
	failRed     = lipgloss.Color("#FA383E")
	dimWhite    = lipgloss.Color("#B0B3B8")
	brightWhite = lipgloss.Color("#FFFFFF")

	headerStyle = lipgloss.NewStyle().
			Background(fbBlue).
			Foreground(brightWhite).
			Bold(true).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(fbBlue).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lightBlue).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lightBlue)

	valueStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(okGreen).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warnOrange).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(failRed).
			Bold(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingTop(1)
)

// levelStyle returns the style of a log level
func levelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return errorStyle
	case "WARN":
		return warningStyle
	case "SUCCESS":
		return successStyle
	default:
		return labelStyle
	}
}
