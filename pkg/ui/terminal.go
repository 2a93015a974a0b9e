package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ASCIILogo is the banner shown by the interactive commands
const ASCIILogo = `
  ┌─────────────────────────────────────────────────────────────┐
  │  ███████╗██████╗     ██╗███╗   ██╗███████╗██╗ ██████╗ ██╗  │
  │  ██╔════╝██╔══██╗    ██║████╗  ██║██╔════╝██║██╔════╝ ██║  │
  │  █████╗  ██████╔╝    ██║██╔██╗ ██║███████╗██║██║  ███╗██║  │
  │  ██╔══╝  ██╔══██╗    ██║██║╚██╗██║╚════██║██║██║   ██║╚═╝  │
  │  ██║     ██████╔╝    ██║██║ ╚████║███████║██║╚██████╔╝██╗  │
  │  ╚═╝     ╚═════╝     ╚═╝╚═╝  ╚═══╝╚══════╝╚═╝ ╚═════╝ ╚═╝  │
  │          FACEBOOK PAGE ANALYTICS · GRAPH API v19.0          │
  └─────────────────────────────────────────────────────────────┘
`

// Output is where the Print helpers write
var Output io.Writer = os.Stdout

var (
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	yellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	magentaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Color functions for terminal output. Styling is dropped when the output
// is not a terminal.
var (
	Cyan    = cyanStyle.Render
	Yellow  = yellowStyle.Render
	Red     = redStyle.Render
	Green   = greenStyle.Render
	Magenta = magentaStyle.Render
	Dim     = dimStyle.Render
)

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(Output, Cyan(ASCIILogo)+"\n")
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label and its value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output, Magenta(msg))
}
