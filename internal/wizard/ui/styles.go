// Package ui renders task progress for the scripted subcommands,
// which print step lines to the terminal instead of running the
// full-screen wizard.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	MinTerminalWidth = 60
	MaxContentWidth  = 120
)

// Color palette, matching the wizard's styles.
var (
	PrimaryColor = lipgloss.Color("#00A3B9")
	SuccessColor = lipgloss.Color("#43BF6D")
	ErrorColor   = lipgloss.Color("#FF5555")
	MutedColor   = lipgloss.Color("#626262")
)

var (
	stepStyle    = lipgloss.NewStyle().Foreground(PrimaryColor)
	successStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
)

// Step status markers
const (
	MarkerRunning = "●"
	MarkerOutput  = "·"
	SuccessMarker = "✓"
	FailureMarker = "✗"
)

// TerminalWidth returns the current terminal width, clamped to the
// supported range.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
