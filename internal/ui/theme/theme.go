// Package theme holds the lipgloss styles used for command-line output.
package theme

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Warning   = lipgloss.Color("#EAB308") // Amber
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Value = lipgloss.NewStyle().
		Foreground(Text).
		Bold(true)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Good = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Bad = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Warn = lipgloss.NewStyle().
		Foreground(Warning)

	Points = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Card frames a block of output.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(0, 1)

// Fprintln writes s to w, downsampling colors to what w supports.
func Fprintln(w io.Writer, s string) {
	if _, err := lipgloss.Fprintln(w, s); err != nil {
		fmt.Fprintln(w, s)
	}
}
