// Package style defines lipgloss styles for the TUI.
package style

import "github.com/charmbracelet/lipgloss"

// Styles are package-level values; lipgloss styles are immutable and safe
// for concurrent use.
var (
	// Title is used for phase titles and headers.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("111"))

	// Subtitle is used for secondary text.
	Subtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	// Phase renders the active breathing phase name.
	Phase = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")).
		Padding(0, 1)

	// Success marks completed work.
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	// Error marks failed work.
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	// Warning is used for finished or paused states.
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	// Key is used for highlighting keyboard keys.
	Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color("111")).
		Bold(true)

	// Muted is used for de-emphasized text such as the story.
	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	// Card frames the story and suggestion.
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("60")).
		Padding(0, 1)

	// Outer and Inner color the two breathing circles.
	Outer = lipgloss.NewStyle().Foreground(lipgloss.Color("67"))
	Inner = lipgloss.NewStyle().Foreground(lipgloss.Color("153"))

	// Crumb and ActiveCrumb render the phase breadcrumb.
	Crumb       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ActiveCrumb = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Underline(true)
)
