// Package tui renders live progress for a sieve run with Bubble Tea,
// Lip Gloss and Bubbles.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the TUI.
var (
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#00D9FF")
	successColor = lipgloss.Color("#28A745")
	dangerColor  = lipgloss.Color("#DC3545")
	warningColor = lipgloss.Color("#FFC107")
	mutedColor   = lipgloss.Color("#666666")
	borderColor  = lipgloss.Color("#333333")
)

var (
	// outerBoxStyle is the main container style.
	outerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// statBoxStyle frames a single statistic.
	statBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	mutedTextStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	errorTextStyle     = lipgloss.NewStyle().Foreground(dangerColor)
	successTextStyle   = lipgloss.NewStyle().Foreground(successColor)
	warningTextStyle   = lipgloss.NewStyle().Foreground(warningColor)
	statValueStyle     = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	progressFillStyle  = lipgloss.NewStyle().Foreground(primaryColor)
	progressEmptyStyle = lipgloss.NewStyle().Foreground(borderColor)
)
