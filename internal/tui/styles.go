package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	errorFg   = lipgloss.Color("#EF4444")
	tipFg     = lipgloss.Color("#F59E0B")

	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(baseDimFg)
	errStyle   = lipgloss.NewStyle().Foreground(errorFg)
	tipStyle   = lipgloss.NewStyle().Foreground(tipFg)
)
