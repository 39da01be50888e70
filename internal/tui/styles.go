package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("42")
	ColorRed    = lipgloss.Color("196")
	ColorOrange = lipgloss.Color("208")
	ColorYellow = lipgloss.Color("220")
	ColorGray   = lipgloss.Color("240")
	ColorLight  = lipgloss.Color("250")
	ColorWhite  = lipgloss.Color("255")
)

var (
	dimStyle     = lipgloss.NewStyle().Foreground(ColorGray)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	keepStyle    = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	deleteStyle  = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(ColorOrange)
	titleStyle   = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)

	cardBorder = lipgloss.RoundedBorder()
)
