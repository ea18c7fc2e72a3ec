package cli

import "github.com/charmbracelet/lipgloss"

// Terminal styles for cmoneyctl output.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1677ff"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52c41a"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#faad14"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4d4f"))

	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8c8c8c"))

	HeaderStyle = lipgloss.NewStyle().Bold(true)
)
