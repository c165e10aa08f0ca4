package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FFF87"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7FF")).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFFF"))
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FD7FF")).
			Padding(0, 1)

	// BasicModeBadge marks replies produced without the inference backend.
	BasicModeBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1C1C1C")).
			Background(lipgloss.Color("#FFD75F")).
			Padding(0, 1).
			Bold(true)
)
