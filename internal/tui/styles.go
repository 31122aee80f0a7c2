package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Pane frames
var (
	StyleFocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62"))

	StyleUnfocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)

// Operation states
var (
	StyleStatusRunning = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	StyleStatusComplete = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10")).
				Bold(true)

	StyleStatusFailed = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")).
				Bold(true)

	StyleStatusCancelling = lipgloss.NewStyle().
				Foreground(lipgloss.Color("208")).
				Italic(true)

	StyleStatusCancelled = lipgloss.NewStyle().
				Foreground(lipgloss.Color("13"))

	StyleStatusPending = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// Event log and chrome
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	StyleTimestamp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	StyleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// stateStyle maps an operation state to its style.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case StateRunning:
		return StyleStatusRunning
	case StateCompleted:
		return StyleStatusComplete
	case StateFailed:
		return StyleStatusFailed
	case StateCancelRequested:
		return StyleStatusCancelling
	case StateCancelled:
		return StyleStatusCancelled
	default:
		return StyleStatusPending
	}
}
