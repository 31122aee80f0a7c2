package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/asyncweather/internal/events"
)

// SummaryPaneModel shows group progress counts and, once known, the outcome.
type SummaryPaneModel struct {
	total     int
	running   int
	completed int
	failed    int
	cancelled int
	outcome   *events.GroupOutcomeEvent
	width     int
	height    int
	focused   bool
}

// NewSummaryPaneModel creates an empty summary pane.
func NewSummaryPaneModel() SummaryPaneModel {
	return SummaryPaneModel{}
}

// Update handles messages for the summary pane.
func (m SummaryPaneModel) Update(msg tea.Msg) (SummaryPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case events.OperationStartedEvent:
		m.total++
		m.running++
	case events.OperationCompletedEvent:
		m.running--
		m.completed++
	case events.OperationFailedEvent:
		m.running--
		m.failed++
	case events.OperationCancelledEvent:
		m.running--
		m.cancelled++
	case events.GroupOutcomeEvent:
		m.outcome = &msg
	}
	return m, nil
}

// OutcomeLine describes the group outcome, or "" while the group is still running.
func (m SummaryPaneModel) OutcomeLine() string {
	if m.outcome == nil {
		return ""
	}
	if m.outcome.Failed {
		return fmt.Sprintf("Failed: %v (%d completed, %d cancelled, %v)",
			m.outcome.Cause, m.outcome.Completed, m.outcome.Cancelled, m.outcome.Elapsed)
	}
	return fmt.Sprintf("Completed: %d operations in %v", m.outcome.Completed, m.outcome.Elapsed)
}

// View renders the summary pane.
func (m SummaryPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Group Progress")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Total:     %d\n", m.total)
	fmt.Fprintf(&b, "Running:   %s\n", StyleStatusRunning.Render(fmt.Sprint(m.running)))
	fmt.Fprintf(&b, "Completed: %s\n", StyleStatusComplete.Render(fmt.Sprint(m.completed)))
	fmt.Fprintf(&b, "Failed:    %s\n", StyleStatusFailed.Render(fmt.Sprint(m.failed)))
	fmt.Fprintf(&b, "Cancelled: %s\n", StyleStatusCancelled.Render(fmt.Sprint(m.cancelled)))
	b.WriteString("\n")

	if m.total > 0 {
		barWidth := max(0, min(m.width-12, 40))
		completedWidth := m.completed * barWidth / m.total
		failedWidth := m.failed * barWidth / m.total
		cancelledWidth := m.cancelled * barWidth / m.total
		runningWidth := max(0, barWidth-completedWidth-failedWidth-cancelledWidth)

		bar := StyleStatusComplete.Render(strings.Repeat("=", completedWidth))
		bar += StyleStatusFailed.Render(strings.Repeat("!", failedWidth))
		bar += StyleStatusCancelled.Render(strings.Repeat("x", cancelledWidth))
		bar += StyleStatusRunning.Render(strings.Repeat("-", runningWidth))

		fmt.Fprintf(&b, "[%s]  %d/%d\n\n", bar, m.completed+m.failed+m.cancelled, m.total)
	}

	if line := m.OutcomeLine(); line != "" {
		style := StyleStatusComplete
		if m.outcome.Failed {
			style = StyleStatusFailed
		}
		b.WriteString(style.Render(line))
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions.
func (m *SummaryPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *SummaryPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
