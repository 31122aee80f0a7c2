package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/asyncweather/internal/events"
)

// Operation display states.
const (
	StateRunning         = "running"
	StateCompleted       = "completed"
	StateFailed          = "failed"
	StateCancelRequested = "cancelling"
	StateCancelled       = "cancelled"
)

// OperationState is the display state of one delayed operation.
type OperationState struct {
	Index    int
	Duration float64
	Status   string
	Started  time.Time
	Finished time.Time
}

// OperationsPaneModel lists operations and keeps a scrollable log of every event.
type OperationsPaneModel struct {
	ops       map[int]*OperationState
	order     []int    // insertion order for display
	log       []string // one line per event
	viewport  viewport.Model
	width     int
	height    int
	focused   bool
	updateTag int // for debouncing
}

// NewOperationsPaneModel creates an empty operations pane.
func NewOperationsPaneModel() OperationsPaneModel {
	return OperationsPaneModel{
		ops:      make(map[int]*OperationState),
		viewport: viewport.New(0, 0),
	}
}

// tickMsg is used for debouncing viewport updates.
type tickMsg struct {
	tag int
}

// Update handles messages for the operations pane.
func (m OperationsPaneModel) Update(msg tea.Msg) (OperationsPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.focused {
			m.viewport, cmd = m.viewport.Update(msg)
		}
		return m, cmd

	case tickMsg:
		if msg.tag == m.updateTag {
			m.refreshLog()
		}
		return m, nil

	case events.OperationStartedEvent:
		if _, exists := m.ops[msg.Index]; !exists {
			m.order = append(m.order, msg.Index)
		}
		m.ops[msg.Index] = &OperationState{
			Index:    msg.Index,
			Duration: msg.Duration,
			Status:   StateRunning,
			Started:  msg.Timestamp,
		}
		m.appendLog(msg.Timestamp, fmt.Sprintf("task %g started", msg.Duration))

	case events.OperationCompletedEvent:
		m.finish(msg.Index, StateCompleted, msg.Timestamp)
		m.appendLog(msg.Timestamp, fmt.Sprintf("slept for %g units", msg.Duration))

	case events.OperationFailedEvent:
		m.finish(msg.Index, StateFailed, msg.Timestamp)
		m.appendLog(msg.Timestamp, fmt.Sprintf("task %g failed: %v", msg.Duration, msg.Err))

	case events.OperationCancelRequestedEvent:
		if op, exists := m.ops[msg.Index]; exists && op.Status == StateRunning {
			op.Status = StateCancelRequested
		}
		m.appendLog(msg.Timestamp, fmt.Sprintf("cancelling task %g", msg.Duration))

	case events.OperationCancelledEvent:
		m.finish(msg.Index, StateCancelled, msg.Timestamp)
		m.appendLog(msg.Timestamp, fmt.Sprintf("task %g cancelled", msg.Duration))

	case events.GroupOutcomeEvent:
		if msg.Failed {
			m.appendLog(msg.Timestamp, fmt.Sprintf("Fatal error: %v", msg.Cause))
		} else {
			m.appendLog(msg.Timestamp, fmt.Sprintf("all %d operations completed", msg.Completed))
		}

	case events.WeatherReportEvent:
		m.appendLog(msg.Timestamp, fmt.Sprintf("%s: %s", msg.City, msg.Status))

	default:
		return m, nil
	}

	m.updateTag++
	tag := m.updateTag
	return m, tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{tag: tag}
	})
}

func (m *OperationsPaneModel) finish(index int, status string, at time.Time) {
	op, exists := m.ops[index]
	if !exists {
		op = &OperationState{Index: index}
		m.ops[index] = op
		m.order = append(m.order, index)
	}
	op.Status = status
	op.Finished = at
}

func (m *OperationsPaneModel) appendLog(at time.Time, line string) {
	m.log = append(m.log, fmt.Sprintf("%s %s", at.Format("15:04:05.000"), line))
}

// refreshLog pushes the log into the viewport and follows the tail.
func (m *OperationsPaneModel) refreshLog() {
	if len(m.log) == 0 {
		m.viewport.SetContent("Waiting for operations...")
		return
	}
	lines := make([]string, len(m.log))
	for i, line := range m.log {
		stamp, text, _ := strings.Cut(line, " ")
		lines[i] = StyleTimestamp.Render(stamp) + " " + text
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// Operations returns operation states in the order they were first seen.
func (m OperationsPaneModel) Operations() []OperationState {
	out := make([]OperationState, 0, len(m.order))
	for _, idx := range m.order {
		out = append(out, *m.ops[idx])
	}
	return out
}

// Log returns the event log lines.
func (m OperationsPaneModel) Log() []string {
	return m.log
}

// View renders the operations pane.
func (m OperationsPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	listWidth := 25
	logWidth := m.width - listWidth - 4

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderList(listWidth),
		lipgloss.NewStyle().
			Width(logWidth).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m OperationsPaneModel) renderList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Operations")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(StyleStatusPending.Render("Waiting..."))
	}
	for _, idx := range m.order {
		op := m.ops[idx]
		fmt.Fprintf(&b, "%s #%d  %g units\n", StatusIcon(op.Status), op.Index, op.Duration)
		if op.Status == StateCancelRequested {
			b.WriteString(StyleStatusCancelling.Render("    cancelling..."))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func StatusIcon(status string) string {
	icon := "○"
	switch status {
	case StateRunning:
		icon = "●"
	case StateCompleted:
		icon = "✓"
	case StateFailed:
		icon = "✗"
	case StateCancelRequested:
		icon = "◌"
	case StateCancelled:
		icon = "⊘"
	}
	return stateStyle(status).Render(icon)
}

func (m *OperationsPaneModel) resizeViewport() {
	w := m.width - 25 - 4
	h := m.height - 4
	if w < 10 {
		w = 10
	}
	if h < 5 {
		h = 5
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

// SetSize updates the pane dimensions.
func (m *OperationsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
	m.refreshLog()
}

// SetFocused updates the focus state.
func (m *OperationsPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
