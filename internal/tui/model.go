package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/asyncweather/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneOperations PaneID = iota
	PaneSummary
)

const paneCount = 2

// Model is the root Bubble Tea model for the live group view.
type Model struct {
	opsPane     OperationsPaneModel
	summaryPane SummaryPaneModel
	focusedPane PaneID
	eventSub    <-chan events.Event
	width       int
	height      int
	quitting    bool
}

// New creates a new TUI model.
// It subscribes to all events from the event bus using SubscribeAll.
func New(eventBus *events.EventBus) Model {
	m := Model{
		opsPane:     NewOperationsPaneModel(),
		summaryPane: NewSummaryPaneModel(),
		focusedPane: PaneOperations,
		eventSub:    eventBus.SubscribeAll(events.DefaultBufferSize),
	}
	m.updateFocusStates()
	return m
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeyTab, KeyShiftTab:
			m.focusedPane = (m.focusedPane + 1) % paneCount
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneOperations
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneSummary
			m.updateFocusStates()

		default:
			var cmd tea.Cmd
			m.opsPane, cmd = m.opsPane.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()

	case tickMsg:
		var cmd tea.Cmd
		m.opsPane, cmd = m.opsPane.Update(msg)
		cmds = append(cmds, cmd)

	case events.Event:
		var cmd tea.Cmd
		m.opsPane, cmd = m.opsPane.Update(msg)
		cmds = append(cmds, cmd)
		m.summaryPane, cmd = m.summaryPane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.opsPane.View(), m.summaryPane.View())
	return lipgloss.JoinVertical(lipgloss.Left, body, HelpView())
}

// Outcome returns the outcome line once the group has reported, else "".
func (m Model) Outcome() string {
	return m.summaryPane.OutcomeLine()
}

// Operations returns the per-operation display states.
func (m Model) Operations() []OperationState {
	return m.opsPane.Operations()
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 65) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 1 // help bar

	m.opsPane.SetSize(leftWidth, availableHeight)
	m.summaryPane.SetSize(rightWidth, availableHeight)
	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.opsPane.SetFocused(m.focusedPane == PaneOperations)
	m.summaryPane.SetFocused(m.focusedPane == PaneSummary)
}
