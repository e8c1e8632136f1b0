// Package tui is a terminal front end for the workout engine.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/round-timer/internal/buttons"
	"github.com/sweeney/round-timer/internal/workout"
)

// Controller is the part of the engine the UI drives.
type Controller interface {
	Dispatch(in workout.Intent) bool
	Snapshot() workout.Snapshot
}

// SnapshotMsg replaces the displayed snapshot. Engine observers should use
// a Notifier instead of sending it directly.
type SnapshotMsg workout.Snapshot

// Model is the bubbletea model for the timer screen.
type Model struct {
	control Controller
	snap    workout.Snapshot
	keys    KeyMap
	help    help.Model
	width   int
}

// New creates a Model showing control's current snapshot.
func New(control Controller) Model {
	return Model{
		control: control,
		snap:    control.Snapshot(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = workout.Snapshot(msg)
		return m, nil

	case refreshMsg:
		m.snap = m.control.Snapshot()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if in, ok := m.intentFor(msg); ok {
			m.control.Dispatch(in)
			// Observers may run on another goroutine; read back directly so
			// the screen never lags the key.
			m.snap = m.control.Snapshot()
		}
	}
	return m, nil
}

// intentFor maps a key to the intent it triggers in the current phase.
func (m Model) intentFor(msg tea.KeyMsg) (workout.Intent, bool) {
	switch {
	case key.Matches(msg, m.keys.Primary):
		return buttons.IntentFor(buttons.ButtonStart, m.snap.Phase)
	case key.Matches(msg, m.keys.Pause):
		return workout.IntentTogglePause, true
	case key.Matches(msg, m.keys.End):
		return workout.IntentEnd, true
	case key.Matches(msg, m.keys.RoundLengthUp):
		return workout.IntentIncrementRoundLength, true
	case key.Matches(msg, m.keys.RoundLengthDown):
		return workout.IntentDecrementRoundLength, true
	case key.Matches(msg, m.keys.RestLengthUp):
		return workout.IntentIncrementRestLength, true
	case key.Matches(msg, m.keys.RestLengthDown):
		return workout.IntentDecrementRestLength, true
	case key.Matches(msg, m.keys.RoundsUp):
		return workout.IntentIncrementRounds, true
	case key.Matches(msg, m.keys.RoundsDown):
		return workout.IntentDecrementRounds, true
	}
	return "", false
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.snap
	phase := string(s.Phase)
	if phase == "" {
		phase = string(workout.PhaseIdle)
	}

	banner := phaseStyles[phase].Render(phase)
	if s.Paused {
		banner += "  " + PausedStyle.Render("PAUSED")
	}

	clock := s.DisplayTimeLeft()
	if n, ok := s.CountdownValue(); ok {
		clock = fmt.Sprintf("%d", n)
	}

	var round string
	switch s.Phase {
	case workout.PhaseRound, workout.PhaseRest, workout.PhaseDone:
		round = fmt.Sprintf("round %d of %d", s.Round, s.DisplayRounds())
	default:
		round = fmt.Sprintf("%d rounds", s.DisplayRounds())
	}

	settings := strings.Join([]string{
		LabelStyle.Render("round ") + s.DisplayRoundLength(),
		LabelStyle.Render("rest ") + s.DisplayRestLength(),
		LabelStyle.Render("total ") + s.DisplayTotalTime(),
	}, "   ")

	body := lipgloss.JoinVertical(lipgloss.Center,
		TitleStyle.Render("ROUND TIMER"),
		"",
		banner,
		ClockStyle.Render(clock),
		LabelStyle.Render(round),
		"",
		settings,
	)

	return PanelStyle.Render(body) + "\n" + m.help.View(m.keys) + "\n"
}
