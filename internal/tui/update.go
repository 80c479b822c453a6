package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/plannetic/ifaengine/internal/domain"
)

// Update handles key presses, progress reports and the final result.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.state == stateRunning {
				m.state = stateStopping
				m.cancel()
				return m, nil
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.SetWidth(msg.Width - 32)
		return m, nil

	case progressMsg:
		m.progress.Update(msg.done)
		return m, waitForProgress(m.updates)

	case tickMsg:
		if m.state == stateRunning || m.state == stateStopping {
			m.elapsed = time.Since(m.started)
			return m, tick()
		}
		return m, nil

	case resultMsg:
		m.cancel()
		m.elapsed = time.Since(m.started)
		m.result, m.err = msg.res, msg.err
		switch {
		case msg.err == nil:
			m.state = stateDone
			m.progress.Update(m.progress.Total)
		case msg.res != nil && errors.Is(msg.err, domain.ErrSimulationCancelled):
			m.state = stateCancelled
			m.progress.Update(msg.res.SimulationCount)
		default:
			m.state = stateFailed
		}
		return m, tea.Quit
	}
	return m, nil
}
