// Package tui shows a long Monte Carlo run as a live progress view that
// can be stopped early while keeping the completed trials.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/simulation"
	"github.com/plannetic/ifaengine/internal/tui/components"
)

// RunFunc performs a run, reporting completed trials through report.
type RunFunc func(ctx context.Context, report simulation.ProgressFunc) (*domain.SimulationResults, error)

type state int

const (
	stateRunning state = iota
	stateStopping
	stateDone
	stateCancelled
	stateFailed
)

const tickInterval = 100 * time.Millisecond

// Model is the bubbletea model for a single run.
type Model struct {
	title   string
	run     RunFunc
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan progressMsg

	progress components.TrialProgress
	state    state
	started  time.Time
	elapsed  time.Duration
	width    int

	result *domain.SimulationResults
	err    error
}

// New creates a model that runs total trials through run. Cancelling ctx
// stops the run the same way ctrl+c does.
func New(ctx context.Context, title string, total int, run RunFunc) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		title:    title,
		run:      run,
		ctx:      ctx,
		cancel:   cancel,
		updates:  make(chan progressMsg, 64),
		progress: components.NewTrialProgress(total),
		started:  time.Now(),
		width:    80,
	}
}

// Init starts the run.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.start(), waitForProgress(m.updates), tick())
}

func (m Model) start() tea.Cmd {
	ctx, run, updates := m.ctx, m.run, m.updates
	return func() tea.Msg {
		defer close(updates)
		res, err := run(ctx, func(done, total int) {
			select {
			case updates <- progressMsg{done: done, total: total}:
			default:
			}
		})
		return resultMsg{res: res, err: err}
	}
}

func waitForProgress(ch <-chan progressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Result returns the run's outcome. A stopped run returns its partial
// result together with an error wrapping domain.ErrSimulationCancelled.
func (m Model) Result() (*domain.SimulationResults, error) {
	if m.state == stateRunning || m.state == stateStopping {
		return nil, fmt.Errorf("%w: view closed before the run finished", domain.ErrSimulationCancelled)
	}
	return m.result, m.err
}

// Run shows the progress view until the run finishes and returns its
// result. opts are passed to the bubbletea program.
func Run(ctx context.Context, title string, total int, run RunFunc, opts ...tea.ProgramOption) (*domain.SimulationResults, error) {
	final, err := tea.NewProgram(New(ctx, title, total, run), opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	return final.(Model).Result()
}
