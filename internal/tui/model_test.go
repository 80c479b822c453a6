package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/simulation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopRun(ctx context.Context, report simulation.ProgressFunc) (*domain.SimulationResults, error) {
	return nil, nil
}

func sampleResult(count, requested int) *domain.SimulationResults {
	return &domain.SimulationResults{
		SimulationCount:   count,
		RequestedCount:    requested,
		SuccessRate:       decimal.RequireFromString("88.5"),
		MedianFinalWealth: decimal.NewFromInt(250000),
		RiskLevel:         "moderate",
		ConfidenceIntervals: domain.PercentileBand{
			P10: decimal.NewFromInt(10000),
			P90: decimal.NewFromInt(600000),
		},
		YearlyPercentiles: []domain.YearlyPercentiles{
			{Year: 1, Age: 65, PercentileBand: domain.PercentileBand{P10: decimal.NewFromInt(350000), P50: decimal.NewFromInt(400000), P90: decimal.NewFromInt(450000)}},
			{Year: 2, Age: 66, PercentileBand: domain.PercentileBand{P10: decimal.NewFromInt(300000), P50: decimal.NewFromInt(410000), P90: decimal.NewFromInt(520000)}},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModel_ProgressNeverMovesBackwards(t *testing.T) {
	m := New(context.Background(), "Monte Carlo", 100, noopRun)
	require.NotNil(t, m.Init())

	m, cmd := update(t, m, progressMsg{done: 50, total: 100})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "50/100 trials")

	m, _ = update(t, m, progressMsg{done: 25, total: 100})
	assert.Equal(t, 50, m.progress.Done)
	assert.Contains(t, m.View(), "ctrl+c")
}

func TestModel_Completed(t *testing.T) {
	m := New(context.Background(), "Monte Carlo", 100, noopRun)

	m, cmd := update(t, m, resultMsg{res: sampleResult(100, 100)})
	assert.NotNil(t, cmd)
	assert.Equal(t, stateDone, m.state)
	assert.Equal(t, 100, m.progress.Done)

	res, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, 100, res.SimulationCount)

	view := m.View()
	assert.Contains(t, view, "Success rate")
	assert.Contains(t, view, "88.50%")
	assert.Contains(t, view, "age 65")
	assert.NotContains(t, view, "Partial")
}

func TestModel_CtrlCStopsAndKeepsPartial(t *testing.T) {
	m := New(context.Background(), "Monte Carlo", 1000, noopRun)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd)
	assert.Equal(t, stateStopping, m.state)
	assert.Error(t, m.ctx.Err())
	assert.Contains(t, m.View(), "stopping")

	_, err := m.Result()
	assert.True(t, errors.Is(err, domain.ErrSimulationCancelled))

	cancelled := fmt.Errorf("%w after 250 of 1000 trials: %w", domain.ErrSimulationCancelled, context.Canceled)
	m, _ = update(t, m, resultMsg{res: sampleResult(250, 1000), err: cancelled})
	assert.Equal(t, stateCancelled, m.state)
	assert.Contains(t, m.View(), "Partial result: 250 of 1000 trials")

	res, err := m.Result()
	require.NotNil(t, res)
	assert.Equal(t, 250, res.SimulationCount)
	assert.True(t, errors.Is(err, domain.ErrSimulationCancelled))
}

func TestModel_Failed(t *testing.T) {
	m := New(context.Background(), "Monte Carlo", 10, noopRun)

	m, _ = update(t, m, resultMsg{err: errors.New("boom")})
	assert.Equal(t, stateFailed, m.state)
	assert.Contains(t, m.View(), "error: boom")

	_, err := m.Result()
	assert.EqualError(t, err, "boom")
}

func TestModel_QuitAfterFinish(t *testing.T) {
	m := New(context.Background(), "Monte Carlo", 10, noopRun)
	m, _ = update(t, m, resultMsg{res: sampleResult(10, 10)})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRun_Headless(t *testing.T) {
	sim := simulation.NewSimulator(simulation.Config{BatchSize: 50, Workers: 2})
	seed := int64(3)
	params := domain.SimulationParameters{
		InitialPortfolio: decimal.NewFromInt(400000),
		AnnualWithdrawal: decimal.NewFromInt(16000),
		TimeHorizon:      30,
		RiskScore:        5,
		InflationRate:    decimal.RequireFromString("2.5"),
		SimulationCount:  200,
		Seed:             &seed,
	}

	var reported atomic.Int64
	run := func(ctx context.Context, report simulation.ProgressFunc) (*domain.SimulationResults, error) {
		sim.SetProgressFunc(func(done, total int) {
			reported.Store(int64(total))
			report(done, total)
		})
		return sim.RunParameters(ctx, params)
	}

	res, err := Run(context.Background(), "Monte Carlo", params.SimulationCount, run,
		tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer(), tea.WithoutSignalHandler())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 200, res.SimulationCount)
	assert.False(t, res.Partial)
	assert.Equal(t, int64(200), reported.Load())
}
