package simulation

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Config holds execution settings for the simulator.
type Config struct {
	BatchSize int // trials per batch; cancellation is checked between batches
	Workers   int
}

// DefaultConfig returns batches of 250 trials across GOMAXPROCS workers.
func DefaultConfig() Config {
	return Config{
		BatchSize: 250,
		Workers:   runtime.GOMAXPROCS(0),
	}
}

// ProgressFunc receives the number of completed trials after every batch.
// Calls may come from several goroutines but never overlap, and done never
// decreases. It must not block.
type ProgressFunc func(done, total int)

// Simulator runs Monte Carlo trials of the cash-flow ledger under random returns.
type Simulator struct {
	config   Config
	logger   zerolog.Logger
	progress ProgressFunc
}

// NewSimulator creates a simulator. Zero config fields take their defaults.
func NewSimulator(config Config) *Simulator {
	def := DefaultConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	return &Simulator{config: config, logger: zerolog.Nop()}
}

// SetLogger sets the logger used for run diagnostics.
func (s *Simulator) SetLogger(l zerolog.Logger) {
	s.logger = l.With().Str("component", "monte_carlo").Logger()
}

// SetProgressFunc registers a callback invoked after each completed batch.
func (s *Simulator) SetProgressFunc(fn ProgressFunc) {
	s.progress = fn
}

// RunScenario simulates a full scenario, accumulation and drawdown.
func (s *Simulator) RunScenario(ctx context.Context, scenario domain.Scenario, params domain.SimulationParameters) (*domain.SimulationResults, error) {
	plan, err := projection.PlanFromScenario(scenario)
	if err != nil {
		return nil, fmt.Errorf("monte carlo for scenario %q: %w", scenario.ID, err)
	}
	if params.RiskScore > 0 {
		plan.Allocation = domain.AllocationForRisk(params.RiskScore)
	}
	return s.RunPlan(ctx, plan, nil, params)
}

// RunParameters simulates the drawdown plan described by params alone.
func (s *Simulator) RunParameters(ctx context.Context, params domain.SimulationParameters) (*domain.SimulationResults, error) {
	plan, err := projection.PlanFromParameters(params)
	if err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}
	return s.RunPlan(ctx, plan, nil, params)
}

// RunPlan runs params.SimulationCount trials of plan, perturbed by sched,
// and aggregates them. When ctx is cancelled before every batch finishes
// the aggregate of the completed batches is returned with Partial set,
// together with an error wrapping domain.ErrSimulationCancelled.
func (s *Simulator) RunPlan(ctx context.Context, plan projection.Plan, sched projection.Schedule, params domain.SimulationParameters) (*domain.SimulationResults, error) {
	start := time.Now()
	run, err := s.Trials(ctx, plan, sched, params)
	if run == nil {
		return nil, err
	}

	res := Aggregate(run.Outcomes, plan.StartAge)
	res.RequestedCount = run.Requested
	res.Partial = len(run.Outcomes) < run.Requested
	res.Seed = run.Seed
	res.Allocation = plan.Allocation
	res.ExpectedReturn = run.Model.ExpectedReturn(plan.Allocation).Mul(decimal.NewFromInt(100)).Round(2)
	res.Volatility = decimal.NewFromFloat(run.Model.PortfolioVolatility(plan.Allocation) * 100).Round(2)
	res.WithdrawalRate = plan.WithdrawalRate().Round(2)
	res.WithdrawalRisk = domain.WithdrawalRiskForRate(res.WithdrawalRate)
	res.ExecutionTime = time.Since(start)

	s.logger.Info().
		Int("trials", res.SimulationCount).
		Int("requested", res.RequestedCount).
		Bool("partial", res.Partial).
		Str("success_rate", res.SuccessRate.StringFixed(2)).
		Dur("elapsed", res.ExecutionTime).
		Msg("monte carlo run finished")

	return &res, err
}

// TrialRun is the raw output of a set of trials before aggregation.
type TrialRun struct {
	Outcomes  []domain.TrialOutcome
	Requested int
	Seed      int64
	Model     domain.ReturnModel
}

type batch struct {
	start, end int
}

func splitBatches(n, size int) []batch {
	batches := make([]batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		batches = append(batches, batch{start: start, end: min(start+size, n)})
	}
	return batches
}

// Trials runs the individual trials across the worker pool. Trial i always
// draws from the stream seeded by (seed, i), so two calls with the same seed
// produce pathwise comparable trials.
func (s *Simulator) Trials(ctx context.Context, plan projection.Plan, sched projection.Schedule, params domain.SimulationParameters) (*TrialRun, error) {
	n := params.SimulationCount
	if n <= 0 {
		return nil, fmt.Errorf("%w: simulation count must be positive, got %d", domain.ErrInvalidParameters, n)
	}

	seed := time.Now().UnixNano()
	if params.Seed != nil {
		seed = *params.Seed
	}
	model := plan.Model
	if params.Volatility != nil {
		model = model.WithPortfolioVolatility(plan.Allocation, *params.Volatility/100)
	}

	s.logger.Debug().
		Int("trials", n).
		Int64("seed", seed).
		Int("years", plan.Years).
		Int("workers", s.config.Workers).
		Msg("starting monte carlo trials")

	batches := splitBatches(n, s.config.BatchSize)
	outcomes := make([]domain.TrialOutcome, n)
	finished := make([]bool, len(batches))
	startTotal := plan.StartingAssets().InexactFloat64()

	var (
		mu        sync.Mutex
		completed int
		wg        sync.WaitGroup
	)
	jobs := make(chan int)
	for w := 0; w < s.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				if ctx.Err() != nil {
					continue
				}
				for i := batches[b].start; i < batches[b].end; i++ {
					outcomes[i] = runTrial(plan, sched, model, seed, i, startTotal)
				}
				mu.Lock()
				finished[b] = true
				completed += batches[b].end - batches[b].start
				if s.progress != nil {
					s.progress(completed, n)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for b := range batches {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- b:
		}
	}
	close(jobs)
	wg.Wait()

	run := &TrialRun{Requested: n, Seed: seed, Model: model}
	if completed == n {
		run.Outcomes = outcomes
		return run, nil
	}

	for b, ok := range finished {
		if ok {
			run.Outcomes = append(run.Outcomes, outcomes[batches[b].start:batches[b].end]...)
		}
	}
	s.logger.Warn().Int("completed", len(run.Outcomes)).Int("requested", n).Msg("monte carlo cancelled")
	return run, fmt.Errorf("%w after %d of %d trials: %w", domain.ErrSimulationCancelled, len(run.Outcomes), n, ctx.Err())
}

func runTrial(plan projection.Plan, sched projection.Schedule, model domain.ReturnModel, seed int64, index int, startTotal float64) domain.TrialOutcome {
	path := newRandomPath(model, plan.Years, trialSource(seed, index))
	res := projection.Run(plan, path, sched, projection.Options{})
	return domain.TrialOutcome{
		Index:       index,
		Success:     !res.Depleted,
		FinalWealth: res.FinalWealth,
		MaxDrawdown: maxDrawdown(startTotal, res.Balances),
		Balances:    res.Balances,
		Returns:     res.Returns,
	}
}
