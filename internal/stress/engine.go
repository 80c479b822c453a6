package stress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/plannetic/ifaengine/internal/simulation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
)

// Options controls a stress batch.
type Options struct {
	// Severity rescales every selected entry. Empty keeps each entry's own.
	Severity domain.Severity
	// Trials > 0 switches survival and worst case to Monte Carlo estimates.
	Trials int
	// Seed is shared by the baseline and every stressed trial set.
	Seed *int64
	// IncludeProjection attaches the stressed yearly ledger to each result.
	IncludeProjection bool
}

// Engine applies catalog shocks to a baseline scenario and compares the
// shocked runs to the unshocked one.
type Engine struct {
	catalog   *Catalog
	projector *projection.Projector
	simulator *simulation.Simulator
	logger    zerolog.Logger
}

// NewEngine creates an engine over catalog. A nil simulator gets the
// default configuration.
func NewEngine(catalog *Catalog, sim *simulation.Simulator) *Engine {
	if sim == nil {
		sim = simulation.NewSimulator(simulation.DefaultConfig())
	}
	return &Engine{
		catalog:   catalog,
		projector: projection.NewProjector(),
		simulator: sim,
		logger:    zerolog.Nop(),
	}
}

// SetLogger sets the logger used for stress diagnostics.
func (e *Engine) SetLogger(l zerolog.Logger) {
	e.logger = l.With().Str("component", "stress").Logger()
	e.projector.SetLogger(l)
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

type baseline struct {
	plan   projection.Plan
	result projection.Result
	trials *simulation.TrialRun
	params domain.SimulationParameters
}

// Run evaluates each id against scenario and returns one result per id in
// the order given. Ids that cannot be resolved or applied produce a result
// with Status error; they never stop the rest of the batch. An invalid
// scenario or a cancelled context fails the whole call.
func (e *Engine) Run(ctx context.Context, scenario domain.Scenario, ids []string, custom Overrides, opts Options) ([]domain.StressTestResult, error) {
	plan, err := projection.PlanFromScenario(scenario)
	if err != nil {
		return nil, fmt.Errorf("stress test scenario %q: %w", scenario.ID, err)
	}

	base := baseline{plan: plan, result: e.projector.ProjectPlan(plan, nil)}
	if opts.Trials > 0 {
		seed := time.Now().UnixNano()
		if opts.Seed != nil {
			seed = *opts.Seed
		}
		base.params = domain.SimulationParameters{SimulationCount: opts.Trials, Seed: &seed}
		base.trials, err = e.simulator.Trials(ctx, plan, nil, base.params)
		if err != nil {
			return nil, fmt.Errorf("stress baseline trials: %w", err)
		}
	}

	e.logger.Debug().
		Str("scenario", scenario.ID).
		Strs("stress_ids", ids).
		Int("trials", opts.Trials).
		Str("baseline_final", base.result.FinalWealth.StringFixed(2)).
		Msg("running stress tests")

	results := make([]domain.StressTestResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stress tests cancelled: %w", err)
		}
		res, err := e.runOne(ctx, base, id, custom.For(id), opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("stress test %s: %w", id, err)
			}
			e.logger.Warn().Err(err).Str("stress_id", id).Msg("stress scenario failed")
			results = append(results, domain.StressTestResult{
				ScenarioID: id,
				Status:     domain.StressError,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) runOne(ctx context.Context, base baseline, id string, custom map[string]decimal.Decimal, opts Options) (domain.StressTestResult, error) {
	entry, err := e.catalog.Get(id)
	if err != nil {
		return domain.StressTestResult{}, err
	}
	severity := entry.Severity
	if opts.Severity != "" {
		severity = opts.Severity
	}
	values, err := ResolveParameters(entry, severity, custom)
	if err != nil {
		return domain.StressTestResult{}, err
	}

	plan := base.plan
	sched := BuildSchedule(plan, entry, values)
	stressed := e.projector.ProjectPlan(plan, sched)

	start := ShockStart(plan, entry)
	recovery := RecoveryYears(base.result.Balances, stressed.Balances, start)
	decline := WealthDecline(base.result.FinalWealth, stressed.FinalWealth, stressed.Depleted)

	survival := 1.0
	if stressed.Depleted {
		survival = 0
	}
	worst := stressed.FinalWealth.Sub(base.result.FinalWealth)

	if base.trials != nil {
		run, err := e.simulator.Trials(ctx, plan, sched, base.params)
		if err != nil {
			return domain.StressTestResult{}, err
		}
		survival, worst, err = compareTrials(base.trials.Outcomes, run.Outcomes)
		if err != nil {
			return domain.StressTestResult{}, err
		}
	}

	survivalPct := decimal.NewFromFloat(survival * 100).Round(2)
	res := domain.StressTestResult{
		ScenarioID:          entry.ID,
		Name:                entry.Name,
		Severity:            severity,
		Status:              domain.StressOK,
		SurvivalProbability: survivalPct,
		ShortfallRisk:       hundred.Sub(survivalPct),
		ResilienceScore:     ResilienceScore(survival, decline, recovery, plan.Years-start),
		WorstCaseOutcome:    worst.Round(2),
		RecoveryTimeYears:   recovery,
		Impact:              analyzeImpact(base.result.Rows, stressed.Rows),
		AppliedParameters:   values,
		BaselineFinalWealth: base.result.FinalWealth,
		StressedFinalWealth: stressed.FinalWealth,
	}
	if opts.IncludeProjection {
		res.Projection = stressed.Rows
	}

	e.logger.Debug().
		Str("stress_id", entry.ID).
		Str("severity", string(severity)).
		Str("resilience", res.ResilienceScore.String()).
		Str("survival", res.SurvivalProbability.String()).
		Msg("stress scenario evaluated")
	return res, nil
}

// compareTrials pairs baseline and stressed trials by index and returns the
// stressed success fraction and the most negative final-wealth delta.
func compareTrials(baseline, stressed []domain.TrialOutcome) (float64, decimal.Decimal, error) {
	if len(stressed) == 0 || len(baseline) != len(stressed) {
		return 0, decimal.Zero, errors.New("baseline and stressed trial sets differ in size")
	}
	byIndex := make(map[int]decimal.Decimal, len(baseline))
	for _, o := range baseline {
		byIndex[o.Index] = o.FinalWealth
	}

	deltas := make([]float64, 0, len(stressed))
	survived := 0
	for _, o := range stressed {
		b, ok := byIndex[o.Index]
		if !ok {
			return 0, decimal.Zero, fmt.Errorf("no baseline trial %d", o.Index)
		}
		if o.Success {
			survived++
		}
		deltas = append(deltas, o.FinalWealth.Sub(b).InexactFloat64())
	}
	return float64(survived) / float64(len(stressed)), decimal.NewFromFloat(floats.Min(deltas)), nil
}

func analyzeImpact(base, stressed []domain.YearlyProjection) domain.ImpactAnalysis {
	impact := domain.ImpactAnalysis{
		PortfolioDeclinePercent: decimal.Zero,
		IncomeReductionPercent:  decimal.Zero,
		ExpenseIncreasePercent:  decimal.Zero,
	}
	n := min(len(base), len(stressed))
	baseIncome, stressedIncome := decimal.Zero, decimal.Zero
	baseExpenses, stressedExpenses := decimal.Zero, decimal.Zero

	for i := 0; i < n; i++ {
		b, s := base[i], stressed[i]
		if b.TotalAssets.IsPositive() {
			fall := b.TotalAssets.Sub(s.TotalAssets).Div(b.TotalAssets).Mul(hundred)
			if fall.GreaterThan(impact.PortfolioDeclinePercent) {
				impact.PortfolioDeclinePercent = fall
			}
		}
		baseIncome = baseIncome.Add(b.EmploymentIncome).Add(b.StatePension)
		stressedIncome = stressedIncome.Add(s.EmploymentIncome).Add(s.StatePension)
		baseExpenses = baseExpenses.Add(b.TotalExpenses)
		stressedExpenses = stressedExpenses.Add(s.TotalExpenses)
	}

	impact.PortfolioDeclinePercent = decimal.Min(impact.PortfolioDeclinePercent, hundred).Round(2)
	if baseIncome.IsPositive() {
		impact.IncomeReductionPercent = floorPercent(baseIncome.Sub(stressedIncome).Div(baseIncome).Mul(hundred))
	}
	if baseExpenses.IsPositive() {
		impact.ExpenseIncreasePercent = floorPercent(stressedExpenses.Sub(baseExpenses).Div(baseExpenses).Mul(hundred))
	}
	return impact
}

func floorPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}
