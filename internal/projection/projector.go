package projection

import (
	"fmt"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Projector produces deterministic year-by-year cash-flow ledgers.
type Projector struct {
	logger zerolog.Logger
}

// NewProjector creates a projector with logging disabled.
func NewProjector() *Projector {
	return &Projector{logger: zerolog.Nop()}
}

// SetLogger sets the logger used for projection diagnostics.
func (p *Projector) SetLogger(l zerolog.Logger) {
	p.logger = l.With().Str("component", "projector").Logger()
}

// Project runs the scenario at its expected returns. It returns
// lifeExpectancy - clientAge rows, or an error wrapping
// domain.ErrInvalidScenario before any projection work is done.
func (p *Projector) Project(s domain.Scenario) ([]domain.YearlyProjection, error) {
	plan, err := PlanFromScenario(s)
	if err != nil {
		return nil, fmt.Errorf("project scenario %q: %w", s.ID, err)
	}
	res := p.ProjectPlan(plan, nil)
	return res.Rows, nil
}

// ProjectParameters runs the drawdown plan implied by simulation
// parameters at expected returns.
func (p *Projector) ProjectParameters(params domain.SimulationParameters) ([]domain.YearlyProjection, error) {
	plan, err := PlanFromParameters(params)
	if err != nil {
		return nil, fmt.Errorf("project parameters: %w", err)
	}
	return p.ProjectPlan(plan, nil).Rows, nil
}

// ProjectPlan runs an already-built plan, optionally perturbed by sched.
func (p *Projector) ProjectPlan(plan Plan, sched Schedule) Result {
	res := Run(plan, ExpectedReturns{Model: plan.Model}, sched, Options{RecordRows: true})
	ev := p.logger.Debug().
		Int("years", plan.Years).
		Str("final_wealth", res.FinalWealth.StringFixed(2)).
		Bool("depleted", res.Depleted)
	if res.Depleted {
		ev = ev.Int("depletion_year", res.DepletionYear)
	}
	ev.Msg("projection complete")
	return res
}

// Summarize condenses projection rows for reporting.
func Summarize(plan Plan, res Result) domain.ProjectionSummary {
	sum := domain.ProjectionSummary{
		Years:          len(res.Rows),
		StartingAssets: plan.StartingAssets(),
		PeakAssets:     plan.StartingAssets(),
		FinalWealth:    res.FinalWealth,
		TotalShortfall: res.TotalShortfall,
		Depleted:       res.Depleted,
	}
	if res.Depleted {
		age := plan.StartAge + res.DepletionYear - 1
		sum.DepletionAge = &age
	}

	income := decimal.Zero
	for i, row := range res.Rows {
		if row.TotalAssets.GreaterThan(sum.PeakAssets) {
			sum.PeakAssets = row.TotalAssets
		}
		if i == plan.RetireIndex-1 {
			sum.RetirementAssets = row.TotalAssets
			sum.EmergencyFundMet = row.CashSavings.GreaterThanOrEqual(plan.EmergencyFund)
		}
		income = income.Add(row.TotalIncome)
	}
	if plan.RetireIndex == 0 {
		sum.RetirementAssets = plan.StartingAssets()
		sum.EmergencyFundMet = plan.Cash.GreaterThanOrEqual(plan.EmergencyFund)
	}
	if len(res.Rows) > 0 {
		sum.AverageIncome = income.Div(decimal.NewFromInt(int64(len(res.Rows)))).Round(2)
	}
	sum.LegacyGoalMet = res.FinalWealth.GreaterThanOrEqual(plan.LegacyTarget)
	return sum
}
