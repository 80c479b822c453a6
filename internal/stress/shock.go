package stress

import (
	"fmt"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ResolveParameters returns the shock magnitudes to apply for entry. Defaults
// are rescaled when severity differs from the entry's own severity, custom
// values replace defaults, and every value is clamped to its [min, max].
func ResolveParameters(entry domain.StressScenario, severity domain.Severity, custom map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	factor := decimal.NewFromInt(1)
	if severity != "" && severity != entry.Severity {
		want, err := severity.Multiplier()
		if err != nil {
			return nil, err
		}
		have, err := entry.Severity.Multiplier()
		if err != nil {
			return nil, err
		}
		factor = want.Div(have)
	}

	for name := range custom {
		if _, ok := entry.Parameters[name]; !ok {
			return nil, fmt.Errorf("stress scenario %q has no parameter %q", entry.ID, name)
		}
	}

	values := make(map[string]decimal.Decimal, len(entry.Parameters))
	for name, p := range entry.Parameters {
		v := p.Default.Mul(factor)
		if c, ok := custom[name]; ok {
			v = c
		}
		values[name] = p.Clamp(v)
	}
	return values, nil
}

// ShockStart returns the 0-based projection year in which entry's shock begins.
func ShockStart(plan projection.Plan, entry domain.StressScenario) int {
	start := 0
	if entry.Timing == domain.TimingAtRetirement {
		start = plan.RetireIndex
	}
	if start >= plan.Years {
		start = plan.Years - 1
	}
	return max(start, 0)
}

// BuildSchedule turns resolved shock values into per-year ledger
// adjustments. Crash declines and emergency expenses hit the first shock
// year; return reductions, inflation spikes and expense increases last
// DurationYears; income disruption spans income_disruption_months.
func BuildSchedule(plan projection.Plan, entry domain.StressScenario, values map[string]decimal.Decimal) projection.Schedule {
	sched := make(projection.Schedule, plan.Years)
	if plan.Years == 0 {
		return sched
	}
	start := ShockStart(plan, entry)
	end := min(start+max(entry.DurationYears, 1), plan.Years)

	if v, ok := values[domain.ParamEquityDecline]; ok {
		sched[start].ReturnDelta[domain.Equity] = sched[start].ReturnDelta[domain.Equity].Sub(v.Div(hundred))
	}
	if v, ok := values[domain.ParamBondDecline]; ok {
		sched[start].ReturnDelta[domain.Bonds] = sched[start].ReturnDelta[domain.Bonds].Sub(v.Div(hundred))
	}
	if v, ok := values[domain.ParamEmergencyExpense]; ok {
		sched[start].ExtraExpense = sched[start].ExtraExpense.Add(v)
	}

	for y := start; y < end; y++ {
		adj := &sched[y]
		if v, ok := values[domain.ParamReturnReduction]; ok {
			cut := v.Div(hundred)
			adj.ReturnDelta[domain.Equity] = adj.ReturnDelta[domain.Equity].Sub(cut)
			adj.ReturnDelta[domain.Bonds] = adj.ReturnDelta[domain.Bonds].Sub(cut)
		}
		if v, ok := values[domain.ParamInflationSpike]; ok {
			adj.InflationDelta = adj.InflationDelta.Add(v.Div(hundred))
		}
		if v, ok := values[domain.ParamExpenseIncreasePercent]; ok {
			adj.ExpenseIncrease = adj.ExpenseIncrease.Add(v.Div(hundred))
		}
	}

	if pct, ok := values[domain.ParamIncomeReductionPercent]; ok {
		months, ok := values[domain.ParamIncomeDisruptionMonths]
		if !ok {
			months = decimal.NewFromInt(int64(end-start) * 12)
		}
		cut := pct.Div(hundred)
		for y := start; y < plan.Years && months.IsPositive(); y++ {
			m := decimal.Min(months, twelve)
			sched[y].IncomeCut = decimal.Min(sched[y].IncomeCut.Add(cut.Mul(m).Div(twelve)), decimal.NewFromInt(1))
			months = months.Sub(m)
		}
	}
	return sched
}
