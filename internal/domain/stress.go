package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StressCategory groups catalog entries.
type StressCategory string

const (
	CategoryMarket   StressCategory = "market"
	CategoryEconomic StressCategory = "economic"
	CategoryPersonal StressCategory = "personal"
)

// Severity is a shock intensity preset.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Multiplier returns the factor a preset applies to moderate magnitudes.
func (s Severity) Multiplier() (decimal.Decimal, error) {
	switch s {
	case SeverityMild:
		return decimal.NewFromFloat(0.5), nil
	case SeverityModerate:
		return decimal.NewFromInt(1), nil
	case SeveritySevere:
		return decimal.NewFromFloat(1.5), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown severity %q", string(s))
	}
}

// ShockTiming says when a shock's first year falls.
type ShockTiming string

const (
	TimingImmediate    ShockTiming = "immediate"
	TimingAtRetirement ShockTiming = "at_retirement"
)

// Shock parameter names understood by the stress engine.
const (
	ParamEquityDecline          = "equity_decline"
	ParamBondDecline            = "bond_decline"
	ParamReturnReduction        = "return_reduction"
	ParamInflationSpike         = "inflation_spike"
	ParamIncomeReductionPercent = "income_reduction_percent"
	ParamIncomeDisruptionMonths = "income_disruption_months"
	ParamEmergencyExpense       = "emergency_expense"
	ParamExpenseIncreasePercent = "expense_increase_percent"
)

// StressParameter is one overridable shock magnitude.
type StressParameter struct {
	Default     decimal.Decimal `yaml:"default" json:"default"`
	Min         decimal.Decimal `yaml:"min" json:"min"`
	Max         decimal.Decimal `yaml:"max" json:"max"`
	Step        decimal.Decimal `yaml:"step" json:"step"`
	Unit        string          `yaml:"unit" json:"unit"`
	Description string          `yaml:"description" json:"description"`
}

// Clamp bounds v to the parameter's [Min, Max] range.
func (p StressParameter) Clamp(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(p.Min) {
		return p.Min
	}
	if v.GreaterThan(p.Max) {
		return p.Max
	}
	return v
}

// StressScenario is a read-only catalog entry.
type StressScenario struct {
	ID            string                     `yaml:"id" json:"id"`
	Name          string                     `yaml:"name" json:"name"`
	Category      StressCategory             `yaml:"category" json:"category"`
	Severity      Severity                   `yaml:"severity" json:"severity"`
	Description   string                     `yaml:"description" json:"description"`
	Timing        ShockTiming                `yaml:"timing" json:"timing"`
	DurationYears int                        `yaml:"duration_years" json:"durationYears"`
	Parameters    map[string]StressParameter `yaml:"parameters" json:"parameters"`
}

// ImpactAnalysis breaks a shock's effect down against the baseline.
type ImpactAnalysis struct {
	PortfolioDeclinePercent decimal.Decimal `json:"portfolioDeclinePercent"`
	IncomeReductionPercent  decimal.Decimal `json:"incomeReductionPercent"`
	ExpenseIncreasePercent  decimal.Decimal `json:"expenseIncreasePercent"`
}

// StressStatus marks whether a stress id produced a result.
type StressStatus string

const (
	StressOK    StressStatus = "ok"
	StressError StressStatus = "error"
)

// StressTestResult is the outcome for one selected stress scenario.
type StressTestResult struct {
	ScenarioID string       `json:"scenarioId"`
	Name       string       `json:"name,omitempty"`
	Severity   Severity     `json:"severity,omitempty"`
	Status     StressStatus `json:"status"`
	Error      string       `json:"error,omitempty"`

	SurvivalProbability decimal.Decimal `json:"survivalProbability"` // percent
	ShortfallRisk       decimal.Decimal `json:"shortfallRisk"`
	ResilienceScore     decimal.Decimal `json:"resilienceScore"`
	WorstCaseOutcome    decimal.Decimal `json:"worstCaseOutcome"`
	RecoveryTimeYears   *int            `json:"recoveryTimeYears"`
	Impact              ImpactAnalysis  `json:"impactAnalysis"`

	AppliedParameters   map[string]decimal.Decimal `json:"appliedParameters,omitempty"`
	BaselineFinalWealth decimal.Decimal            `json:"baselineFinalWealth"`
	StressedFinalWealth decimal.Decimal            `json:"stressedFinalWealth"`
	Projection          []YearlyProjection         `json:"projection,omitempty"`
}

// Failed reports whether the scenario id could not be evaluated.
func (r StressTestResult) Failed() bool {
	return r.Status == StressError
}

// StressTestSummary aggregates a batch of stress results.
type StressTestSummary struct {
	Tested            int             `json:"tested"`
	Failed            int             `json:"failed"`
	AverageResilience decimal.Decimal `json:"averageResilience"`
	MinResilience     decimal.Decimal `json:"minResilience"`
	MaxShortfallRisk  decimal.Decimal `json:"maxShortfallRisk"`
	WorstScenarioID   string          `json:"worstScenarioId,omitempty"`
}
