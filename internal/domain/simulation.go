package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSimulationCount is used when parameters leave the trial count unset.
const DefaultSimulationCount = 1000

// DefaultStartAge is the assumed age for parameter-only drawdown runs.
const DefaultStartAge = 65

// SimulationParameters configures a Monte Carlo run. InflationRate and
// Volatility are percentages (2.5 = 2.5%).
type SimulationParameters struct {
	InitialPortfolio decimal.Decimal `yaml:"initial_portfolio" json:"initialPortfolio"`
	TimeHorizon      int             `yaml:"time_horizon" json:"timeHorizon"`
	AnnualWithdrawal decimal.Decimal `yaml:"annual_withdrawal" json:"annualWithdrawal"`
	RiskScore        int             `yaml:"risk_score" json:"riskScore"`
	InflationRate    decimal.Decimal `yaml:"inflation_rate" json:"inflationRate"`
	SimulationCount  int             `yaml:"simulation_count" json:"simulationCount"`
	StartAge         int             `yaml:"start_age,omitempty" json:"startAge,omitempty"`
	Seed             *int64          `yaml:"seed,omitempty" json:"seed,omitempty"`
	Volatility       *float64        `yaml:"volatility,omitempty" json:"volatility,omitempty"`
}

// WithdrawalRate is the annual withdrawal as a percentage of the initial
// portfolio. It is zero when the portfolio is not positive.
func (p SimulationParameters) WithdrawalRate() decimal.Decimal {
	if !p.InitialPortfolio.IsPositive() {
		return decimal.Zero
	}
	return p.AnnualWithdrawal.Div(p.InitialPortfolio).Mul(decimal.NewFromInt(100))
}

// PercentileBand holds the reported percentiles of one distribution.
type PercentileBand struct {
	P10 decimal.Decimal `json:"p10"`
	P25 decimal.Decimal `json:"p25"`
	P50 decimal.Decimal `json:"p50"`
	P75 decimal.Decimal `json:"p75"`
	P90 decimal.Decimal `json:"p90"`
}

// Ordered reports whether p10 <= p25 <= p50 <= p75 <= p90.
func (b PercentileBand) Ordered() bool {
	return b.P10.LessThanOrEqual(b.P25) &&
		b.P25.LessThanOrEqual(b.P50) &&
		b.P50.LessThanOrEqual(b.P75) &&
		b.P75.LessThanOrEqual(b.P90)
}

// YearlyPercentiles is one fan-chart row of total assets across trials.
type YearlyPercentiles struct {
	Year int `json:"year"`
	Age  int `json:"age"`
	PercentileBand
}

// TrialOutcome is the record one Monte Carlo trial contributes to aggregation.
type TrialOutcome struct {
	Index       int
	Success     bool
	FinalWealth decimal.Decimal
	MaxDrawdown float64   // fraction 0..1
	Balances    []float64 // year-end total assets
	Returns     []float64 // blended portfolio returns
}

// SimulationResults aggregates a Monte Carlo run.
type SimulationResults struct {
	SimulationCount int  `json:"simulationCount"`
	RequestedCount  int  `json:"requestedCount"`
	Partial         bool `json:"partial"`

	SuccessRate         decimal.Decimal `json:"successRate"`
	ShortfallRisk       decimal.Decimal `json:"shortfallRisk"`
	AverageFinalWealth  decimal.Decimal `json:"averageFinalWealth"`
	MedianFinalWealth   decimal.Decimal `json:"medianFinalWealth"`
	ConfidenceIntervals PercentileBand  `json:"confidenceIntervals"`
	MaxDrawdown         decimal.Decimal `json:"maxDrawdown"`
	Volatility          decimal.Decimal `json:"volatility"`
	RealizedVolatility  decimal.Decimal `json:"realizedVolatility"`
	ExpectedReturn      decimal.Decimal `json:"expectedReturn"`
	WithdrawalRate      decimal.Decimal `json:"withdrawalRate"`
	WithdrawalRisk      string          `json:"withdrawalRisk"`
	RiskLevel           string          `json:"riskLevel"`

	YearlyPercentiles []YearlyPercentiles `json:"yearlyPercentiles"`

	Allocation    Allocation    `json:"allocation"`
	Seed          int64         `json:"seed"`
	ExecutionTime time.Duration `json:"executionTime"`
}

// RiskLevelForSuccess classifies a success rate (percent).
func RiskLevelForSuccess(successRate decimal.Decimal) string {
	switch {
	case successRate.GreaterThanOrEqual(decimal.NewFromInt(95)):
		return "low"
	case successRate.GreaterThanOrEqual(decimal.NewFromInt(85)):
		return "moderate"
	case successRate.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return "high"
	default:
		return "very_high"
	}
}

// WithdrawalRiskForRate classifies a withdrawal rate (percent) using the
// same bands the validator warns on.
func WithdrawalRiskForRate(rate decimal.Decimal) string {
	switch {
	case rate.GreaterThan(decimal.NewFromInt(7)):
		return "very_high"
	case rate.GreaterThan(decimal.NewFromInt(5)):
		return "high"
	case rate.GreaterThan(decimal.NewFromInt(4)):
		return "moderate"
	default:
		return "low"
	}
}
