package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scenario is the baseline set of financial facts and assumptions for one
// client's retirement plan. Rates are decimal fractions (0.025 = 2.5%).
type Scenario struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`

	ClientAge      int `yaml:"client_age" json:"clientAge"`
	RetirementAge  int `yaml:"retirement_age" json:"retirementAge"`
	LifeExpectancy int `yaml:"life_expectancy" json:"lifeExpectancy"`

	StatePensionAge    int             `yaml:"state_pension_age" json:"statePensionAge"`
	StatePensionAmount decimal.Decimal `yaml:"state_pension_amount" json:"statePensionAmount"` // annual, today's money

	CurrentIncome       decimal.Decimal `yaml:"current_income" json:"currentIncome"`
	CurrentExpenses     decimal.Decimal `yaml:"current_expenses" json:"currentExpenses"`
	CurrentSavings      decimal.Decimal `yaml:"current_savings" json:"currentSavings"`
	PensionPot          decimal.Decimal `yaml:"pension_pot" json:"pensionPot"`
	InvestmentValue     decimal.Decimal `yaml:"investment_value" json:"investmentValue"`
	PensionContribution decimal.Decimal `yaml:"pension_contribution" json:"pensionContribution"` // annual, until retirement

	RiskScore   int               `yaml:"risk_score" json:"riskScore"`
	Assumptions MarketAssumptions `yaml:"assumptions" json:"assumptions"`
	Goals       Goals             `yaml:"goals" json:"goals"`
}

// MarketAssumptions holds the scenario's real return assumptions per asset class.
type MarketAssumptions struct {
	InflationRate decimal.Decimal `yaml:"inflation_rate" json:"inflationRate"`
	EquityReturn  decimal.Decimal `yaml:"equity_return" json:"equityReturn"`
	BondReturn    decimal.Decimal `yaml:"bond_return" json:"bondReturn"`
	CashReturn    decimal.Decimal `yaml:"cash_return" json:"cashReturn"`
	IncomeGrowth  decimal.Decimal `yaml:"income_growth" json:"incomeGrowth"`
}

// Goals are the client's planning targets in today's money.
type Goals struct {
	RetirementIncome decimal.Decimal `yaml:"retirement_income" json:"retirementIncome"`
	EmergencyFund    decimal.Decimal `yaml:"emergency_fund" json:"emergencyFund"`
	LegacyTarget     decimal.Decimal `yaml:"legacy_target" json:"legacyTarget"`
}

// DefaultMarketAssumptions returns the house view used when a scenario file
// carries no assumptions block.
func DefaultMarketAssumptions() MarketAssumptions {
	return MarketAssumptions{
		InflationRate: decimal.NewFromFloat(0.025),
		EquityReturn:  decimal.NewFromFloat(0.05),
		BondReturn:    decimal.NewFromFloat(0.015),
		CashReturn:    decimal.NewFromFloat(0.005),
		IncomeGrowth:  decimal.NewFromFloat(0.025),
	}
}

// ProjectionYears is the number of rows a projection of s produces.
func (s Scenario) ProjectionYears() int {
	return s.LifeExpectancy - s.ClientAge
}

// YearsToRetirement returns how many projection years precede retirement.
func (s Scenario) YearsToRetirement() int {
	return s.RetirementAge - s.ClientAge
}

// Validate checks the structural invariants every engine relies on.
func (s Scenario) Validate() error {
	if s.ClientAge < 18 {
		return newScenarioError("client_age", fmt.Sprintf("must be at least 18, got %d", s.ClientAge))
	}
	if s.RetirementAge <= s.ClientAge {
		return newScenarioError("retirement_age", fmt.Sprintf("must be greater than client age %d, got %d", s.ClientAge, s.RetirementAge))
	}
	if s.LifeExpectancy <= s.RetirementAge {
		return newScenarioError("life_expectancy", fmt.Sprintf("must be greater than retirement age %d, got %d", s.RetirementAge, s.LifeExpectancy))
	}
	if s.LifeExpectancy > 120 {
		return newScenarioError("life_expectancy", fmt.Sprintf("must not exceed 120, got %d", s.LifeExpectancy))
	}
	if s.StatePensionAge < 0 {
		return newScenarioError("state_pension_age", "must not be negative")
	}
	if s.RiskScore < MinRiskScore || s.RiskScore > MaxRiskScore {
		return newScenarioError("risk_score", fmt.Sprintf("must be between %d and %d, got %d", MinRiskScore, MaxRiskScore, s.RiskScore))
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"state_pension_amount", s.StatePensionAmount},
		{"current_income", s.CurrentIncome},
		{"current_expenses", s.CurrentExpenses},
		{"current_savings", s.CurrentSavings},
		{"pension_pot", s.PensionPot},
		{"investment_value", s.InvestmentValue},
		{"pension_contribution", s.PensionContribution},
		{"goals.retirement_income", s.Goals.RetirementIncome},
		{"goals.emergency_fund", s.Goals.EmergencyFund},
		{"goals.legacy_target", s.Goals.LegacyTarget},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return newScenarioError(a.field, "must not be negative")
		}
	}

	if s.Assumptions.InflationRate.LessThanOrEqual(decimal.NewFromFloat(-0.1)) {
		return newScenarioError("assumptions.inflation_rate", "must be greater than -10%")
	}
	return nil
}

// TotalAssets is the sum of the scenario's starting balances.
func (s Scenario) TotalAssets() decimal.Decimal {
	return s.CurrentSavings.Add(s.PensionPot).Add(s.InvestmentValue)
}
