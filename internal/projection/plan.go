package projection

import (
	"fmt"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
)

// Plan is the normalised ledger input shared by the deterministic projector,
// the Monte Carlo simulator and the stress engine. Amounts are year-one
// values; rates are decimal fractions.
type Plan struct {
	StartAge          int
	Years             int
	RetireIndex       int // first retired year, 0-based
	StatePensionIndex int // first year the state pension is paid, 0-based

	Income       decimal.Decimal
	IncomeGrowth decimal.Decimal
	Expenses     decimal.Decimal // pre-retirement outgoings
	Spending     decimal.Decimal // retirement spending need
	Contribution decimal.Decimal
	StatePension decimal.Decimal
	Inflation    decimal.Decimal

	PensionPot  decimal.Decimal
	Investments decimal.Decimal
	Cash        decimal.Decimal

	Allocation domain.Allocation
	Model      domain.ReturnModel

	EmergencyFund decimal.Decimal
	LegacyTarget  decimal.Decimal
}

// StartingAssets is the sum of the opening balances.
func (p Plan) StartingAssets() decimal.Decimal {
	return p.PensionPot.Add(p.Investments).Add(p.Cash)
}

// PlanFromScenario validates s and converts it to a ledger plan.
func PlanFromScenario(s domain.Scenario) (Plan, error) {
	if err := s.Validate(); err != nil {
		return Plan{}, err
	}

	spending := s.Goals.RetirementIncome
	if spending.IsZero() {
		spending = s.CurrentExpenses
	}
	spIndex := s.StatePensionAge - s.ClientAge
	if s.StatePensionAge == 0 || s.StatePensionAmount.IsZero() {
		spIndex = s.ProjectionYears()
	}
	if spIndex < 0 {
		spIndex = 0
	}

	return Plan{
		StartAge:          s.ClientAge,
		Years:             s.ProjectionYears(),
		RetireIndex:       s.YearsToRetirement(),
		StatePensionIndex: spIndex,
		Income:            s.CurrentIncome,
		IncomeGrowth:      s.Assumptions.IncomeGrowth,
		Expenses:          s.CurrentExpenses,
		Spending:          spending,
		Contribution:      s.PensionContribution,
		StatePension:      s.StatePensionAmount,
		Inflation:         s.Assumptions.InflationRate,
		PensionPot:        s.PensionPot,
		Investments:       s.InvestmentValue,
		Cash:              s.CurrentSavings,
		Allocation:        domain.AllocationForRisk(s.RiskScore),
		Model:             domain.ScenarioReturnModel(s.Assumptions),
		EmergencyFund:     s.Goals.EmergencyFund,
		LegacyTarget:      s.Goals.LegacyTarget,
	}, nil
}

// PlanFromParameters builds a drawdown-only plan: retired from the first
// year, the whole portfolio invested at the risk-score allocation, and an
// inflation-indexed withdrawal.
func PlanFromParameters(p domain.SimulationParameters) (Plan, error) {
	if p.TimeHorizon <= 0 {
		return Plan{}, fmt.Errorf("%w: time horizon must be positive, got %d", domain.ErrInvalidParameters, p.TimeHorizon)
	}
	if !p.InitialPortfolio.IsPositive() {
		return Plan{}, fmt.Errorf("%w: initial portfolio must be positive, got %s", domain.ErrInvalidParameters, p.InitialPortfolio)
	}
	if !p.AnnualWithdrawal.IsPositive() {
		return Plan{}, fmt.Errorf("%w: annual withdrawal must be positive, got %s", domain.ErrInvalidParameters, p.AnnualWithdrawal)
	}
	startAge := p.StartAge
	if startAge <= 0 {
		startAge = domain.DefaultStartAge
	}
	inflation := p.InflationRate.Div(decimal.NewFromInt(100))

	return Plan{
		StartAge:          startAge,
		Years:             p.TimeHorizon,
		RetireIndex:       0,
		StatePensionIndex: p.TimeHorizon,
		Spending:          p.AnnualWithdrawal,
		Inflation:         inflation,
		Investments:       p.InitialPortfolio,
		Allocation:        domain.AllocationForRisk(p.RiskScore),
		Model:             domain.DefaultReturnModel(),
	}, nil
}

// RetirementPoint is where the deterministic projection stands when the
// first retired year begins, in that year's money.
type RetirementPoint struct {
	Age    int
	Years  int             // retired years left in the plan
	Assets decimal.Decimal // balances carried into the first retired year
	Gap    decimal.Decimal // first-year spending not covered by the state pension
}

// RetirementPoint projects the plan at expected returns up to retirement.
// A plan that starts retired needs no projection.
func (p Plan) RetirementPoint() RetirementPoint {
	pt := RetirementPoint{
		Age:    p.StartAge + p.RetireIndex,
		Years:  p.Years - p.RetireIndex,
		Assets: p.StartingAssets(),
	}
	priceIndex := one
	if p.RetireIndex > 0 {
		accumulation := p
		accumulation.Years = p.RetireIndex
		res := Run(accumulation, ExpectedReturns{Model: p.Model}, nil, Options{})
		pt.Assets = res.FinalWealth
		priceIndex = one.Add(p.Inflation).Pow(decimal.NewFromInt(int64(p.RetireIndex)))
	}

	gap := p.Spending
	if p.StatePensionIndex <= p.RetireIndex {
		gap = gap.Sub(p.StatePension)
	}
	pt.Gap = money(floorZero(gap).Mul(priceIndex))
	return pt
}

// WithdrawalRate is the first retirement year's spending gap as a
// percentage of the assets carried into retirement. It is zero when
// nothing needs withdrawing or nothing is left to withdraw from.
func (p Plan) WithdrawalRate() decimal.Decimal {
	pt := p.RetirementPoint()
	if !pt.Assets.IsPositive() {
		return decimal.Zero
	}
	return pt.Gap.Div(pt.Assets).Mul(hundred)
}
