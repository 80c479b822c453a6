package projection

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func testScenario() domain.Scenario {
	return domain.Scenario{
		ID:                  "smith-2026",
		Name:                "Smith household",
		ClientAge:           55,
		RetirementAge:       65,
		LifeExpectancy:      90,
		StatePensionAge:     67,
		StatePensionAmount:  d(11500),
		CurrentIncome:       d(60000),
		CurrentExpenses:     d(35000),
		CurrentSavings:      d(20000),
		PensionPot:          d(250000),
		InvestmentValue:     d(100000),
		PensionContribution: d(6000),
		RiskScore:           6,
		Assumptions: domain.MarketAssumptions{
			InflationRate: d(0.025),
			EquityReturn:  d(0.05),
			BondReturn:    d(0.015),
			CashReturn:    d(0.005),
			IncomeGrowth:  d(0.025),
		},
		Goals: domain.Goals{
			RetirementIncome: d(30000),
			EmergencyFund:    d(10000),
		},
	}
}

func TestProjector_Length(t *testing.T) {
	rows, err := NewProjector().Project(testScenario())
	require.NoError(t, err)

	assert.Len(t, rows, 35, "Should produce lifeExpectancy - clientAge rows")
	assert.Equal(t, 1, rows[0].Year)
	assert.Equal(t, 55, rows[0].Age)
	assert.Equal(t, 35, rows[34].Year)
	assert.Equal(t, 89, rows[34].Age)
}

func TestProjector_FirstYearCashFlows(t *testing.T) {
	rows, err := NewProjector().Project(testScenario())
	require.NoError(t, err)

	first := rows[0]
	assert.False(t, first.Retired)
	assert.True(t, first.EmploymentIncome.Equal(d(60000)), "got %s", first.EmploymentIncome)
	assert.True(t, first.Contributions.Equal(d(6000)), "got %s", first.Contributions)
	assert.True(t, first.TotalExpenses.Equal(d(35000)), "got %s", first.TotalExpenses)
	assert.True(t, first.Surplus.Equal(d(19000)), "got %s", first.Surplus)
	assert.True(t, first.ExpectedWithdrawal.IsZero())
	assert.True(t, first.PensionPot.GreaterThan(d(256000)), "contribution and growth should lift the pot")
}

func TestProjector_RetirementAndStatePension(t *testing.T) {
	rows, err := NewProjector().Project(testScenario())
	require.NoError(t, err)

	assert.False(t, rows[9].Retired, "age 64 still working")
	assert.True(t, rows[10].Retired, "age 65 retired")
	assert.True(t, rows[10].EmploymentIncome.IsZero())
	assert.True(t, rows[10].Withdrawal.IsPositive(), "retirement spending is drawn from assets")

	assert.True(t, rows[11].StatePension.IsZero(), "age 66 before state pension age")
	assert.True(t, rows[12].StatePension.IsPositive(), "age 67 receives state pension")
	assert.True(t, rows[12].ExpectedWithdrawal.LessThan(rows[11].ExpectedWithdrawal),
		"state pension should reduce the drawdown need")
}

func TestProjector_Deterministic(t *testing.T) {
	p := NewProjector()
	first, err := p.Project(testScenario())
	require.NoError(t, err)
	second, err := p.Project(testScenario())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b), "identical scenarios must give identical ledgers")
}

func TestProjector_InvalidScenario(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Scenario)
		field  string
	}{
		{"retirement equals client age", func(s *domain.Scenario) { s.RetirementAge = s.ClientAge }, "retirement_age"},
		{"life expectancy before retirement", func(s *domain.Scenario) { s.LifeExpectancy = 60 }, "life_expectancy"},
		{"risk score out of range", func(s *domain.Scenario) { s.RiskScore = 11 }, "risk_score"},
		{"negative savings", func(s *domain.Scenario) { s.CurrentSavings = d(-1) }, "current_savings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testScenario()
			tt.mutate(&s)

			rows, err := NewProjector().Project(s)
			require.Error(t, err)
			assert.Nil(t, rows)
			assert.True(t, errors.Is(err, domain.ErrInvalidScenario))

			var se *domain.ScenarioError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestProjector_FloorsBalancesAndRecordsShortfall(t *testing.T) {
	s := domain.Scenario{
		ClientAge:       60,
		RetirementAge:   61,
		LifeExpectancy:  70,
		CurrentIncome:   d(30000),
		CurrentExpenses: d(20000),
		CurrentSavings:  d(1000),
		RiskScore:       3,
		Assumptions:     domain.DefaultMarketAssumptions(),
	}
	p := NewProjector()
	plan, err := PlanFromScenario(s)
	require.NoError(t, err)
	res := p.ProjectPlan(plan, nil)
	rows := res.Rows

	for _, row := range rows {
		assert.False(t, row.TotalAssets.IsNegative(), "year %d assets negative", row.Year)
		assert.True(t, row.Withdrawal.LessThanOrEqual(row.ExpectedWithdrawal), "year %d overdrawn", row.Year)
		assert.True(t, row.Shortfall.Equal(row.ExpectedWithdrawal.Sub(row.Withdrawal)))
	}

	assert.True(t, rows[1].Withdrawal.Equal(rows[0].CashSavings), "withdrawal capped at available cash")
	assert.True(t, rows[1].Shortfall.IsPositive())
	assert.True(t, rows[9].TotalAssets.IsZero())

	sum := Summarize(plan, res)
	assert.True(t, sum.Depleted)
	require.NotNil(t, sum.DepletionAge)
	assert.Equal(t, 61, *sum.DepletionAge)
	assert.True(t, sum.TotalShortfall.IsPositive())
}

func TestProjector_ProjectParameters(t *testing.T) {
	params := domain.SimulationParameters{
		InitialPortfolio: d(500000),
		TimeHorizon:      25,
		AnnualWithdrawal: d(20000),
		RiskScore:        7,
		InflationRate:    d(2.5),
		SimulationCount:  1000,
	}

	rows, err := NewProjector().ProjectParameters(params)
	require.NoError(t, err)
	require.Len(t, rows, 25)

	assert.True(t, rows[0].Retired)
	assert.Equal(t, domain.DefaultStartAge, rows[0].Age)
	assert.True(t, rows[0].Withdrawal.Equal(d(20000)))
	assert.True(t, rows[1].Withdrawal.Equal(d(20500)), "withdrawal should be inflation indexed, got %s", rows[1].Withdrawal)
	for _, row := range rows {
		assert.True(t, row.Shortfall.IsZero(), "4%% withdrawal at risk 7 should not deplete")
	}

	_, err = NewProjector().ProjectParameters(domain.SimulationParameters{InitialPortfolio: d(1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
}

func TestPlanFromParameters_RejectsNonPositiveMoney(t *testing.T) {
	base := domain.SimulationParameters{
		InitialPortfolio: d(500000),
		TimeHorizon:      25,
		AnnualWithdrawal: d(20000),
		RiskScore:        7,
		InflationRate:    d(2.5),
	}

	noPortfolio := base
	noPortfolio.InitialPortfolio = decimal.Zero
	_, err := PlanFromParameters(noPortfolio)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
	assert.Contains(t, err.Error(), "initial portfolio")

	noWithdrawal := base
	noWithdrawal.AnnualWithdrawal = d(-1)
	_, err = PlanFromParameters(noWithdrawal)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
	assert.Contains(t, err.Error(), "annual withdrawal")

	_, err = PlanFromParameters(base)
	assert.NoError(t, err)
}

func TestPlan_RetirementPoint(t *testing.T) {
	s := testScenario()
	plan, err := PlanFromScenario(s)
	require.NoError(t, err)
	rows, err := NewProjector().Project(s)
	require.NoError(t, err)

	pt := plan.RetirementPoint()
	assert.Equal(t, 65, pt.Age)
	assert.Equal(t, 25, pt.Years)
	assert.True(t, pt.Assets.Equal(rows[9].TotalAssets), "assets %s vs last working year %s", pt.Assets, rows[9].TotalAssets)
	assert.InDelta(t, rows[10].TotalExpenses.InexactFloat64(), pt.Gap.InexactFloat64(), 0.01,
		"state pension starts at 67 so the whole first-year spending is the gap")
	assert.True(t, plan.WithdrawalRate().Equal(pt.Gap.Div(pt.Assets).Mul(d(100))))

	covered := plan
	covered.StatePensionIndex = plan.RetireIndex
	covered.StatePension = d(40000)
	assert.True(t, covered.RetirementPoint().Gap.IsZero())
	assert.True(t, covered.WithdrawalRate().IsZero())

	drawdown, err := PlanFromParameters(domain.SimulationParameters{
		InitialPortfolio: d(500000),
		TimeHorizon:      25,
		AnnualWithdrawal: d(20000),
		RiskScore:        7,
		InflationRate:    d(2.5),
	})
	require.NoError(t, err)
	pt = drawdown.RetirementPoint()
	assert.True(t, pt.Assets.Equal(d(500000)))
	assert.True(t, pt.Gap.Equal(d(20000)))
	assert.Equal(t, 25, pt.Years)
}

func TestRun_ScheduleLowersWealth(t *testing.T) {
	plan, err := PlanFromScenario(testScenario())
	require.NoError(t, err)
	path := ExpectedReturns{Model: plan.Model}

	base := Run(plan, path, nil, Options{})
	sched := Schedule{{ExtraExpense: d(25000), ReturnDelta: domain.ClassReturns{d(-0.3), decimal.Zero, decimal.Zero}}}
	shocked := Run(plan, path, sched, Options{})

	assert.Nil(t, base.Rows, "rows are only recorded on request")
	assert.Len(t, base.Balances, plan.Years)
	assert.True(t, shocked.FinalWealth.LessThan(base.FinalWealth))
	for i := range base.Balances {
		assert.LessOrEqual(t, shocked.Balances[i], base.Balances[i], "year %d", i+1)
	}
}

func TestSummarize_Goals(t *testing.T) {
	s := testScenario()
	s.Goals.LegacyTarget = d(1)
	plan, err := PlanFromScenario(s)
	require.NoError(t, err)
	res := NewProjector().ProjectPlan(plan, nil)

	sum := Summarize(plan, res)
	assert.Equal(t, 35, sum.Years)
	assert.True(t, sum.StartingAssets.Equal(d(370000)))
	assert.True(t, sum.PeakAssets.GreaterThanOrEqual(sum.RetirementAssets))
	assert.True(t, sum.RetirementAssets.IsPositive())
	assert.True(t, sum.EmergencyFundMet)
	assert.Equal(t, !res.Depleted, sum.DepletionAge == nil)
}
