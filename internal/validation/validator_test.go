package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(portfolio, withdrawal int64, horizon, risk int, inflation float64) domain.SimulationParameters {
	return domain.SimulationParameters{
		InitialPortfolio: decimal.NewFromInt(portfolio),
		AnnualWithdrawal: decimal.NewFromInt(withdrawal),
		TimeHorizon:      horizon,
		RiskScore:        risk,
		InflationRate:    decimal.NewFromFloat(inflation),
		SimulationCount:  1000,
	}
}

var rateBandCodes = []string{CodeRateUnsustainable, CodeRateHigh, CodeRateElevated, CodeRateElevatedLongHorizon}

func bandCodes(res domain.ValidationResult) []string {
	var found []string
	for _, code := range rateBandCodes {
		if res.HasIssue(code) {
			found = append(found, code)
		}
	}
	return found
}

func TestValidate_FourPercentHasNoRateWarning(t *testing.T) {
	res := NewValidator().Validate(params(100000, 4000, 25, 5, 2.5))

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, bandCodes(res), "4%% is at the threshold and must not warn")
	assert.True(t, res.WithdrawalRate.Equal(decimal.NewFromInt(4)))
}

func TestValidate_ElevenPercentIsUnsustainable(t *testing.T) {
	res := NewValidator().Validate(params(100000, 11000, 25, 5, 2.5))

	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "unsustainable")
	assert.Equal(t, []string{CodeRateUnsustainable}, bandCodes(res))

	err := res.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
}

func TestValidate_RateBands(t *testing.T) {
	tests := []struct {
		name       string
		withdrawal int64
		horizon    int
		want       []string
	}{
		{"ten percent is still advisory", 10000, 20, []string{CodeRateHigh}},
		{"eight percent is high", 8000, 20, []string{CodeRateHigh}},
		{"six percent is elevated", 6000, 20, []string{CodeRateElevated}},
		{"four and a half over long horizon", 4500, 35, []string{CodeRateElevatedLongHorizon}},
		{"four and a half over short horizon", 4500, 25, nil},
		{"three percent", 3000, 40, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewValidator().Validate(params(100000, tt.withdrawal, tt.horizon, 7, 2.5))
			assert.True(t, res.IsValid)
			assert.Equal(t, tt.want, bandCodes(res))
		})
	}
}

func TestValidate_NonPositiveInputs(t *testing.T) {
	res := NewValidator().Validate(domain.SimulationParameters{})

	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, 5)
	for _, code := range []string{
		CodePortfolioNotPositive,
		CodeWithdrawalNotPositive,
		CodeHorizonNotPositive,
		CodeCountNotPositive,
		CodeRiskScoreOutOfRange,
	} {
		assert.True(t, res.HasIssue(code), "missing %s", code)
	}
	assert.True(t, res.WithdrawalRate.IsZero())
	assert.Empty(t, bandCodes(res))
}

func TestValidate_ExceedsRealReturn(t *testing.T) {
	res := NewValidator().Validate(params(100000, 4500, 20, 7, 2.5))

	assert.True(t, res.HasIssue(CodeExceedsRealReturn), "4.5%% exceeds 6.375%% - 2.5%%")
	assert.True(t, res.RealReturn.Equal(decimal.NewFromFloat(3.88)), "got %s", res.RealReturn)
	assert.False(t, res.HasIssue(CodeWithdrawalRateSustainable))
}

func TestValidate_LowRiskHighWithdrawal(t *testing.T) {
	res := NewValidator().Validate(params(100000, 3500, 20, 2, 2.5))

	assert.True(t, res.IsValid)
	assert.True(t, res.HasIssue(CodeLowRiskHighWithdrawal))
	assert.True(t, res.HasIssue(CodeRaiseRiskOrLowerDraw))

	res = NewValidator().Validate(params(100000, 3000, 20, 2, 2.5))
	assert.False(t, res.HasIssue(CodeLowRiskHighWithdrawal), "3%% is not above the low-risk threshold")
}

func TestValidate_LongHorizonTargetRate(t *testing.T) {
	tests := []struct {
		horizon int
		target  string
		amount  string
	}{
		{35, "3.5%", "3500 per year"},
		{45, "3.0%", "3000 per year"},
	}

	for _, tt := range tests {
		res := NewValidator().Validate(params(100000, 4500, tt.horizon, 7, 2.5))
		require.True(t, res.HasIssue(CodeLongHorizonWithdrawal))
		require.True(t, res.HasIssue(CodeTargetLowerRate))

		var msg string
		for _, is := range res.Issues {
			if is.Code == CodeTargetLowerRate {
				msg = is.Message
			}
		}
		assert.Contains(t, msg, tt.target)
		assert.Contains(t, msg, tt.amount)
	}
}

func TestValidate_HighInflation(t *testing.T) {
	res := NewValidator().Validate(params(100000, 3000, 20, 10, 6))

	assert.True(t, res.IsValid)
	assert.True(t, res.HasIssue(CodeHighInflation))
	assert.True(t, res.HasIssue(CodeInflationProtection))

	res = NewValidator().Validate(params(100000, 3000, 20, 10, 5))
	assert.False(t, res.HasIssue(CodeHighInflation), "5%% is not above the threshold")
}

func TestValidate_PositiveSuggestion(t *testing.T) {
	res := NewValidator().Validate(params(100000, 3000, 20, 10, 2))

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.HasIssue(CodeWithdrawalRateSustainable))
	require.Len(t, res.Suggestions, 1)
	assert.True(t, strings.HasPrefix(res.Suggestions[0], "A 3.00% withdrawal rate"))
}

func TestValidate_Pure(t *testing.T) {
	v := NewValidator()
	p := params(250000, 17000, 35, 3, 6)

	first := v.Validate(p)
	second := v.Validate(p)

	assert.Equal(t, first, second)
	assert.True(t, p.InitialPortfolio.Equal(decimal.NewFromInt(250000)), "input must not be modified")
}

func TestValidate_WarningsNeverBlock(t *testing.T) {
	res := NewValidator().Validate(params(100000, 9000, 45, 1, 7))

	assert.True(t, res.IsValid)
	assert.NotEmpty(t, res.Warnings)
	assert.Nil(t, res.Err())
}

func TestValidate_ThresholdsUseExactRate(t *testing.T) {
	res := NewValidator().Validate(params(100000, 10004, 20, 7, 2.5))
	assert.False(t, res.IsValid, "10.004%% is above 10%% even though it displays as 10.00%%")
	assert.Equal(t, []string{CodeRateUnsustainable}, bandCodes(res))
	assert.True(t, res.WithdrawalRate.Equal(decimal.NewFromInt(10)), "reported rate is rounded, got %s", res.WithdrawalRate)

	res = NewValidator().Validate(params(100000, 4004, 35, 7, 2.5))
	assert.True(t, res.IsValid)
	assert.Equal(t, []string{CodeRateElevatedLongHorizon}, bandCodes(res))
	assert.True(t, res.HasIssue(CodeLongHorizonWithdrawal))
}

func scenario() domain.Scenario {
	return domain.Scenario{
		ID:                  "okafor-2026",
		ClientAge:           30,
		RetirementAge:       67,
		LifeExpectancy:      90,
		StatePensionAge:     67,
		StatePensionAmount:  decimal.NewFromInt(11500),
		CurrentIncome:       decimal.NewFromInt(45000),
		CurrentExpenses:     decimal.NewFromInt(30000),
		CurrentSavings:      decimal.NewFromInt(20000),
		PensionContribution: decimal.NewFromInt(8000),
		RiskScore:           6,
		Assumptions:         domain.DefaultMarketAssumptions(),
		Goals:               domain.Goals{RetirementIncome: decimal.NewFromInt(25000)},
	}
}

func runParams(s domain.Scenario) domain.SimulationParameters {
	return domain.SimulationParameters{SimulationCount: 1000, RiskScore: s.RiskScore}
}

func TestValidateScenario_SaverIsJudgedAtRetirement(t *testing.T) {
	s := scenario()
	res := NewValidator().ValidateScenario(s, runParams(s))

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, bandCodes(res), "a saver with a large projected pot draws a small share of it")
	assert.True(t, res.WithdrawalRate.IsPositive())
	assert.True(t, res.WithdrawalRate.LessThan(decimal.NewFromInt(4)), "got %s", res.WithdrawalRate)
}

func TestValidateScenario_StatePensionCoversSpending(t *testing.T) {
	s := scenario()
	s.ClientAge = 60
	s.StatePensionAmount = decimal.NewFromInt(20000)
	s.Goals.RetirementIncome = decimal.NewFromInt(18000)

	res := NewValidator().ValidateScenario(s, runParams(s))

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.True(t, res.HasIssue(CodeSpendingCovered))
	assert.False(t, res.HasIssue(CodeWithdrawalNotPositive))
	assert.True(t, res.WithdrawalRate.IsZero())
}

func TestValidateScenario_RateRulesAreAdvisory(t *testing.T) {
	s := domain.Scenario{
		ID:              "late-start",
		ClientAge:       64,
		RetirementAge:   65,
		LifeExpectancy:  90,
		CurrentExpenses: decimal.NewFromInt(20000),
		CurrentSavings:  decimal.NewFromInt(100000),
		RiskScore:       5,
		Assumptions:     domain.DefaultMarketAssumptions(),
		Goals:           domain.Goals{RetirementIncome: decimal.NewFromInt(30000)},
	}
	res := NewValidator().ValidateScenario(s, runParams(s))

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.True(t, res.HasIssue(CodeRateUnsustainable))
	assert.Contains(t, res.Warnings[0], "unsustainable")
	assert.Nil(t, res.Err())
}

func TestValidateScenario_Blocking(t *testing.T) {
	s := scenario()
	s.RetirementAge = s.ClientAge

	res := NewValidator().ValidateScenario(s, runParams(s))
	assert.False(t, res.IsValid)
	assert.True(t, res.HasIssue(CodeInvalidScenario))
	assert.True(t, errors.Is(res.Err(), domain.ErrInvalidParameters))

	s = scenario()
	p := runParams(s)
	p.SimulationCount = 0
	p.RiskScore = 11
	res = NewValidator().ValidateScenario(s, p)
	assert.False(t, res.IsValid)
	assert.True(t, res.HasIssue(CodeCountNotPositive))
	assert.True(t, res.HasIssue(CodeRiskScoreOutOfRange))
}

func TestValidateScenario_UsesScenarioReturns(t *testing.T) {
	cautious := scenario()
	bullish := scenario()
	bullish.Assumptions.EquityReturn = decimal.NewFromFloat(0.08)

	low := NewValidator().ValidateScenario(cautious, runParams(cautious))
	high := NewValidator().ValidateScenario(bullish, runParams(bullish))

	assert.True(t, high.RealReturn.GreaterThan(low.RealReturn), "%s vs %s", high.RealReturn, low.RealReturn)
}
