package validation

import (
	"fmt"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/shopspring/decimal"
)

// Issue codes produced by the validator.
const (
	CodePortfolioNotPositive  = "initial_portfolio_not_positive"
	CodeWithdrawalNotPositive = "annual_withdrawal_not_positive"
	CodeHorizonNotPositive    = "time_horizon_not_positive"
	CodeCountNotPositive      = "simulation_count_not_positive"
	CodeRiskScoreOutOfRange   = "risk_score_out_of_range"
	CodeInvalidScenario       = "invalid_scenario"

	CodeRateUnsustainable         = "withdrawal_rate_unsustainable"
	CodeRateHigh                  = "withdrawal_rate_high"
	CodeRateElevated              = "withdrawal_rate_elevated"
	CodeRateElevatedLongHorizon   = "withdrawal_rate_elevated_long_horizon"
	CodeExceedsRealReturn         = "withdrawal_exceeds_real_return"
	CodeLowRiskHighWithdrawal     = "low_risk_high_withdrawal"
	CodeRaiseRiskOrLowerDraw      = "raise_risk_or_lower_withdrawal"
	CodeLongHorizonWithdrawal     = "long_horizon_withdrawal"
	CodeTargetLowerRate           = "target_lower_rate"
	CodeHighInflation             = "high_inflation"
	CodeInflationProtection       = "inflation_protection"
	CodeWithdrawalRateSustainable = "withdrawal_rate_sustainable"
	CodeNoAssetsAtRetirement      = "no_assets_at_retirement"
	CodeSpendingCovered           = "spending_covered_by_state_pension"
)

var (
	ten   = decimal.NewFromInt(10)
	seven = decimal.NewFromInt(7)
	five  = decimal.NewFromInt(5)
	four  = decimal.NewFromInt(4)
	three = decimal.NewFromInt(3)
)

// Validator checks simulation parameters before a run. It holds only the
// read-only return model used to derive expected returns.
type Validator struct {
	model domain.ReturnModel
}

// NewValidator creates a validator over the house return model.
func NewValidator() *Validator {
	return &Validator{model: domain.DefaultReturnModel()}
}

// NewValidatorWithModel creates a validator over a custom return model.
func NewValidatorWithModel(model domain.ReturnModel) *Validator {
	return &Validator{model: model}
}

// Validate is pure: identical params always produce an identical result.
// Only non-positive inputs and an unsustainable withdrawal rate block a run;
// every other finding is advisory.
func (v *Validator) Validate(params domain.SimulationParameters) domain.ValidationResult {
	r := newResult()

	if !params.InitialPortfolio.IsPositive() {
		r.add(CodePortfolioNotPositive, domain.IssueError, "Initial portfolio must be greater than zero")
	}
	if !params.AnnualWithdrawal.IsPositive() {
		r.add(CodeWithdrawalNotPositive, domain.IssueError, "Annual withdrawal must be greater than zero")
	}
	if params.TimeHorizon <= 0 {
		r.add(CodeHorizonNotPositive, domain.IssueError, "Time horizon must be greater than zero years")
	}
	runChecks(r, params)

	realReturn := v.realReturn(r, params)
	if params.InitialPortfolio.IsPositive() && params.AnnualWithdrawal.IsPositive() {
		rate := params.WithdrawalRate()
		r.res.WithdrawalRate = rate.Round(2)
		v.rateRules(r, params, rate, realReturn, domain.IssueError)
	}
	inflationRules(r, params)

	r.res.IsValid = len(r.res.Errors) == 0
	return r.res
}

// ValidateScenario checks a scenario run. params carries the trial count
// and the risk score the run will use. Only the scenario itself, the count
// and the risk score can block the run. The withdrawal rules are judged
// where the deterministic projection stands at retirement, against the
// scenario's own return model, and are advisory.
func (v *Validator) ValidateScenario(s domain.Scenario, params domain.SimulationParameters) domain.ValidationResult {
	r := newResult()
	if err := s.Validate(); err != nil {
		r.add(CodeInvalidScenario, domain.IssueError, err.Error())
	}
	runChecks(r, params)
	if len(r.res.Errors) > 0 {
		return r.res
	}

	plan, err := projection.PlanFromScenario(s)
	if err != nil {
		r.add(CodeInvalidScenario, domain.IssueError, err.Error())
		return r.res
	}
	plan.Allocation = domain.AllocationForRisk(params.RiskScore)
	pt := plan.RetirementPoint()

	derived := domain.SimulationParameters{
		InitialPortfolio: pt.Assets,
		TimeHorizon:      pt.Years,
		AnnualWithdrawal: pt.Gap,
		RiskScore:        params.RiskScore,
		InflationRate:    s.Assumptions.InflationRate.Mul(decimal.NewFromInt(100)),
		SimulationCount:  params.SimulationCount,
		StartAge:         pt.Age,
	}
	scenarioRules := NewValidatorWithModel(plan.Model)
	realReturn := scenarioRules.realReturn(r, derived)

	switch {
	case !pt.Gap.IsPositive():
		r.add(CodeSpendingCovered, domain.IssueSuggestion,
			"Retirement spending is covered by the state pension; no portfolio withdrawals are needed")
	case !pt.Assets.IsPositive():
		r.add(CodeNoAssetsAtRetirement, domain.IssueWarning,
			fmt.Sprintf("No assets are projected at age %d to meet a spending gap of %s", pt.Age, pt.Gap.StringFixed(0)))
	default:
		rate := derived.WithdrawalRate()
		r.res.WithdrawalRate = rate.Round(2)
		scenarioRules.rateRules(r, derived, rate, realReturn, domain.IssueWarning)
	}
	inflationRules(r, derived)

	r.res.IsValid = true
	return r.res
}

func newResult() *result {
	return &result{res: domain.ValidationResult{
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
		Issues:      []domain.ValidationIssue{},
	}}
}

func runChecks(r *result, params domain.SimulationParameters) {
	if params.SimulationCount <= 0 {
		r.add(CodeCountNotPositive, domain.IssueError, "Simulation count must be greater than zero")
	}
	if params.RiskScore < domain.MinRiskScore || params.RiskScore > domain.MaxRiskScore {
		r.add(CodeRiskScoreOutOfRange, domain.IssueError,
			fmt.Sprintf("Risk score must be between %d and %d", domain.MinRiskScore, domain.MaxRiskScore))
	}
}

func (v *Validator) realReturn(r *result, params domain.SimulationParameters) decimal.Decimal {
	expected := v.model.ExpectedReturn(domain.AllocationForRisk(params.RiskScore)).Mul(decimal.NewFromInt(100))
	rr := expected.Sub(params.InflationRate).Round(2)
	r.res.RealReturn = rr
	return rr
}

func inflationRules(r *result, params domain.SimulationParameters) {
	if params.InflationRate.GreaterThan(five) {
		r.add(CodeHighInflation, domain.IssueWarning,
			fmt.Sprintf("Inflation assumption of %s%% is high and will erode real withdrawals quickly", params.InflationRate.StringFixed(1)))
		r.add(CodeInflationProtection, domain.IssueSuggestion,
			"Consider an inflation-protected strategy such as index-linked gilts or a higher real-asset allocation")
	}
}

// rateRules judges the exact rate; only the messages are rounded.
// unsustainable is the severity given to a rate above 10%.
func (v *Validator) rateRules(r *result, params domain.SimulationParameters, rate, realReturn decimal.Decimal, unsustainable domain.IssueSeverity) {
	pct := rate.StringFixed(2)
	switch {
	case rate.GreaterThan(ten):
		r.add(CodeRateUnsustainable, unsustainable,
			fmt.Sprintf("Withdrawal rate of %s%% is unsustainable (above 10%%)", pct))
	case rate.GreaterThan(seven):
		r.add(CodeRateHigh, domain.IssueWarning,
			fmt.Sprintf("Withdrawal rate of %s%% is high (above 7%%)", pct))
	case rate.GreaterThan(five):
		r.add(CodeRateElevated, domain.IssueWarning,
			fmt.Sprintf("Withdrawal rate of %s%% is elevated (above 5%%)", pct))
	case rate.GreaterThan(four) && params.TimeHorizon > 30:
		r.add(CodeRateElevatedLongHorizon, domain.IssueWarning,
			fmt.Sprintf("Withdrawal rate of %s%% is elevated for a %d year horizon", pct, params.TimeHorizon))
	}

	if rate.GreaterThan(realReturn) {
		r.add(CodeExceedsRealReturn, domain.IssueWarning,
			fmt.Sprintf("Withdrawal rate of %s%% exceeds the expected real return of %s%% for risk score %d",
				pct, realReturn.StringFixed(2), params.RiskScore))
	}

	if params.RiskScore <= 3 && rate.GreaterThan(three) {
		r.add(CodeLowRiskHighWithdrawal, domain.IssueWarning,
			fmt.Sprintf("A low risk score (%d) may not support a %s%% withdrawal rate", params.RiskScore, pct))
		r.add(CodeRaiseRiskOrLowerDraw, domain.IssueSuggestion,
			"Consider raising the risk score or reducing the withdrawal to 3% or less")
	}

	if params.TimeHorizon > 30 && rate.GreaterThan(four) {
		target := decimal.NewFromFloat(3.5)
		if params.TimeHorizon > 40 {
			target = three
		}
		amount := params.InitialPortfolio.Mul(target).Div(decimal.NewFromInt(100)).Round(0)
		r.add(CodeLongHorizonWithdrawal, domain.IssueWarning,
			fmt.Sprintf("Withdrawals above 4%% carry significant depletion risk over %d years", params.TimeHorizon))
		r.add(CodeTargetLowerRate, domain.IssueSuggestion,
			fmt.Sprintf("Consider a withdrawal rate of %s%% (%s per year) for a %d year horizon",
				target.StringFixed(1), amount.StringFixed(0), params.TimeHorizon))
	}

	if rate.LessThanOrEqual(five) && realReturn.GreaterThan(rate) {
		r.add(CodeWithdrawalRateSustainable, domain.IssueSuggestion,
			fmt.Sprintf("A %s%% withdrawal rate is covered by the expected real return of %s%%", pct, realReturn.StringFixed(2)))
	}
}

type result struct {
	res domain.ValidationResult
}

func (r *result) add(code string, sev domain.IssueSeverity, msg string) {
	r.res.Issues = append(r.res.Issues, domain.ValidationIssue{Code: code, Severity: sev, Message: msg})
	switch sev {
	case domain.IssueError:
		r.res.Errors = append(r.res.Errors, msg)
	case domain.IssueWarning:
		r.res.Warnings = append(r.res.Warnings, msg)
	default:
		r.res.Suggestions = append(r.res.Suggestions, msg)
	}
}
