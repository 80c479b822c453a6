package projection

import (
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
)

// ReturnPath supplies the nominal return of each asset class for a
// 0-based projection year.
type ReturnPath interface {
	Returns(year int) domain.ClassReturns
}

// ExpectedReturns is the deterministic path: every year earns the model mean.
type ExpectedReturns struct {
	Model domain.ReturnModel
}

// Returns implements ReturnPath.
func (e ExpectedReturns) Returns(int) domain.ClassReturns {
	return e.Model.Mean
}

// YearAdjustment perturbs one projection year. The zero value changes nothing.
type YearAdjustment struct {
	ReturnDelta     domain.ClassReturns
	InflationDelta  decimal.Decimal
	IncomeCut       decimal.Decimal // fraction of employment income lost
	ExpenseIncrease decimal.Decimal // fraction added to expenses
	ExtraExpense    decimal.Decimal // one-off amount
}

// Schedule holds per-year adjustments indexed by 0-based year. Years past the
// end of the slice are unadjusted.
type Schedule []YearAdjustment

func (s Schedule) at(year int) YearAdjustment {
	if year < 0 || year >= len(s) {
		return YearAdjustment{}
	}
	return s[year]
}

// Result is the outcome of running a plan through the ledger.
type Result struct {
	Rows           []domain.YearlyProjection
	Balances       []float64
	Returns        []float64
	Depleted       bool
	DepletionYear  int // 1-based, 0 when never depleted
	FinalWealth    decimal.Decimal
	TotalShortfall decimal.Decimal
}

// Options controls what a ledger run records.
type Options struct {
	RecordRows bool
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// draw takes up to need from balance and returns what was taken and what is left.
func draw(balance, need decimal.Decimal) (taken, left decimal.Decimal) {
	if !need.IsPositive() || !balance.IsPositive() {
		return decimal.Zero, balance
	}
	if balance.LessThan(need) {
		return balance, decimal.Zero
	}
	return need, balance.Sub(need)
}

// Run steps the plan forward one year at a time. Flows are settled at the
// start of each year and growth is applied at the end; balances never go
// below zero and any unmet need is recorded as shortfall.
func Run(plan Plan, path ReturnPath, sched Schedule, opts Options) Result {
	res := Result{
		Balances:       make([]float64, 0, plan.Years),
		Returns:        make([]float64, 0, plan.Years),
		TotalShortfall: decimal.Zero,
	}
	if opts.RecordRows {
		res.Rows = make([]domain.YearlyProjection, 0, plan.Years)
	}

	pension := plan.PensionPot
	investments := plan.Investments
	cash := plan.Cash
	priceIndex := one
	incomeIndex := one

	for i := 0; i < plan.Years; i++ {
		adj := sched.at(i)
		retired := i >= plan.RetireIndex

		statePension := decimal.Zero
		if i >= plan.StatePensionIndex {
			statePension = money(plan.StatePension.Mul(priceIndex))
		}

		base := plan.Expenses
		if retired {
			base = plan.Spending
		}
		expenses := base.Mul(priceIndex).Mul(one.Add(adj.ExpenseIncrease))
		expenses = money(expenses.Add(adj.ExtraExpense))

		employment := decimal.Zero
		contribution := decimal.Zero
		need := decimal.Zero
		if !retired {
			kept := one.Sub(adj.IncomeCut)
			employment = money(plan.Income.Mul(incomeIndex).Mul(kept))
			contribution = money(plan.Contribution.Mul(incomeIndex).Mul(kept))
			pension = pension.Add(contribution)
		}

		net := employment.Add(statePension).Sub(expenses).Sub(contribution)
		if net.IsNegative() {
			need = net.Neg()
		} else {
			cash = cash.Add(net)
		}

		paid := decimal.Zero
		if need.IsPositive() {
			order := []*decimal.Decimal{&cash, &investments}
			if retired {
				order = []*decimal.Decimal{&investments, &pension, &cash}
			}
			remaining := need
			for _, bucket := range order {
				var taken decimal.Decimal
				taken, *bucket = draw(*bucket, remaining)
				remaining = remaining.Sub(taken)
				paid = paid.Add(taken)
			}
		}
		shortfall := need.Sub(paid)
		if shortfall.IsPositive() {
			res.TotalShortfall = res.TotalShortfall.Add(shortfall)
			if !res.Depleted {
				res.Depleted = true
				res.DepletionYear = i + 1
			}
		}

		rates := path.Returns(i)
		for _, c := range domain.AssetClasses {
			rates[c] = rates[c].Add(adj.ReturnDelta[c])
		}
		portfolioReturn := rates.Blend(plan.Allocation)
		pension = floorZero(money(pension.Mul(one.Add(portfolioReturn))))
		investments = floorZero(money(investments.Mul(one.Add(portfolioReturn))))
		cash = floorZero(money(cash.Mul(one.Add(rates[domain.Cash]))))
		total := pension.Add(investments).Add(cash)

		res.Balances = append(res.Balances, total.InexactFloat64())
		res.Returns = append(res.Returns, portfolioReturn.InexactFloat64())

		if opts.RecordRows {
			totalIncome := employment.Add(statePension).Add(paid)
			res.Rows = append(res.Rows, domain.YearlyProjection{
				Year:                i + 1,
				Age:                 plan.StartAge + i,
				Retired:             retired,
				EmploymentIncome:    employment,
				StatePension:        statePension,
				Withdrawal:          paid,
				TotalIncome:         totalIncome,
				Contributions:       contribution,
				TotalExpenses:       expenses,
				Surplus:             totalIncome.Sub(expenses).Sub(contribution),
				ExpectedWithdrawal:  need,
				Shortfall:           shortfall,
				PensionPot:          pension,
				InvestmentPortfolio: investments,
				CashSavings:         cash,
				TotalAssets:         total,
				PortfolioReturn:     portfolioReturn.Mul(hundred).Round(4),
			})
		}

		priceIndex = priceIndex.Mul(one.Add(plan.Inflation).Add(adj.InflationDelta)).Round(12)
		incomeIndex = incomeIndex.Mul(one.Add(plan.IncomeGrowth)).Round(12)
		res.FinalWealth = total
	}

	return res
}
