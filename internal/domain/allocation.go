package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	MinRiskScore = 1
	MaxRiskScore = 10
)

// AssetClass identifies one of the three modelled asset classes.
type AssetClass int

const (
	Equity AssetClass = iota
	Bonds
	Cash
)

// AssetClasses lists every class in a fixed order.
var AssetClasses = [3]AssetClass{Equity, Bonds, Cash}

func (c AssetClass) String() string {
	switch c {
	case Equity:
		return "equity"
	case Bonds:
		return "bonds"
	case Cash:
		return "cash"
	default:
		return fmt.Sprintf("AssetClass(%d)", int(c))
	}
}

// Allocation holds portfolio weights per asset class; weights sum to 1.
type Allocation struct {
	Equity decimal.Decimal `yaml:"equity" json:"equity"`
	Bonds  decimal.Decimal `yaml:"bonds" json:"bonds"`
	Cash   decimal.Decimal `yaml:"cash" json:"cash"`
}

// Weight returns the weight of class c.
func (a Allocation) Weight(c AssetClass) decimal.Decimal {
	switch c {
	case Equity:
		return a.Equity
	case Bonds:
		return a.Bonds
	default:
		return a.Cash
	}
}

// equity/bond/cash percentages for risk scores 1..10
var allocationTable = [10][3]int64{
	{10, 60, 30},
	{20, 55, 25},
	{30, 50, 20},
	{40, 45, 15},
	{50, 40, 10},
	{60, 32, 8},
	{70, 25, 5},
	{80, 15, 5},
	{90, 8, 2},
	{100, 0, 0},
}

// AllocationForRisk maps a 1-10 risk score to its model portfolio. Scores
// outside the range are clamped.
func AllocationForRisk(score int) Allocation {
	if score < MinRiskScore {
		score = MinRiskScore
	}
	if score > MaxRiskScore {
		score = MaxRiskScore
	}
	row := allocationTable[score-1]
	return Allocation{
		Equity: decimal.New(row[0], -2),
		Bonds:  decimal.New(row[1], -2),
		Cash:   decimal.New(row[2], -2),
	}
}

// ClassReturns holds one value per asset class, e.g. a year's nominal returns.
type ClassReturns [3]decimal.Decimal

// Blend weights the class returns by a.
func (r ClassReturns) Blend(a Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, c := range AssetClasses {
		total = total.Add(a.Weight(c).Mul(r[c]))
	}
	return total
}

// ReturnModel describes the annual nominal mean and volatility of each class.
type ReturnModel struct {
	Mean       ClassReturns `json:"mean"`
	Volatility [3]float64   `json:"volatility"`
}

// DefaultReturnModel returns the house capital market assumptions.
func DefaultReturnModel() ReturnModel {
	return ReturnModel{
		Mean: ClassReturns{
			decimal.NewFromFloat(0.075),
			decimal.NewFromFloat(0.04),
			decimal.NewFromFloat(0.025),
		},
		Volatility: [3]float64{0.18, 0.06, 0.01},
	}
}

// ScenarioReturnModel converts a scenario's real returns to nominal means
// with the Fisher relation and keeps the house volatilities.
func ScenarioReturnModel(a MarketAssumptions) ReturnModel {
	m := DefaultReturnModel()
	realRates := [3]decimal.Decimal{a.EquityReturn, a.BondReturn, a.CashReturn}
	for _, c := range AssetClasses {
		m.Mean[c] = NominalRate(realRates[c], a.InflationRate)
	}
	return m
}

// NominalRate returns (1+real)(1+inflation)-1.
func NominalRate(realRate, inflation decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return one.Add(realRate).Mul(one.Add(inflation)).Sub(one)
}

// ExpectedReturn is the allocation-weighted mean return.
func (m ReturnModel) ExpectedReturn(a Allocation) decimal.Decimal {
	return m.Mean.Blend(a)
}

// PortfolioVolatility treats the classes as independent.
func (m ReturnModel) PortfolioVolatility(a Allocation) float64 {
	variance := 0.0
	for _, c := range AssetClasses {
		w := a.Weight(c).InexactFloat64()
		variance += w * w * m.Volatility[c] * m.Volatility[c]
	}
	return math.Sqrt(variance)
}

// WithPortfolioVolatility rescales every class volatility so the portfolio
// volatility for a equals target. A zero target removes all randomness.
func (m ReturnModel) WithPortfolioVolatility(a Allocation, target float64) ReturnModel {
	current := m.PortfolioVolatility(a)
	scaled := m
	for _, c := range AssetClasses {
		if current == 0 || target <= 0 {
			scaled.Volatility[c] = 0
			continue
		}
		scaled.Volatility[c] = m.Volatility[c] * target / current
	}
	return scaled
}
