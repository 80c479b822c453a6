package domain

import (
	"github.com/shopspring/decimal"
)

// YearlyProjection is one row of the deterministic cash-flow ledger
type YearlyProjection struct {
	Year    int  `json:"year"`
	Age     int  `json:"age"`
	Retired bool `json:"retired"`

	EmploymentIncome decimal.Decimal `json:"employmentIncome"`
	StatePension     decimal.Decimal `json:"statePension"`
	Withdrawal       decimal.Decimal `json:"withdrawal"` // drawn from assets to meet spending
	TotalIncome      decimal.Decimal `json:"totalIncome"`

	Contributions      decimal.Decimal `json:"contributions"`
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	Surplus            decimal.Decimal `json:"surplus"` // negative for a deficit
	ExpectedWithdrawal decimal.Decimal `json:"expectedWithdrawal"`
	Shortfall          decimal.Decimal `json:"shortfall"`

	PensionPot          decimal.Decimal `json:"pensionPot"`
	InvestmentPortfolio decimal.Decimal `json:"investmentPortfolio"`
	CashSavings         decimal.Decimal `json:"cashSavings"`
	TotalAssets         decimal.Decimal `json:"totalAssets"`
	PortfolioReturn     decimal.Decimal `json:"portfolioReturn"`
}

// ProjectionSummary condenses a projection into the figures advisers quote
type ProjectionSummary struct {
	Years            int             `json:"years"`
	StartingAssets   decimal.Decimal `json:"startingAssets"`
	RetirementAssets decimal.Decimal `json:"retirementAssets"`
	PeakAssets       decimal.Decimal `json:"peakAssets"`
	FinalWealth      decimal.Decimal `json:"finalWealth"`
	TotalShortfall   decimal.Decimal `json:"totalShortfall"`
	AverageIncome    decimal.Decimal `json:"averageIncome"`
	Depleted         bool            `json:"depleted"`
	DepletionAge     *int            `json:"depletionAge,omitempty"`
	LegacyGoalMet    bool            `json:"legacyGoalMet"`
	EmergencyFundMet bool            `json:"emergencyFundMet"`
}
