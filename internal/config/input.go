package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/stress"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of scenario, parameter and catalog files.
// YAML and JSON are both accepted.
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// ScenarioDocument is the file and request shape of a scenario. Optional
// fields are pointers so a missing value can be told apart from zero.
type ScenarioDocument struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`

	ClientAge      *int `yaml:"client_age" json:"clientAge"`
	RetirementAge  *int `yaml:"retirement_age" json:"retirementAge"`
	LifeExpectancy *int `yaml:"life_expectancy" json:"lifeExpectancy"`

	StatePensionAge    *int             `yaml:"state_pension_age" json:"statePensionAge"`
	StatePensionAmount *decimal.Decimal `yaml:"state_pension_amount" json:"statePensionAmount"`

	CurrentIncome       *decimal.Decimal `yaml:"current_income" json:"currentIncome"`
	CurrentExpenses     *decimal.Decimal `yaml:"current_expenses" json:"currentExpenses"`
	CurrentSavings      *decimal.Decimal `yaml:"current_savings" json:"currentSavings"`
	PensionPot          *decimal.Decimal `yaml:"pension_pot" json:"pensionPot"`
	InvestmentValue     *decimal.Decimal `yaml:"investment_value" json:"investmentValue"`
	PensionContribution *decimal.Decimal `yaml:"pension_contribution" json:"pensionContribution"`

	RiskScore   *int                 `yaml:"risk_score" json:"riskScore"`
	Assumptions *AssumptionsDocument `yaml:"assumptions" json:"assumptions"`
	Goals       *GoalsDocument       `yaml:"goals" json:"goals"`
}

// AssumptionsDocument is the optional market assumptions block.
type AssumptionsDocument struct {
	InflationRate *decimal.Decimal `yaml:"inflation_rate" json:"inflationRate"`
	EquityReturn  *decimal.Decimal `yaml:"equity_return" json:"equityReturn"`
	BondReturn    *decimal.Decimal `yaml:"bond_return" json:"bondReturn"`
	CashReturn    *decimal.Decimal `yaml:"cash_return" json:"cashReturn"`
	IncomeGrowth  *decimal.Decimal `yaml:"income_growth" json:"incomeGrowth"`
}

// GoalsDocument is the optional planning goals block.
type GoalsDocument struct {
	RetirementIncome *decimal.Decimal `yaml:"retirement_income" json:"retirementIncome"`
	EmergencyFund    *decimal.Decimal `yaml:"emergency_fund" json:"emergencyFund"`
	LegacyTarget     *decimal.Decimal `yaml:"legacy_target" json:"legacyTarget"`
}

// LoadResult is a mapped scenario plus the fields that took defaults.
type LoadResult struct {
	Scenario  domain.Scenario
	Defaulted []string
}

// ToScenario maps the document to the canonical scenario. Ages and the
// risk score are required. Money fields default to zero. Missing
// assumptions take the house defaults and missing income growth follows
// inflation; each assumption default is reported in Defaulted. The mapped
// scenario is validated before it is returned.
func (doc ScenarioDocument) ToScenario() (*LoadResult, error) {
	required := []struct {
		field string
		value *int
	}{
		{"client_age", doc.ClientAge},
		{"retirement_age", doc.RetirementAge},
		{"life_expectancy", doc.LifeExpectancy},
		{"risk_score", doc.RiskScore},
	}
	for _, r := range required {
		if r.value == nil {
			return nil, &domain.ScenarioError{Field: r.field, Reason: "is required"}
		}
	}
	if doc.StatePensionAmount != nil && doc.StatePensionAmount.IsPositive() && doc.StatePensionAge == nil {
		return nil, &domain.ScenarioError{Field: "state_pension_age", Reason: "is required when state_pension_amount is set"}
	}

	res := &LoadResult{}
	s := domain.Scenario{
		ID:                  strings.TrimSpace(doc.ID),
		Name:                strings.TrimSpace(doc.Name),
		ClientAge:           *doc.ClientAge,
		RetirementAge:       *doc.RetirementAge,
		LifeExpectancy:      *doc.LifeExpectancy,
		StatePensionAge:     intOrZero(doc.StatePensionAge),
		StatePensionAmount:  orZero(doc.StatePensionAmount),
		CurrentIncome:       orZero(doc.CurrentIncome),
		CurrentExpenses:     orZero(doc.CurrentExpenses),
		CurrentSavings:      orZero(doc.CurrentSavings),
		PensionPot:          orZero(doc.PensionPot),
		InvestmentValue:     orZero(doc.InvestmentValue),
		PensionContribution: orZero(doc.PensionContribution),
		RiskScore:           *doc.RiskScore,
	}
	if s.Name == "" {
		s.Name = s.ID
	}

	s.Assumptions = res.assumptions(doc.Assumptions)
	if doc.Goals != nil {
		s.Goals = domain.Goals{
			RetirementIncome: orZero(doc.Goals.RetirementIncome),
			EmergencyFund:    orZero(doc.Goals.EmergencyFund),
			LegacyTarget:     orZero(doc.Goals.LegacyTarget),
		}
	} else {
		s.Goals = domain.Goals{
			RetirementIncome: decimal.Zero,
			EmergencyFund:    decimal.Zero,
			LegacyTarget:     decimal.Zero,
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	res.Scenario = s
	return res, nil
}

func (res *LoadResult) assumptions(doc *AssumptionsDocument) domain.MarketAssumptions {
	def := domain.DefaultMarketAssumptions()
	if doc == nil {
		res.Defaulted = append(res.Defaulted, "assumptions")
		return def
	}

	pick := func(field string, v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
		if v != nil {
			return *v
		}
		res.Defaulted = append(res.Defaulted, "assumptions."+field)
		return fallback
	}
	a := domain.MarketAssumptions{
		InflationRate: pick("inflation_rate", doc.InflationRate, def.InflationRate),
		EquityReturn:  pick("equity_return", doc.EquityReturn, def.EquityReturn),
		BondReturn:    pick("bond_return", doc.BondReturn, def.BondReturn),
		CashReturn:    pick("cash_return", doc.CashReturn, def.CashReturn),
	}
	a.IncomeGrowth = pick("income_growth", doc.IncomeGrowth, a.InflationRate)
	return a
}

// ParseScenario decodes and maps a scenario document.
func (ip *InputParser) ParseScenario(data []byte) (*LoadResult, error) {
	var doc ScenarioDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return doc.ToScenario()
}

// LoadScenario loads a scenario from a YAML or JSON file. A missing id is
// taken from the file name.
func (ip *InputParser) LoadScenario(filename string) (*LoadResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	res, err := ip.ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", filename, err)
	}
	if res.Scenario.ID == "" {
		res.Scenario.ID = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		if res.Scenario.Name == "" {
			res.Scenario.Name = res.Scenario.ID
		}
		res.Defaulted = append(res.Defaulted, "id")
	}
	return res, nil
}

// LoadParameters loads Monte Carlo parameters. Rates in the file are
// percentages. A missing simulation count takes the default; the values
// are otherwise left for the validator to judge.
func (ip *InputParser) LoadParameters(filename string) (domain.SimulationParameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return domain.SimulationParameters{}, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	var p domain.SimulationParameters
	if err := yaml.Unmarshal(data, &p); err != nil {
		return domain.SimulationParameters{}, fmt.Errorf("failed to parse parameters %s: %w", filename, err)
	}
	if p.SimulationCount == 0 {
		p.SimulationCount = domain.DefaultSimulationCount
	}
	return p, nil
}

// CatalogDocument is the file shape of a stress catalog.
type CatalogDocument struct {
	IncludeDefaults bool                    `yaml:"include_defaults"`
	Scenarios       []domain.StressScenario `yaml:"scenarios"`
}

// LoadStressCatalog builds a catalog from a YAML or JSON file. With
// include_defaults the built-in entries come first.
func (ip *InputParser) LoadStressCatalog(filename string) (*stress.Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse stress catalog %s: %w", filename, err)
	}

	var entries []domain.StressScenario
	if doc.IncludeDefaults {
		entries = append(entries, stress.DefaultScenarios()...)
	}
	entries = append(entries, doc.Scenarios...)
	if len(entries) == 0 {
		return nil, fmt.Errorf("stress catalog %s: no scenarios provided", filename)
	}

	c, err := stress.NewCatalog(entries)
	if err != nil {
		return nil, fmt.Errorf("stress catalog %s: %w", filename, err)
	}
	return c, nil
}

func orZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
