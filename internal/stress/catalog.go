package stress

import (
	"fmt"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
)

// Catalog is an immutable registry of stress scenario definitions. It is
// built once and handed to the engine; lookups return copies so callers
// cannot mutate the shared definitions.
type Catalog struct {
	entries map[string]domain.StressScenario
	order   []string
}

// NewCatalog validates and registers entries in the given order.
func NewCatalog(entries []domain.StressScenario) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]domain.StressScenario, len(entries))}
	for _, e := range entries {
		if err := c.register(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) register(e domain.StressScenario) error {
	if e.ID == "" {
		return fmt.Errorf("stress scenario %q: id is required", e.Name)
	}
	if _, exists := c.entries[e.ID]; exists {
		return fmt.Errorf("stress scenario %q: duplicate id", e.ID)
	}
	if e.Severity == "" {
		e.Severity = domain.SeverityModerate
	}
	if _, err := e.Severity.Multiplier(); err != nil {
		return fmt.Errorf("stress scenario %q: %w", e.ID, err)
	}
	switch e.Category {
	case domain.CategoryMarket, domain.CategoryEconomic, domain.CategoryPersonal:
	default:
		return fmt.Errorf("stress scenario %q: unknown category %q", e.ID, e.Category)
	}
	if e.Timing == "" {
		e.Timing = domain.TimingImmediate
	}
	if e.Timing != domain.TimingImmediate && e.Timing != domain.TimingAtRetirement {
		return fmt.Errorf("stress scenario %q: unknown timing %q", e.ID, e.Timing)
	}
	if e.DurationYears <= 0 {
		e.DurationYears = 1
	}
	if len(e.Parameters) == 0 {
		return fmt.Errorf("stress scenario %q: at least one parameter is required", e.ID)
	}
	params := make(map[string]domain.StressParameter, len(e.Parameters))
	for name, p := range e.Parameters {
		if !knownParameter(name) {
			return fmt.Errorf("stress scenario %q: unknown parameter %q", e.ID, name)
		}
		if p.Min.GreaterThan(p.Max) {
			return fmt.Errorf("stress scenario %q: parameter %s has min %s above max %s", e.ID, name, p.Min, p.Max)
		}
		if p.Default.LessThan(p.Min) || p.Default.GreaterThan(p.Max) {
			return fmt.Errorf("stress scenario %q: parameter %s default %s outside [%s, %s]", e.ID, name, p.Default, p.Min, p.Max)
		}
		params[name] = p
	}
	e.Parameters = params

	c.entries[e.ID] = e
	c.order = append(c.order, e.ID)
	return nil
}

// Get returns a copy of the entry with id.
func (c *Catalog) Get(id string) (domain.StressScenario, error) {
	e, ok := c.entries[id]
	if !ok {
		return domain.StressScenario{}, fmt.Errorf("%w: %s", domain.ErrUnknownStressScenario, id)
	}
	return copyScenario(e), nil
}

// List returns copies of every entry in registration order.
func (c *Catalog) List() []domain.StressScenario {
	out := make([]domain.StressScenario, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, copyScenario(c.entries[id]))
	}
	return out
}

// IDs returns the registered ids in registration order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of registered entries.
func (c *Catalog) Len() int {
	return len(c.order)
}

func copyScenario(e domain.StressScenario) domain.StressScenario {
	params := make(map[string]domain.StressParameter, len(e.Parameters))
	for k, v := range e.Parameters {
		params[k] = v
	}
	e.Parameters = params
	return e
}

func knownParameter(name string) bool {
	switch name {
	case domain.ParamEquityDecline, domain.ParamBondDecline, domain.ParamReturnReduction,
		domain.ParamInflationSpike, domain.ParamIncomeReductionPercent, domain.ParamIncomeDisruptionMonths,
		domain.ParamEmergencyExpense, domain.ParamExpenseIncreasePercent:
		return true
	}
	return false
}

func param(def, lo, hi, step float64, unit, desc string) domain.StressParameter {
	return domain.StressParameter{
		Default:     decimal.NewFromFloat(def),
		Min:         decimal.NewFromFloat(lo),
		Max:         decimal.NewFromFloat(hi),
		Step:        decimal.NewFromFloat(step),
		Unit:        unit,
		Description: desc,
	}
}

// DefaultScenarios returns the built-in stress definitions.
func DefaultScenarios() []domain.StressScenario {
	return []domain.StressScenario{
		{
			ID:            "market_crash",
			Name:          "Severe Market Crash",
			Category:      domain.CategoryMarket,
			Severity:      domain.SeveritySevere,
			Description:   "A 2008-style fall in equity and corporate bond prices in the first projection year",
			Timing:        domain.TimingImmediate,
			DurationYears: 1,
			Parameters: map[string]domain.StressParameter{
				domain.ParamEquityDecline: param(40, 10, 60, 5, "percent", "Fall in equity values"),
				domain.ParamBondDecline:   param(10, 0, 30, 5, "percent", "Fall in bond values"),
			},
		},
		{
			ID:            "prolonged_bear_market",
			Name:          "Prolonged Bear Market",
			Category:      domain.CategoryMarket,
			Severity:      domain.SeverityModerate,
			Description:   "Several years of depressed equity and bond returns",
			Timing:        domain.TimingImmediate,
			DurationYears: 5,
			Parameters: map[string]domain.StressParameter{
				domain.ParamReturnReduction: param(4, 1, 10, 0.5, "percentage_points", "Annual return shortfall"),
			},
		},
		{
			ID:            "sequence_risk",
			Name:          "Crash at Retirement",
			Category:      domain.CategoryMarket,
			Severity:      domain.SeveritySevere,
			Description:   "An equity crash in the first year of drawdown",
			Timing:        domain.TimingAtRetirement,
			DurationYears: 1,
			Parameters: map[string]domain.StressParameter{
				domain.ParamEquityDecline: param(35, 10, 60, 5, "percent", "Fall in equity values"),
			},
		},
		{
			ID:            "interest_rate_shock",
			Name:          "Interest Rate Shock",
			Category:      domain.CategoryMarket,
			Severity:      domain.SeverityModerate,
			Description:   "A sharp rise in rates that marks down bond holdings",
			Timing:        domain.TimingImmediate,
			DurationYears: 1,
			Parameters: map[string]domain.StressParameter{
				domain.ParamBondDecline: param(15, 5, 30, 2.5, "percent", "Fall in bond values"),
			},
		},
		{
			ID:            "inflation_shock",
			Name:          "Inflation Shock",
			Category:      domain.CategoryEconomic,
			Severity:      domain.SeverityModerate,
			Description:   "Inflation runs well above target for several years",
			Timing:        domain.TimingImmediate,
			DurationYears: 3,
			Parameters: map[string]domain.StressParameter{
				domain.ParamInflationSpike: param(4, 1, 10, 0.5, "percentage_points", "Extra annual inflation"),
			},
		},
		{
			ID:            "stagflation",
			Name:          "Stagflation",
			Category:      domain.CategoryEconomic,
			Severity:      domain.SeveritySevere,
			Description:   "High inflation combined with weak asset returns",
			Timing:        domain.TimingImmediate,
			DurationYears: 4,
			Parameters: map[string]domain.StressParameter{
				domain.ParamInflationSpike:  param(5, 1, 10, 0.5, "percentage_points", "Extra annual inflation"),
				domain.ParamReturnReduction: param(3, 0, 10, 0.5, "percentage_points", "Annual return shortfall"),
			},
		},
		{
			ID:            "job_loss",
			Name:          "Job Loss",
			Category:      domain.CategoryPersonal,
			Severity:      domain.SeverityModerate,
			Description:   "Loss of employment income before retirement",
			Timing:        domain.TimingImmediate,
			DurationYears: 1,
			Parameters: map[string]domain.StressParameter{
				domain.ParamIncomeReductionPercent: param(100, 10, 100, 10, "percent", "Share of employment income lost"),
				domain.ParamIncomeDisruptionMonths: param(12, 1, 36, 1, "months", "Months without income"),
			},
		},
		{
			ID:            "health_crisis",
			Name:          "Health Crisis",
			Category:      domain.CategoryPersonal,
			Severity:      domain.SeverityModerate,
			Description:   "Unexpected medical costs and reduced working hours",
			Timing:        domain.TimingImmediate,
			DurationYears: 1,
			Parameters: map[string]domain.StressParameter{
				domain.ParamEmergencyExpense:       param(25000, 1000, 150000, 1000, "currency", "One-off cost"),
				domain.ParamIncomeReductionPercent: param(50, 0, 100, 10, "percent", "Share of employment income lost"),
				domain.ParamIncomeDisruptionMonths: param(6, 1, 24, 1, "months", "Months of reduced income"),
			},
		},
		{
			ID:            "long_term_care",
			Name:          "Long-Term Care",
			Category:      domain.CategoryPersonal,
			Severity:      domain.SeveritySevere,
			Description:   "Care costs lift spending for several years of retirement",
			Timing:        domain.TimingAtRetirement,
			DurationYears: 5,
			Parameters: map[string]domain.StressParameter{
				domain.ParamExpenseIncreasePercent: param(40, 10, 150, 5, "percent", "Increase in annual spending"),
			},
		},
	}
}

// DefaultCatalog returns a catalog of the built-in definitions.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultScenarios())
	if err != nil {
		panic(fmt.Sprintf("stress: invalid built-in catalog: %v", err))
	}
	return c
}
