package output

import (
	"fmt"
	"strings"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/shopspring/decimal"
)

// ProjectionReport is a deterministic projection with its summary.
type ProjectionReport struct {
	ScenarioID string                    `json:"scenarioId"`
	Name       string                    `json:"name"`
	Defaulted  []string                  `json:"defaulted,omitempty"`
	Summary    domain.ProjectionSummary  `json:"summary"`
	Rows       []domain.YearlyProjection `json:"projection"`
}

// SimulationReport is a Monte Carlo run for one scenario or parameter set.
type SimulationReport struct {
	ScenarioID string                    `json:"scenarioId,omitempty"`
	RunID      string                    `json:"runId,omitempty"`
	Validation *domain.ValidationResult  `json:"validation,omitempty"`
	Results    *domain.SimulationResults `json:"results"`
}

// StressReport is a stress batch with its summary.
type StressReport struct {
	ScenarioID string                    `json:"scenarioId"`
	RunID      string                    `json:"runId,omitempty"`
	Summary    domain.StressTestSummary  `json:"summary"`
	Results    []domain.StressTestResult `json:"results"`
}

// Formatter renders engine results in one output format.
type Formatter interface {
	Name() string
	Projection(r ProjectionReport) ([]byte, error)
	Simulation(r SimulationReport) ([]byte, error)
	Stress(r StressReport) ([]byte, error)
	Validation(r domain.ValidationResult) ([]byte, error)
	Catalog(entries []domain.StressScenario) ([]byte, error)
	History(scenarioID string, runs []store.RunInfo) ([]byte, error)
}

// NormalizeFormatName maps aliases to canonical format names.
func NormalizeFormatName(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console", "table", "text":
		return "console"
	case "json":
		return "json"
	case "csv":
		return "csv"
	default:
		return strings.ToLower(strings.TrimSpace(format))
	}
}

// NewFormatter returns the formatter for format.
func NewFormatter(format string) (Formatter, error) {
	switch NormalizeFormatName(format) {
	case "console":
		return ConsoleFormatter{}, nil
	case "json":
		return JSONFormatter{Indent: true}, nil
	case "csv":
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatCurrency formats an amount as pounds with thousands separators.
func FormatCurrency(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if amount.IsNegative() && !amount.Round(2).IsZero() {
		b.WriteString("-")
	}
	b.WriteString("£")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(".")
	b.WriteString(frac)
	return b.String()
}

// FormatPercentage formats a percentage value.
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

func percentOf(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}
