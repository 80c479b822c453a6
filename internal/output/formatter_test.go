package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/plannetic/ifaengine/internal/stress"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func sampleProjection(t *testing.T) ProjectionReport {
	t.Helper()
	s := domain.Scenario{
		ID:                 "okafor-2026",
		Name:               "Okafor household",
		ClientAge:          60,
		RetirementAge:      62,
		LifeExpectancy:     70,
		StatePensionAge:    67,
		StatePensionAmount: d(11000),
		CurrentIncome:      d(45000),
		CurrentExpenses:    d(30000),
		CurrentSavings:     d(10000),
		PensionPot:         d(150000),
		InvestmentValue:    d(40000),
		RiskScore:          4,
		Assumptions:        domain.DefaultMarketAssumptions(),
	}
	plan, err := projection.PlanFromScenario(s)
	require.NoError(t, err)
	res := projection.NewProjector().ProjectPlan(plan, nil)
	return ProjectionReport{
		ScenarioID: s.ID,
		Name:       s.Name,
		Summary:    projection.Summarize(plan, res),
		Rows:       res.Rows,
	}
}

func sampleStress() StressReport {
	three := 3
	results := []domain.StressTestResult{
		{
			ScenarioID:          "market_crash",
			Name:                "Severe Market Crash",
			Severity:            domain.SeveritySevere,
			Status:              domain.StressOK,
			SurvivalProbability: d(100),
			ShortfallRisk:       d(0),
			ResilienceScore:     d(81.4),
			WorstCaseOutcome:    d(-52000),
			RecoveryTimeYears:   &three,
			Impact:              domain.ImpactAnalysis{PortfolioDeclinePercent: d(24.5), IncomeReductionPercent: d(0), ExpenseIncreasePercent: d(0)},
		},
		{ScenarioID: "zombie_outbreak", Status: domain.StressError, Error: "unknown stress scenario: zombie_outbreak"},
		{
			ScenarioID:          "long_term_care",
			Name:                "Long-Term Care",
			Severity:            domain.SeveritySevere,
			Status:              domain.StressOK,
			SurvivalProbability: d(0),
			ShortfallRisk:       d(100),
			ResilienceScore:     d(12),
			WorstCaseOutcome:    d(-90000),
			Impact:              domain.ImpactAnalysis{PortfolioDeclinePercent: d(60), IncomeReductionPercent: d(0), ExpenseIncreasePercent: d(18.2)},
		},
	}
	return StressReport{ScenarioID: "okafor-2026", Summary: stress.Summarize(results), Results: results}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{d(1234567.891), "£1,234,567.89"},
		{d(999), "£999.00"},
		{d(1000), "£1,000.00"},
		{decimal.Zero, "£0.00"},
		{d(-1500), "-£1,500.00"},
		{d(-0.001), "£0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in))
	}
	assert.Equal(t, "4.50%", FormatPercentage(d(4.5)))
}

func TestNewFormatter(t *testing.T) {
	for format, want := range map[string]string{"": "console", "table": "console", "JSON": "json", " csv ": "csv"} {
		f, err := NewFormatter(format)
		require.NoError(t, err, format)
		assert.Equal(t, want, f.Name())
	}

	_, err := NewFormatter("pdf")
	assert.Error(t, err)
}

func TestJSONFormatter_Projection(t *testing.T) {
	report := sampleProjection(t)

	data, err := JSONFormatter{}.Projection(report)
	require.NoError(t, err)

	var decoded struct {
		ScenarioID string                    `json:"scenarioId"`
		Summary    domain.ProjectionSummary  `json:"summary"`
		Rows       []domain.YearlyProjection `json:"projection"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "okafor-2026", decoded.ScenarioID)
	assert.Len(t, decoded.Rows, 10)
	assert.True(t, decoded.Summary.FinalWealth.Equal(report.Summary.FinalWealth))
}

func TestCSVFormatter_Projection(t *testing.T) {
	report := sampleProjection(t)

	data, err := CSVFormatter{}.Projection(report)
	require.NoError(t, err)

	records := readCSV(t, data)
	require.Len(t, records, 11)
	assert.Equal(t, "Year", records[0][0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "60", records[1][1])
	assert.Equal(t, report.Rows[9].TotalAssets.StringFixed(2), records[10][14])
}

func TestCSVFormatter_Stress(t *testing.T) {
	data, err := CSVFormatter{}.Stress(sampleStress())
	require.NoError(t, err)

	records := readCSV(t, data)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"market_crash", "Severe Market Crash", "severe", "ok", "100.00", "0.00", "81.4", "-52000.00", "3", "24.50", "0.00", "0.00", ""}, records[1])
	assert.Equal(t, "error", records[2][3])
	assert.Contains(t, records[2][12], "zombie_outbreak")
	assert.Equal(t, "", records[3][8], "no recovery is an empty cell")
}

func TestCSVFormatter_Catalog(t *testing.T) {
	data, err := CSVFormatter{}.Catalog(stress.DefaultCatalog().List())
	require.NoError(t, err)

	records := readCSV(t, data)
	assert.Len(t, records, 15, "header plus one row per catalog parameter")
	assert.Equal(t, []string{"market_crash", "bond_decline"}, []string{records[1][0], records[1][6]})
}

func TestCSVFormatter_Simulation(t *testing.T) {
	results := &domain.SimulationResults{
		YearlyPercentiles: []domain.YearlyPercentiles{
			{Year: 1, Age: 65, PercentileBand: domain.PercentileBand{P10: d(90), P25: d(95), P50: d(100), P75: d(105), P90: d(110)}},
		},
	}

	data, err := CSVFormatter{}.Simulation(SimulationReport{Results: results})
	require.NoError(t, err)

	records := readCSV(t, data)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"1", "65", "90.00", "95.00", "100.00", "105.00", "110.00"}, records[1])
}

func TestConsoleFormatter_Stress(t *testing.T) {
	data, err := ConsoleFormatter{}.Stress(sampleStress())
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Severe Market Crash")
	assert.Contains(t, out, "3 yrs")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "zombie_outbreak")
	assert.Contains(t, out, "long_term_care", "lowest resilience is named in the summary")
}

func TestConsoleFormatter_Projection(t *testing.T) {
	report := sampleProjection(t)
	report.Defaulted = []string{"assumptions"}

	data, err := ConsoleFormatter{}.Projection(report)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Okafor household (okafor-2026)")
	assert.Contains(t, out, "Defaults applied: assumptions")
	assert.Contains(t, out, FormatCurrency(report.Summary.FinalWealth))
}

func TestConsoleFormatter_ValidationAndSimulation(t *testing.T) {
	v := domain.ValidationResult{
		IsValid:        false,
		Errors:         []string{"Withdrawal rate of 11.00% is unsustainable"},
		Warnings:       []string{"Long horizon"},
		WithdrawalRate: d(11),
		RealReturn:     d(3.88),
	}

	data, err := ConsoleFormatter{}.Validation(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), "blocked")
	assert.Contains(t, string(data), "unsustainable")
	assert.Contains(t, string(data), "Long horizon")

	res := &domain.SimulationResults{
		SimulationCount: 400,
		RequestedCount:  1000,
		Partial:         true,
		SuccessRate:     d(87.5),
		RiskLevel:       "moderate",
		WithdrawalRisk:  "very_high",
		Allocation:      domain.AllocationForRisk(7),
	}
	data, err = ConsoleFormatter{}.Simulation(SimulationReport{Results: res})
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "400 of 1000")
	assert.Contains(t, out, "87.50%")
	assert.Contains(t, out, "70% equity / 25% bonds / 5% cash")
	assert.Contains(t, out, "very high")
}

func TestHistory(t *testing.T) {
	created := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	runs := []store.RunInfo{
		{ID: "run-b", ScenarioID: "okafor-2026", Kind: store.KindStress, CreatedAt: created, Headline: decimal.RequireFromString("64.2")},
		{ID: "run-a", ScenarioID: "okafor-2026", Kind: store.KindMonteCarlo, CreatedAt: created.Add(-time.Hour), Headline: decimal.RequireFromString("91.5")},
	}

	out, err := CSVFormatter{}.History("okafor-2026", runs)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"run-b", "okafor-2026", "stress", "2026-05-04T10:30:00Z", "64.2"}, records[1])

	out, err = ConsoleFormatter{}.History("okafor-2026", runs)
	require.NoError(t, err)
	assert.Contains(t, string(out), "RUN HISTORY: okafor-2026")
	assert.Contains(t, string(out), "avg resilience 64.2")
	assert.Contains(t, string(out), "success rate 91.5")

	out, err = ConsoleFormatter{}.History("nobody", nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "no stored runs")

	out, err = JSONFormatter{}.History("okafor-2026", runs)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"kind":"monte_carlo"`)
}
