package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/plannetic/ifaengine/internal/domain"
)

// CSVFormatter renders the tabular part of each result, one row per year,
// trial band, stress scenario or issue.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Projection(r ProjectionReport) ([]byte, error) {
	header := []string{"Year", "Age", "Retired", "EmploymentIncome", "StatePension", "Withdrawal",
		"TotalIncome", "Contributions", "TotalExpenses", "Surplus", "Shortfall",
		"PensionPot", "InvestmentPortfolio", "CashSavings", "TotalAssets", "PortfolioReturnPct"}
	rows := make([][]string, 0, len(r.Rows))
	for _, y := range r.Rows {
		rows = append(rows, []string{
			strconv.Itoa(y.Year),
			strconv.Itoa(y.Age),
			strconv.FormatBool(y.Retired),
			y.EmploymentIncome.StringFixed(2),
			y.StatePension.StringFixed(2),
			y.Withdrawal.StringFixed(2),
			y.TotalIncome.StringFixed(2),
			y.Contributions.StringFixed(2),
			y.TotalExpenses.StringFixed(2),
			y.Surplus.StringFixed(2),
			y.Shortfall.StringFixed(2),
			y.PensionPot.StringFixed(2),
			y.InvestmentPortfolio.StringFixed(2),
			y.CashSavings.StringFixed(2),
			y.TotalAssets.StringFixed(2),
			y.PortfolioReturn.StringFixed(4),
		})
	}
	return writeCSV(header, rows)
}

func (c CSVFormatter) Simulation(r SimulationReport) ([]byte, error) {
	header := []string{"Year", "Age", "P10", "P25", "P50", "P75", "P90"}
	if r.Results == nil {
		return writeCSV(header, nil)
	}
	rows := make([][]string, 0, len(r.Results.YearlyPercentiles))
	for _, y := range r.Results.YearlyPercentiles {
		rows = append(rows, append([]string{strconv.Itoa(y.Year), strconv.Itoa(y.Age)}, bandFields(y.PercentileBand)...))
	}
	return writeCSV(header, rows)
}

func (c CSVFormatter) Stress(r StressReport) ([]byte, error) {
	header := []string{"ScenarioID", "Name", "Severity", "Status", "SurvivalProbability", "ShortfallRisk",
		"ResilienceScore", "WorstCaseOutcome", "RecoveryYears", "PortfolioDeclinePct",
		"IncomeReductionPct", "ExpenseIncreasePct", "Error"}
	rows := make([][]string, 0, len(r.Results))
	for _, s := range r.Results {
		if s.Failed() {
			rows = append(rows, []string{s.ScenarioID, "", "", string(s.Status), "", "", "", "", "", "", "", "", s.Error})
			continue
		}
		recovery := ""
		if s.RecoveryTimeYears != nil {
			recovery = strconv.Itoa(*s.RecoveryTimeYears)
		}
		rows = append(rows, []string{
			s.ScenarioID,
			s.Name,
			string(s.Severity),
			string(s.Status),
			s.SurvivalProbability.StringFixed(2),
			s.ShortfallRisk.StringFixed(2),
			s.ResilienceScore.StringFixed(1),
			s.WorstCaseOutcome.StringFixed(2),
			recovery,
			s.Impact.PortfolioDeclinePercent.StringFixed(2),
			s.Impact.IncomeReductionPercent.StringFixed(2),
			s.Impact.ExpenseIncreasePercent.StringFixed(2),
			"",
		})
	}
	return writeCSV(header, rows)
}

func (c CSVFormatter) Validation(r domain.ValidationResult) ([]byte, error) {
	rows := make([][]string, 0, len(r.Issues))
	for _, is := range r.Issues {
		rows = append(rows, []string{string(is.Severity), is.Code, is.Message})
	}
	return writeCSV([]string{"Severity", "Code", "Message"}, rows)
}

func (c CSVFormatter) Catalog(entries []domain.StressScenario) ([]byte, error) {
	header := []string{"ID", "Name", "Category", "Severity", "Timing", "DurationYears", "Parameter", "Default", "Min", "Max", "Unit"}
	var rows [][]string
	for _, e := range entries {
		for _, name := range sortedParameterNames(e) {
			p := e.Parameters[name]
			rows = append(rows, []string{
				e.ID, e.Name, string(e.Category), string(e.Severity), string(e.Timing),
				strconv.Itoa(e.DurationYears), name,
				p.Default.String(), p.Min.String(), p.Max.String(), p.Unit,
			})
		}
	}
	return writeCSV(header, rows)
}

func bandFields(b domain.PercentileBand) []string {
	return []string{
		b.P10.StringFixed(2),
		b.P25.StringFixed(2),
		b.P50.StringFixed(2),
		b.P75.StringFixed(2),
		b.P90.StringFixed(2),
	}
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
