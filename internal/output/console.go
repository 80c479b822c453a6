package output

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorSuccess = lipgloss.Color("#04B575")
	colorWarning = lipgloss.Color("#FFB86C")
	colorDanger  = lipgloss.Color("#FF5555")
	colorMuted   = lipgloss.Color("#6C7086")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted).Width(26)
	goodStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	badStyle     = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// ConsoleFormatter renders human-readable reports with lipgloss styling.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Projection(r ProjectionReport) ([]byte, error) {
	var buf bytes.Buffer
	s := r.Summary

	title(&buf, fmt.Sprintf("CASH-FLOW PROJECTION: %s", displayName(r.ScenarioID, r.Name)))
	if len(r.Defaulted) > 0 {
		fmt.Fprintf(&buf, "%s\n\n", warnStyle.Render("Defaults applied: "+strings.Join(r.Defaulted, ", ")))
	}

	section(&buf, "SUMMARY")
	field(&buf, "Projection years", strconv.Itoa(s.Years))
	field(&buf, "Starting assets", FormatCurrency(s.StartingAssets))
	field(&buf, "Assets at retirement", FormatCurrency(s.RetirementAssets))
	field(&buf, "Peak assets", FormatCurrency(s.PeakAssets))
	field(&buf, "Final wealth", FormatCurrency(s.FinalWealth))
	field(&buf, "Average annual income", FormatCurrency(s.AverageIncome))
	if s.Depleted {
		age := "-"
		if s.DepletionAge != nil {
			age = strconv.Itoa(*s.DepletionAge)
		}
		field(&buf, "Assets depleted at age", badStyle.Render(age))
		field(&buf, "Total shortfall", badStyle.Render(FormatCurrency(s.TotalShortfall)))
	} else {
		field(&buf, "Assets last to", goodStyle.Render("life expectancy"))
	}
	field(&buf, "Emergency fund goal", goalMark(s.EmergencyFundMet))
	field(&buf, "Legacy goal", goalMark(s.LegacyGoalMet))
	buf.WriteString("\n")

	section(&buf, "YEAR BY YEAR")
	t := newTable("Year", "Age", "Income", "Expenses", "Withdrawal", "Shortfall", "Pension", "Investments", "Cash", "Total")
	for _, y := range r.Rows {
		t.Row(
			strconv.Itoa(y.Year),
			strconv.Itoa(y.Age),
			FormatCurrency(y.TotalIncome),
			FormatCurrency(y.TotalExpenses),
			FormatCurrency(y.Withdrawal),
			FormatCurrency(y.Shortfall),
			FormatCurrency(y.PensionPot),
			FormatCurrency(y.InvestmentPortfolio),
			FormatCurrency(y.CashSavings),
			FormatCurrency(y.TotalAssets),
		)
	}
	buf.WriteString(t.String())
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func (c ConsoleFormatter) Simulation(r SimulationReport) ([]byte, error) {
	var buf bytes.Buffer
	title(&buf, "MONTE CARLO SIMULATION")

	if r.Validation != nil {
		writeIssues(&buf, *r.Validation)
	}
	res := r.Results
	if res == nil {
		return buf.Bytes(), nil
	}
	if res.Partial {
		fmt.Fprintf(&buf, "%s\n\n", warnStyle.Render(fmt.Sprintf("Partial result: %d of %d trials completed", res.SimulationCount, res.RequestedCount)))
	}

	section(&buf, "OUTCOME")
	if r.ScenarioID != "" {
		field(&buf, "Scenario", r.ScenarioID)
	}
	if r.RunID != "" {
		field(&buf, "Run", r.RunID)
	}
	field(&buf, "Trials", strconv.Itoa(res.SimulationCount))
	field(&buf, "Seed", strconv.FormatInt(res.Seed, 10))
	field(&buf, "Success rate", successStyle(res.SuccessRate).Render(FormatPercentage(res.SuccessRate)))
	field(&buf, "Shortfall risk", FormatPercentage(res.ShortfallRisk))
	field(&buf, "Risk level", riskStyle(res.RiskLevel).Render(riskLabel(res.RiskLevel)))
	field(&buf, "Median final wealth", FormatCurrency(res.MedianFinalWealth))
	field(&buf, "Average final wealth", FormatCurrency(res.AverageFinalWealth))
	field(&buf, "Worst drawdown", FormatPercentage(res.MaxDrawdown))
	buf.WriteString("\n")

	section(&buf, "PORTFOLIO")
	field(&buf, "Allocation", fmt.Sprintf("%s equity / %s bonds / %s cash",
		percentOf(res.Allocation.Equity), percentOf(res.Allocation.Bonds), percentOf(res.Allocation.Cash)))
	field(&buf, "Expected return", FormatPercentage(res.ExpectedReturn))
	field(&buf, "Volatility", FormatPercentage(res.Volatility))
	field(&buf, "Realised volatility", FormatPercentage(res.RealizedVolatility))
	field(&buf, "Withdrawal rate", FormatPercentage(res.WithdrawalRate))
	field(&buf, "Withdrawal risk", riskStyle(res.WithdrawalRisk).Render(riskLabel(res.WithdrawalRisk)))
	buf.WriteString("\n")

	section(&buf, "FINAL WEALTH PERCENTILES")
	ci := res.ConfidenceIntervals
	bands := newTable("P10", "P25", "P50", "P75", "P90")
	bands.Row(FormatCurrency(ci.P10), FormatCurrency(ci.P25), FormatCurrency(ci.P50), FormatCurrency(ci.P75), FormatCurrency(ci.P90))
	buf.WriteString(bands.String())
	buf.WriteString("\n\n")

	if len(res.YearlyPercentiles) > 0 {
		section(&buf, "ASSETS BY AGE")
		t := newTable("Age", "P10", "P25", "P50", "P75", "P90")
		for i, y := range res.YearlyPercentiles {
			if i%5 != 4 && i != len(res.YearlyPercentiles)-1 {
				continue
			}
			t.Row(strconv.Itoa(y.Age), FormatCurrency(y.P10), FormatCurrency(y.P25), FormatCurrency(y.P50), FormatCurrency(y.P75), FormatCurrency(y.P90))
		}
		buf.WriteString(t.String())
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, "\nCompleted in %s\n", res.ExecutionTime.Round(time.Millisecond))
	return buf.Bytes(), nil
}

func (c ConsoleFormatter) Stress(r StressReport) ([]byte, error) {
	var buf bytes.Buffer
	title(&buf, fmt.Sprintf("STRESS TESTS: %s", r.ScenarioID))

	t := newTable("Scenario", "Severity", "Survival", "Resilience", "Worst case", "Recovery", "Portfolio hit", "Income hit", "Expense rise")
	for _, s := range r.Results {
		if s.Failed() {
			t.Row(s.ScenarioID, badStyle.Render("error"), s.Error, "", "", "", "", "", "")
			continue
		}
		recovery := "never"
		if s.RecoveryTimeYears != nil {
			recovery = fmt.Sprintf("%d yrs", *s.RecoveryTimeYears)
		}
		t.Row(
			s.Name,
			string(s.Severity),
			FormatPercentage(s.SurvivalProbability),
			s.ResilienceScore.StringFixed(1),
			FormatCurrency(s.WorstCaseOutcome),
			recovery,
			FormatPercentage(s.Impact.PortfolioDeclinePercent),
			FormatPercentage(s.Impact.IncomeReductionPercent),
			FormatPercentage(s.Impact.ExpenseIncreasePercent),
		)
	}
	buf.WriteString(t.String())
	buf.WriteString("\n\n")

	sum := r.Summary
	section(&buf, "SUMMARY")
	field(&buf, "Scenarios tested", strconv.Itoa(sum.Tested))
	if sum.Failed > 0 {
		field(&buf, "Scenarios failed", badStyle.Render(strconv.Itoa(sum.Failed)))
	}
	field(&buf, "Average resilience", sum.AverageResilience.StringFixed(1))
	field(&buf, "Lowest resilience", sum.MinResilience.StringFixed(1))
	field(&buf, "Max shortfall risk", FormatPercentage(sum.MaxShortfallRisk))
	if sum.WorstScenarioID != "" {
		field(&buf, "Most damaging", sum.WorstScenarioID)
	}
	if r.RunID != "" {
		field(&buf, "Run", r.RunID)
	}
	return buf.Bytes(), nil
}

func (c ConsoleFormatter) Validation(r domain.ValidationResult) ([]byte, error) {
	var buf bytes.Buffer
	title(&buf, "PARAMETER VALIDATION")
	field(&buf, "Withdrawal rate", FormatPercentage(r.WithdrawalRate))
	field(&buf, "Expected real return", FormatPercentage(r.RealReturn))
	if r.IsValid {
		field(&buf, "Status", goodStyle.Render("ready to run"))
	} else {
		field(&buf, "Status", badStyle.Render("blocked"))
	}
	buf.WriteString("\n")
	writeIssues(&buf, r)
	return buf.Bytes(), nil
}

func (c ConsoleFormatter) Catalog(entries []domain.StressScenario) ([]byte, error) {
	var buf bytes.Buffer
	title(&buf, "STRESS SCENARIO CATALOG")

	t := newTable("ID", "Category", "Severity", "Timing", "Years", "Parameters")
	for _, e := range entries {
		var params []string
		for _, name := range sortedParameterNames(e) {
			p := e.Parameters[name]
			params = append(params, fmt.Sprintf("%s=%s [%s-%s]", name, p.Default, p.Min, p.Max))
		}
		t.Row(e.ID, string(e.Category), string(e.Severity), string(e.Timing), strconv.Itoa(e.DurationYears), strings.Join(params, "\n"))
	}
	buf.WriteString(t.String())
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func writeIssues(buf *bytes.Buffer, r domain.ValidationResult) {
	groups := []struct {
		heading string
		items   []string
		style   lipgloss.Style
	}{
		{"ERRORS", r.Errors, badStyle},
		{"WARNINGS", r.Warnings, warnStyle},
		{"SUGGESTIONS", r.Suggestions, goodStyle},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		fmt.Fprintln(buf, g.style.Render(g.heading))
		for _, item := range g.items {
			fmt.Fprintf(buf, "  • %s\n", item)
		}
		buf.WriteString("\n")
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col >= 2 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})
}

func title(buf *bytes.Buffer, text string) {
	fmt.Fprintln(buf, titleStyle.Render(text))
	fmt.Fprintln(buf, strings.Repeat("=", lipgloss.Width(text)))
	fmt.Fprintln(buf)
}

func section(buf *bytes.Buffer, text string) {
	fmt.Fprintln(buf, sectionStyle.Render(text))
}

func field(buf *bytes.Buffer, label, value string) {
	fmt.Fprintf(buf, "  %s %s\n", labelStyle.Render(label+":"), value)
}

func goalMark(met bool) string {
	if met {
		return goodStyle.Render("met")
	}
	return warnStyle.Render("not met")
}

func successStyle(rate decimal.Decimal) lipgloss.Style {
	return riskStyle(domain.RiskLevelForSuccess(rate))
}

func riskStyle(level string) lipgloss.Style {
	switch level {
	case "low":
		return goodStyle
	case "moderate":
		return warnStyle
	default:
		return badStyle
	}
}

func riskLabel(level string) string {
	return strings.ReplaceAll(level, "_", " ")
}

func displayName(id, name string) string {
	if name == "" || name == id {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

func sortedParameterNames(e domain.StressScenario) []string {
	return slices.Sorted(maps.Keys(e.Parameters))
}
