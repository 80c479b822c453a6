package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/tui/components"
	"github.com/plannetic/ifaengine/internal/tui/tuistyles"
)

// View renders the progress bar while running and the headline figures
// with a fan chart once the run returns.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(tuistyles.TitleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.progress.Render())
	b.WriteString("\n")
	b.WriteString(tuistyles.MetricLabelStyle.Render("elapsed " + m.elapsed.Round(time.Millisecond).String()))
	b.WriteString("\n\n")

	switch m.state {
	case stateRunning:
		b.WriteString(help("ctrl+c", "stop early and keep completed trials"))
	case stateStopping:
		b.WriteString(tuistyles.WarnStyle.Render("stopping after the current batches..."))
	case stateFailed:
		b.WriteString(tuistyles.ErrorStyle.Render("error: " + m.err.Error()))
	case stateCancelled:
		b.WriteString(tuistyles.WarnStyle.Render(fmt.Sprintf("Partial result: %d of %d trials",
			m.result.SimulationCount, m.result.RequestedCount)))
		b.WriteString("\n\n")
		b.WriteString(m.summary())
	case stateDone:
		b.WriteString(m.summary())
	}
	b.WriteString("\n")
	return tuistyles.AppStyle.Render(b.String())
}

func (m Model) summary() string {
	res := m.result
	rate, _ := res.SuccessRate.Float64()
	cards := []*components.MetricCard{
		components.NewMetricCard("Success rate", output.FormatPercentage(res.SuccessRate)).
			WithValueStyle(tuistyles.SuccessRateStyle(rate)).
			WithDescription("risk " + res.RiskLevel),
		components.NewMetricCard("Median final wealth", output.FormatCurrency(res.MedianFinalWealth)),
		components.NewMetricCard("10th percentile", output.FormatCurrency(res.ConfidenceIntervals.P10)),
		components.NewMetricCard("90th percentile", output.FormatCurrency(res.ConfidenceIntervals.P90)),
	}
	columns := 4
	if m.width < 100 {
		columns = 2
	}

	var b strings.Builder
	b.WriteString(components.MetricGrid(cards, columns))
	if len(res.YearlyPercentiles) > 0 {
		chart := components.NewFanChart("Total assets by age", res.YearlyPercentiles)
		chart.Width = max(20, min(m.width-16, 72))
		b.WriteString("\n\n")
		b.WriteString(chart.Render())
	}
	return b.String()
}

func help(key, desc string) string {
	return tuistyles.HelpKeyStyle.Render(key) + " " + tuistyles.HelpDescStyle.Render(desc)
}
