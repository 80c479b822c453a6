package stress

import (
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
)

// Summarize aggregates a batch of stress results. Failed ids are counted
// but excluded from the resilience and shortfall figures.
func Summarize(results []domain.StressTestResult) domain.StressTestSummary {
	sum := domain.StressTestSummary{
		AverageResilience: decimal.Zero,
		MinResilience:     decimal.Zero,
		MaxShortfallRisk:  decimal.Zero,
	}
	total := decimal.Zero
	for _, r := range results {
		if r.Failed() {
			sum.Failed++
			continue
		}
		if sum.Tested == 0 || r.ResilienceScore.LessThan(sum.MinResilience) {
			sum.MinResilience = r.ResilienceScore
			sum.WorstScenarioID = r.ScenarioID
		}
		if r.ShortfallRisk.GreaterThan(sum.MaxShortfallRisk) {
			sum.MaxShortfallRisk = r.ShortfallRisk
		}
		total = total.Add(r.ResilienceScore)
		sum.Tested++
	}
	if sum.Tested > 0 {
		sum.AverageResilience = total.Div(decimal.NewFromInt(int64(sum.Tested))).Round(1)
	}
	return sum
}
