package simulation

import (
	"math"
	"sort"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Reported percentile levels, in PercentileBand field order.
var percentileLevels = [5]float64{0.10, 0.25, 0.50, 0.75, 0.90}

// Aggregate reduces trial outcomes to run statistics. It is a pure function
// of the multiset of outcomes: outcomes are ordered by trial index before any
// floating point reduction, so splitting a run into batches and concatenating
// them in any order yields identical results.
//
// Percentiles use the nearest-rank method (gonum stat.Empirical): the
// reported p-th percentile is the smallest outcome whose empirical CDF
// reaches p. The median is the nearest-rank p50.
func Aggregate(outcomes []domain.TrialOutcome, startAge int) domain.SimulationResults {
	trials := append([]domain.TrialOutcome(nil), outcomes...)
	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Index < trials[j].Index })

	n := len(trials)
	hundred := decimal.NewFromInt(100)
	res := domain.SimulationResults{
		SimulationCount: n,
		SuccessRate:     decimal.Zero,
	}
	if n == 0 {
		res.ShortfallRisk = hundred
		res.RiskLevel = domain.RiskLevelForSuccess(res.SuccessRate)
		return res
	}

	successes := 0
	total := decimal.Zero
	finals := make([]float64, n)
	worstDrawdown := 0.0
	var pooled []float64
	for i, tr := range trials {
		if tr.Success {
			successes++
		}
		total = total.Add(tr.FinalWealth)
		finals[i] = tr.FinalWealth.InexactFloat64()
		worstDrawdown = math.Max(worstDrawdown, tr.MaxDrawdown)
		pooled = append(pooled, tr.Returns...)
	}

	res.SuccessRate = decimal.NewFromInt(int64(successes)).Mul(hundred).Div(decimal.NewFromInt(int64(n))).Round(4)
	res.ShortfallRisk = hundred.Sub(res.SuccessRate)
	res.AverageFinalWealth = total.Div(decimal.NewFromInt(int64(n))).Round(2)
	res.ConfidenceIntervals = percentileBand(finals)
	res.MedianFinalWealth = res.ConfidenceIntervals.P50
	res.MaxDrawdown = decimal.NewFromFloat(worstDrawdown * 100).Round(2)
	if len(pooled) > 1 {
		res.RealizedVolatility = decimal.NewFromFloat(stat.StdDev(pooled, nil) * 100).Round(2)
	}
	res.RiskLevel = domain.RiskLevelForSuccess(res.SuccessRate)
	res.YearlyPercentiles = yearlyPercentiles(trials, startAge)
	return res
}

// percentileBand sorts values in place and reads the nearest-rank percentiles.
func percentileBand(values []float64) domain.PercentileBand {
	sort.Float64s(values)
	var q [5]decimal.Decimal
	for i, p := range percentileLevels {
		q[i] = decimal.NewFromFloat(stat.Quantile(p, stat.Empirical, values, nil)).Round(2)
	}
	return domain.PercentileBand{P10: q[0], P25: q[1], P50: q[2], P75: q[3], P90: q[4]}
}

func yearlyPercentiles(trials []domain.TrialOutcome, startAge int) []domain.YearlyPercentiles {
	years := 0
	for _, tr := range trials {
		years = max(years, len(tr.Balances))
	}

	rows := make([]domain.YearlyPercentiles, 0, years)
	column := make([]float64, 0, len(trials))
	for y := 0; y < years; y++ {
		column = column[:0]
		for _, tr := range trials {
			if y < len(tr.Balances) {
				column = append(column, tr.Balances[y])
			}
		}
		rows = append(rows, domain.YearlyPercentiles{
			Year:           y + 1,
			Age:            startAge + y,
			PercentileBand: percentileBand(column),
		})
	}
	return rows
}

// maxDrawdown returns the largest peak-to-trough decline of a balance
// sequence as a fraction, treating start as the opening peak.
func maxDrawdown(start float64, balances []float64) float64 {
	peak := start
	worst := 0.0
	for _, b := range balances {
		peak = math.Max(peak, b)
		if peak <= 0 {
			continue
		}
		worst = math.Max(worst, (peak-b)/peak)
	}
	return worst
}
