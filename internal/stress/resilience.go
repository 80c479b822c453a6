package stress

import (
	"math"

	"github.com/shopspring/decimal"
)

// Resilience score weights.
const (
	survivalWeight = 0.5
	declineWeight  = 0.3
	recoveryWeight = 0.2
)

// recoveryTolerance is how close to the baseline path a stressed path must
// stay to count as recovered.
const recoveryTolerance = 0.99

// ResilienceScore combines survival, wealth decline and recovery speed into a
// 0-100 score:
//
//	100 * (0.5*survival + 0.3*(1-decline) + 0.2*recovery)
//
// survival and decline are fractions in [0, 1]; recovery is
// 1 - years/remaining when the stressed path recovers and 0 when it never
// does. Higher survival, smaller decline and faster recovery never lower
// the score.
func ResilienceScore(survival, decline float64, recoveryYears *int, remaining int) decimal.Decimal {
	survival = clamp01(survival)
	decline = clamp01(decline)

	recovery := 0.0
	if recoveryYears != nil && remaining > 0 {
		recovery = clamp01(1 - float64(*recoveryYears)/float64(remaining))
	}

	score := 100 * (survivalWeight*survival + declineWeight*(1-decline) + recoveryWeight*recovery)
	return decimal.NewFromFloat(score).Round(1)
}

// WealthDecline is the fractional fall in final wealth against the baseline.
func WealthDecline(baselineFinal, stressedFinal decimal.Decimal, stressedDepleted bool) float64 {
	if !baselineFinal.IsPositive() {
		if stressedDepleted {
			return 1
		}
		return 0
	}
	d := baselineFinal.Sub(stressedFinal).Div(baselineFinal).InexactFloat64()
	return clamp01(d)
}

// RecoveryYears measures how long after the shock start the stressed path
// takes to get back within tolerance of the baseline path for good. It
// returns 0 when the stressed path never falls behind and nil when it is
// still behind in the final year.
func RecoveryYears(baseline, stressed []float64, start int) *int {
	n := min(len(baseline), len(stressed))
	lastBehind := -1
	for y := max(start, 0); y < n; y++ {
		if behind(baseline[y], stressed[y]) {
			lastBehind = y
		}
	}
	if lastBehind == -1 {
		zero := 0
		return &zero
	}
	if lastBehind == n-1 {
		return nil
	}
	years := lastBehind + 1 - start
	return &years
}

func behind(baseline, stressed float64) bool {
	if baseline <= 0 {
		return false
	}
	return stressed < baseline*recoveryTolerance
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
