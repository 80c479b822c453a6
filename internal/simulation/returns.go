package simulation

import (
	"math/rand/v2"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"
)

// randomPath is a pre-drawn sequence of yearly class returns for one trial.
// Classes with zero volatility always return the model mean, so a
// zero-volatility model reproduces the deterministic projection exactly.
type randomPath struct {
	years []domain.ClassReturns
}

// newRandomPath draws years*3 normal returns from src in year-major order.
func newRandomPath(model domain.ReturnModel, years int, src rand.Source) randomPath {
	var dists [3]distuv.Normal
	for _, c := range domain.AssetClasses {
		dists[c] = distuv.Normal{
			Mu:    model.Mean[c].InexactFloat64(),
			Sigma: model.Volatility[c],
			Src:   src,
		}
	}

	path := randomPath{years: make([]domain.ClassReturns, years)}
	for y := 0; y < years; y++ {
		for _, c := range domain.AssetClasses {
			if model.Volatility[c] == 0 {
				path.years[y][c] = model.Mean[c]
				continue
			}
			path.years[y][c] = decimal.NewFromFloat(dists[c].Rand()).Round(6)
		}
	}
	return path
}

// Returns implements projection.ReturnPath.
func (p randomPath) Returns(year int) domain.ClassReturns {
	if year < 0 || year >= len(p.years) {
		return domain.ClassReturns{}
	}
	return p.years[year]
}

// trialSource returns the independent random source of trial index under seed.
// Every trial owns its stream, so results do not depend on how trials are
// scheduled across workers or batches.
func trialSource(seed int64, index int) rand.Source {
	return rand.NewPCG(uint64(seed), uint64(index))
}
