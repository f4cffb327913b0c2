package montecarlo

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/models"
)

// Simulator runs Monte-Carlo robustness analysis over a realised return
// stream.
type Simulator struct{}

// NewSimulator creates a Monte-Carlo simulator.
func NewSimulator() *Simulator { return &Simulator{} }

// Run permutes returns NSimulations times (sampling without replacement —
// each path uses every observed return exactly once, in a different order),
// compounds each permutation from initialCapital into an equity path of
// n+1 values, and summarises the resulting distribution of outcomes
// (spec.md §4.5.2).
func (s *Simulator) Run(ctx context.Context, returns []float64, initialCapital float64, cfg Config) (*models.MonteCarloResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(returns) < minObservations {
		return nil, edgeerr.Contract("montecarlo.Simulator", "returns", len(returns), "fewer than 10 observations")
	}
	if initialCapital <= 0 {
		return nil, edgeerr.Contract("montecarlo.Simulator", "initialCapital", initialCapital, "initial capital must be positive")
	}

	n := len(returns)
	paths := make([][]float64, cfg.NSimulations)
	finalReturns := make([]float64, cfg.NSimulations)
	drawdowns := make([]float64, cfg.NSimulations)

	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.NSimulations; p++ {
		p := p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			seed := cfg.Seed + int64(p)
			path := simulatePath(returns, initialCapital, seed)
			paths[p] = path
			finalReturns[p] = path[len(path)-1]/path[0] - 1
			drawdowns[p] = maxDrawdown(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return buildResult(paths, finalReturns, drawdowns), nil
}

// simulatePath draws a seeded permutation of returns (Fisher-Yates over a
// private copy, so the input slice is never mutated and concurrent paths
// never share state) and compounds it from capital.
func simulatePath(returns []float64, capital float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	permuted := append([]float64(nil), returns...)
	rng.Shuffle(len(permuted), func(i, j int) { permuted[i], permuted[j] = permuted[j], permuted[i] })

	path := make([]float64, len(permuted)+1)
	path[0] = capital
	for i, r := range permuted {
		path[i+1] = path[i] * (1 + r)
	}
	return path
}

// maxDrawdown mirrors the backtest engine's convention: a non-positive
// fraction, min((equity - cummax(equity)) / cummax(equity)).
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (v - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// buildResult derives every summary statistic from the raw simulation
// output. Percentile/VaR/CVaR computation requires ascending-sorted input
// (gonum's stat.Quantile contract), so both distributions are sorted on
// private copies before reading off quantiles; the caller-facing
// FinalReturnDistribution and DrawdownDistribution fields keep the
// per-path (unsorted, index-aligned-with-EquityPaths) order.
func buildResult(paths [][]float64, finalReturns, drawdowns []float64) *models.MonteCarloResult {
	sortedReturns := append([]float64(nil), finalReturns...)
	sort.Float64s(sortedReturns)
	sortedDrawdowns := append([]float64(nil), drawdowns...)
	sort.Float64s(sortedDrawdowns)

	percentiles := map[int]float64{
		5:  stat.Quantile(0.05, stat.LinInterp, sortedReturns, nil),
		25: stat.Quantile(0.25, stat.LinInterp, sortedReturns, nil),
		75: stat.Quantile(0.75, stat.LinInterp, sortedReturns, nil),
		95: stat.Quantile(0.95, stat.LinInterp, sortedReturns, nil),
	}

	var95 := stat.Quantile(0.05, stat.LinInterp, sortedReturns, nil)
	var99 := stat.Quantile(0.01, stat.LinInterp, sortedReturns, nil)
	cvar95 := meanAtOrBelow(sortedReturns, var95)

	meanDD, _ := stat.MeanStdDev(drawdowns, nil)
	worstDD := stat.Quantile(0.01, stat.LinInterp, sortedDrawdowns, nil)

	var positive, doubling, loseHalf int
	for _, r := range finalReturns {
		if r > 0 {
			positive++
		}
		if r >= 1.0 {
			doubling++
		}
		if r <= -0.5 {
			loseHalf++
		}
	}
	total := float64(len(finalReturns))

	return &models.MonteCarloResult{
		ID:                      uuid.NewString(),
		NPaths:                  len(paths),
		EquityPaths:             paths,
		FinalReturnDistribution: finalReturns,
		Percentiles:             percentiles,
		VaR95:                   var95,
		VaR99:                   var99,
		CVaR95:                  cvar95,
		MeanMaxDrawdown:         meanDD,
		WorstMaxDrawdown:        worstDD,
		DrawdownDistribution:    drawdowns,
		ProbPositiveReturn:      float64(positive) / total,
		ProbDoubling:            float64(doubling) / total,
		ProbLoseHalf:            float64(loseHalf) / total,
	}
}

// meanAtOrBelow averages every value at or below threshold in a sorted
// slice. sorted must be ascending; at least one value (threshold itself,
// by construction as a quantile of the same data) always qualifies.
func meanAtOrBelow(sorted []float64, threshold float64) float64 {
	var sum float64
	var count int
	for _, v := range sorted {
		if v <= threshold {
			sum += v
			count++
		}
	}
	if count == 0 {
		return threshold
	}
	return sum / float64(count)
}
