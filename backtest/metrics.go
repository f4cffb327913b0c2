package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wyndhurst/edgelab/models"
)

// computeStats derives the full metrics bundle from an equity curve and
// trade ledger (spec.md §4.4). Every field degrades gracefully when
// mathematically undefined: zero variance yields a Sharpe of 0 (no signal,
// not an error); Sortino follows sortino's rule below (0, or +Inf when no
// bar lost money and the mean return is positive); a profit factor or
// Calmar ratio with no opposing
// side yields +Inf, the convention used consistently across this function.
func computeStats(series models.Series, equity models.EquitySeries, trades []models.TradeRecord, cfg Config) models.Stats {
	periodsPerYear := series.InferFrequency().PeriodsPerYear()
	if cfg.PeriodsPerYear != nil {
		periodsPerYear = *cfg.PeriodsPerYear
	}

	stats := models.Stats{PeriodsPerYearUsed: periodsPerYear, NumTrades: len(trades)}
	if equity.Len() == 0 {
		return stats
	}
	stats.TotalReturn = equity.TotalReturn()

	returns := barReturns(equity.Values)
	if len(returns) > 0 {
		mean, std := stat.MeanStdDev(returns, nil)
		stats.AnnualizedVol = std * math.Sqrt(periodsPerYear)
		if std > 0 {
			stats.Sharpe = mean / std * math.Sqrt(periodsPerYear)
		}
		stats.Sortino = sortino(mean, returns, periodsPerYear)

		years := float64(len(equity.Values)-1) / periodsPerYear
		if years > 0 {
			stats.AnnualizedReturn = math.Pow(1+stats.TotalReturn, 1/years) - 1
		}
	}

	stats.MaxDrawdown = maxDrawdown(equity.Values)
	switch {
	case stats.MaxDrawdown < 0:
		stats.Calmar = stats.AnnualizedReturn / math.Abs(stats.MaxDrawdown)
	case stats.AnnualizedReturn > 0:
		stats.Calmar = math.Inf(1)
	}

	if len(trades) == 0 {
		return stats
	}
	var wins int
	var grossProfit, grossLoss, sumReturn float64
	best, worst := math.Inf(-1), math.Inf(1)
	for _, tr := range trades {
		sumReturn += tr.ReturnPct
		switch {
		case tr.PnL > 0:
			wins++
			grossProfit += tr.PnL
		case tr.PnL < 0:
			grossLoss += -tr.PnL
		}
		if tr.ReturnPct > best {
			best = tr.ReturnPct
		}
		if tr.ReturnPct < worst {
			worst = tr.ReturnPct
		}
	}
	stats.WinRate = float64(wins) / float64(len(trades))
	stats.AvgTradeReturn = sumReturn / float64(len(trades))
	stats.BestTrade = best
	stats.WorstTrade = worst
	switch {
	case grossLoss > 0:
		stats.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		stats.ProfitFactor = math.Inf(1)
	}
	return stats
}

// sortino mirrors the Sharpe formula but with a denominator computed only
// from the negative returns' own standard deviation (spec.md §4.4). No
// negative returns at all is the best possible outcome: +Inf when the
// strategy made money, 0 when it was flat.
func sortino(mean float64, returns []float64, periodsPerYear float64) float64 {
	neg := negativeOnly(returns)
	if len(neg) == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}
	_, negStd := stat.MeanStdDev(neg, nil)
	if negStd == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return mean / negStd * math.Sqrt(periodsPerYear)
}

func barReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		out = append(out, equity[i]/equity[i-1]-1)
	}
	return out
}

func negativeOnly(returns []float64) []float64 {
	out := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			out = append(out, r)
		}
	}
	return out
}

// maxDrawdown computes min((equity - cummax(equity)) / cummax(equity)),
// expressed as a non-positive fraction (spec.md §4.4).
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
