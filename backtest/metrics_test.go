package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wyndhurst/edgelab/models"
)

func mkEquity(values []float64) models.EquitySeries {
	idx := make([]time.Time, len(values))
	for i := range idx {
		idx[i] = ts(i)
	}
	return models.EquitySeries{Index: idx, Values: values}
}

func TestComputeStats_EmptyEquity(t *testing.T) {
	stats := computeStats(models.Series{}, models.EquitySeries{}, nil, DefaultConfig())
	assert.Equal(t, 0, stats.NumTrades)
	assert.Equal(t, 0.0, stats.TotalReturn)
}

func TestComputeStats_ZeroVarianceSharpe(t *testing.T) {
	series := mkSeries([]float64{100, 100, 100}, []float64{101, 101, 101}, []float64{99, 99, 99}, []float64{100, 100, 100})
	equity := mkEquity([]float64{10_000, 10_000, 10_000})
	stats := computeStats(series, equity, nil, DefaultConfig())
	assert.Equal(t, 0.0, stats.Sharpe, "zero variance degrades to 0, never NaN")
	assert.Equal(t, 0.0, stats.Sortino)
}

func TestComputeStats_ProfitFactorNoLosses(t *testing.T) {
	trades := []models.TradeRecord{
		{EntryPrice: 100, ExitPrice: 110, PnL: 500, ReturnPct: 0.1},
		{EntryPrice: 100, ExitPrice: 105, PnL: 250, ReturnPct: 0.05},
	}
	series := mkSeries([]float64{100, 110}, []float64{111, 111}, []float64{99, 99}, []float64{100, 110})
	equity := mkEquity([]float64{10_000, 10_750})
	stats := computeStats(series, equity, trades, DefaultConfig())
	assert.True(t, math.IsInf(stats.ProfitFactor, 1), "no losing trades means profit factor is +Inf by convention")
	assert.Equal(t, 1.0, stats.WinRate)
}

func TestComputeStats_NoTrades(t *testing.T) {
	series := mkSeries([]float64{100, 101}, []float64{102, 102}, []float64{99, 99}, []float64{100, 101})
	equity := mkEquity([]float64{10_000, 10_000})
	stats := computeStats(series, equity, nil, DefaultConfig())
	assert.Equal(t, 0, stats.NumTrades)
	assert.Equal(t, 0.0, stats.WinRate)
	assert.Equal(t, 0.0, stats.ProfitFactor)
}

func TestComputeStats_MaxDrawdown(t *testing.T) {
	series := mkSeries([]float64{100, 100, 100, 100}, []float64{101, 101, 101, 101}, []float64{99, 99, 99, 99}, []float64{100, 100, 100, 100})
	equity := mkEquity([]float64{10_000, 12_000, 9_000, 10_800})
	stats := computeStats(series, equity, nil, DefaultConfig())
	assert.InDelta(t, -0.25, stats.MaxDrawdown, 1e-9, "peak 12000 to trough 9000 is a 25% drawdown")
}

func TestComputeStats_SortinoInfWhenNoLosses(t *testing.T) {
	series := mkSeries([]float64{100, 101, 102}, []float64{102, 103, 104}, []float64{99, 100, 101}, []float64{100, 101, 102})
	equity := mkEquity([]float64{10_000, 10_100, 10_201})
	stats := computeStats(series, equity, nil, DefaultConfig())
	assert.True(t, math.IsInf(stats.Sortino, 1), "strictly positive returns with no downside give +Inf Sortino")
}

func TestComputeStats_FrequencyOverride(t *testing.T) {
	series := mkSeries([]float64{100, 100}, []float64{101, 101}, []float64{99, 99}, []float64{100, 100})
	equity := mkEquity([]float64{10_000, 10_000})
	override := 365.0
	cfg := DefaultConfig()
	cfg.PeriodsPerYear = &override
	stats := computeStats(series, equity, nil, cfg)
	assert.Equal(t, 365.0, stats.PeriodsPerYearUsed)
}
