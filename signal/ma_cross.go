package signal

import (
	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/indicators"
	"github.com/wyndhurst/edgelab/models"
)

// MACross is a rule-based generator: entry when the fast moving average
// crosses above the slow one, exit on the symmetric downward cross
// (spec.md §4.3, rule-based variant).
type MACross struct {
	FastPeriod int
	SlowPeriod int
	// UseEMA selects exponential smoothing; the zero value (false) uses SMA.
	UseEMA bool
}

// NewMACross validates fast < slow and returns a ready generator.
func NewMACross(fastPeriod, slowPeriod int, useEMA bool) (*MACross, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 {
		return nil, edgeerr.Contract("signal.MACross", "period", fastPeriod, "periods must be positive")
	}
	if fastPeriod >= slowPeriod {
		return nil, edgeerr.Contract("signal.MACross", "FastPeriod", fastPeriod, "FastPeriod must be less than SlowPeriod")
	}
	return &MACross{FastPeriod: fastPeriod, SlowPeriod: slowPeriod, UseEMA: useEMA}, nil
}

// Name implements Generator.
func (g *MACross) Name() string { return "ma_cross" }

// Params implements Generator.
func (g *MACross) Params() map[string]float64 {
	useEMA := 0.0
	if g.UseEMA {
		useEMA = 1.0
	}
	return map[string]float64{"fast_period": float64(g.FastPeriod), "slow_period": float64(g.SlowPeriod), "use_ema": useEMA}
}

// GenerateSignals implements Generator: whole-series crossover detection,
// vectorized rather than a streaming OnData call per bar.
func (g *MACross) GenerateSignals(prices models.Series) (models.SignalFrame, error) {
	if err := prices.Validate("signal.MACross"); err != nil {
		return models.SignalFrame{}, err
	}
	closes := prices.Closes()
	var fast, slow []float64
	if g.UseEMA {
		fast = indicators.EMA(closes, g.FastPeriod)
		slow = indicators.EMA(closes, g.SlowPeriod)
	} else {
		fast = indicators.SMA(closes, g.FastPeriod)
		slow = indicators.SMA(closes, g.SlowPeriod)
	}

	n := prices.Len()
	entries := make([]bool, n)
	exits := make([]bool, n)
	for i := 1; i < n; i++ {
		if isNaN(fast[i]) || isNaN(slow[i]) || isNaN(fast[i-1]) || isNaN(slow[i-1]) {
			continue
		}
		crossedUp := fast[i-1] <= slow[i-1] && fast[i] > slow[i]
		crossedDown := fast[i-1] >= slow[i-1] && fast[i] < slow[i]
		entries[i] = crossedUp
		exits[i] = crossedDown
	}
	return models.NewSignalFrame(prices.Index, entries, exits)
}
