package signal

import (
	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/indicators"
	"github.com/wyndhurst/edgelab/models"
)

// BBReversion is a rule-based mean-reversion generator: entry when price
// crosses down through the lower band, exit when price crosses up through
// the upper band. Grounded on the teacher's Bollinger Bands strategy.
type BBReversion struct {
	Period           int
	StdDevMultiplier float64
}

// NewBBReversion validates its parameters and returns a generator.
func NewBBReversion(period int, stdDevMultiplier float64) (*BBReversion, error) {
	if period <= 1 {
		return nil, edgeerr.Contract("signal.BBReversion", "Period", period, "period must be greater than 1")
	}
	if stdDevMultiplier <= 0 {
		return nil, edgeerr.Contract("signal.BBReversion", "StdDevMultiplier", stdDevMultiplier, "StdDevMultiplier must be positive")
	}
	return &BBReversion{Period: period, StdDevMultiplier: stdDevMultiplier}, nil
}

// Name implements Generator.
func (g *BBReversion) Name() string { return "bb_reversion" }

// Params implements Generator.
func (g *BBReversion) Params() map[string]float64 {
	return map[string]float64{"period": float64(g.Period), "stddev_multiplier": g.StdDevMultiplier}
}

// GenerateSignals implements Generator.
func (g *BBReversion) GenerateSignals(prices models.Series) (models.SignalFrame, error) {
	if err := prices.Validate("signal.BBReversion"); err != nil {
		return models.SignalFrame{}, err
	}
	closes := prices.Closes()
	upper, _, lower := indicators.BollingerBands(closes, g.Period, g.StdDevMultiplier)

	n := prices.Len()
	entries := make([]bool, n)
	exits := make([]bool, n)
	for i := 1; i < n; i++ {
		if isNaN(upper[i]) || isNaN(lower[i]) || isNaN(upper[i-1]) || isNaN(lower[i-1]) {
			continue
		}
		entries[i] = closes[i-1] >= lower[i-1] && closes[i] < lower[i]
		exits[i] = closes[i-1] <= upper[i-1] && closes[i] > upper[i]
	}
	return models.NewSignalFrame(prices.Index, entries, exits)
}
