package signal

import (
	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/indicators"
	"github.com/wyndhurst/edgelab/models"
)

// MACDCross is a rule-based trend-following generator: entry on a bullish
// MACD/signal-line crossover, exit on the bearish crossover. Grounded on the
// teacher's MACD trend follower strategy.
type MACDCross struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
}

// NewMACDCross validates fast < slow and returns a generator.
func NewMACDCross(fastPeriod, slowPeriod, signalPeriod int) (*MACDCross, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return nil, edgeerr.Contract("signal.MACDCross", "period", fastPeriod, "all periods must be positive")
	}
	if fastPeriod >= slowPeriod {
		return nil, edgeerr.Contract("signal.MACDCross", "FastPeriod", fastPeriod, "FastPeriod must be less than SlowPeriod")
	}
	return &MACDCross{FastPeriod: fastPeriod, SlowPeriod: slowPeriod, SignalPeriod: signalPeriod}, nil
}

// Name implements Generator.
func (g *MACDCross) Name() string { return "macd_cross" }

// Params implements Generator.
func (g *MACDCross) Params() map[string]float64 {
	return map[string]float64{
		"fast_period":   float64(g.FastPeriod),
		"slow_period":   float64(g.SlowPeriod),
		"signal_period": float64(g.SignalPeriod),
	}
}

// GenerateSignals implements Generator.
func (g *MACDCross) GenerateSignals(prices models.Series) (models.SignalFrame, error) {
	if err := prices.Validate("signal.MACDCross"); err != nil {
		return models.SignalFrame{}, err
	}
	closes := prices.Closes()
	macdLine, signalLine, _ := indicators.MACD(closes, g.FastPeriod, g.SlowPeriod, g.SignalPeriod)

	n := prices.Len()
	entries := make([]bool, n)
	exits := make([]bool, n)
	for i := 1; i < n; i++ {
		if isNaN(macdLine[i]) || isNaN(signalLine[i]) || isNaN(macdLine[i-1]) || isNaN(signalLine[i-1]) {
			continue
		}
		entries[i] = macdLine[i-1] <= signalLine[i-1] && macdLine[i] > signalLine[i]
		exits[i] = macdLine[i-1] >= signalLine[i-1] && macdLine[i] < signalLine[i]
	}
	return models.NewSignalFrame(prices.Index, entries, exits)
}
