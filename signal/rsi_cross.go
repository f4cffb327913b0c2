package signal

import (
	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/indicators"
	"github.com/wyndhurst/edgelab/models"
)

// RSIThreshold is a rule-based generator: entry when RSI crosses up through
// the oversold level, exit when it crosses down through the overbought
// level. Supplements the required MA-cross rule-based variant (spec.md
// §4.3), grounded on the teacher's RSI momentum strategy.
type RSIThreshold struct {
	Period     int
	Oversold   float64
	Overbought float64
}

// NewRSIThreshold validates oversold < overbought and returns a generator.
func NewRSIThreshold(period int, oversold, overbought float64) (*RSIThreshold, error) {
	if period <= 1 {
		return nil, edgeerr.Contract("signal.RSIThreshold", "Period", period, "period must be greater than 1")
	}
	if oversold >= overbought {
		return nil, edgeerr.Contract("signal.RSIThreshold", "Oversold", oversold, "Oversold must be less than Overbought")
	}
	return &RSIThreshold{Period: period, Oversold: oversold, Overbought: overbought}, nil
}

// Name implements Generator.
func (g *RSIThreshold) Name() string { return "rsi_threshold" }

// Params implements Generator.
func (g *RSIThreshold) Params() map[string]float64 {
	return map[string]float64{"period": float64(g.Period), "oversold": g.Oversold, "overbought": g.Overbought}
}

// GenerateSignals implements Generator.
func (g *RSIThreshold) GenerateSignals(prices models.Series) (models.SignalFrame, error) {
	if err := prices.Validate("signal.RSIThreshold"); err != nil {
		return models.SignalFrame{}, err
	}
	closes := prices.Closes()
	rsi := indicators.RSI(closes, g.Period)

	n := prices.Len()
	entries := make([]bool, n)
	exits := make([]bool, n)
	for i := 1; i < n; i++ {
		if isNaN(rsi[i]) || isNaN(rsi[i-1]) {
			continue
		}
		entries[i] = rsi[i-1] < g.Oversold && rsi[i] >= g.Oversold
		exits[i] = rsi[i-1] > g.Overbought && rsi[i] <= g.Overbought
	}
	return models.NewSignalFrame(prices.Index, entries, exits)
}
