package signal

import "fmt"

// New constructs a rule-based generator by name from a flat parameter map,
// the shape a walk-forward search passes in (spec.md §4.5.1). ModelBased is
// excluded: it is constructed directly, since it owns a fitted classifier
// rather than a handful of scalar parameters.
func New(name string, params map[string]float64) (Generator, error) {
	switch name {
	case "ma_cross":
		useEMA := params["use_ema"] != 0
		return NewMACross(int(params["fast_period"]), int(params["slow_period"]), useEMA)
	case "rsi_threshold":
		return NewRSIThreshold(int(params["period"]), params["oversold"], params["overbought"])
	case "bb_reversion":
		return NewBBReversion(int(params["period"]), params["stddev_multiplier"])
	case "macd_cross":
		return NewMACDCross(int(params["fast_period"]), int(params["slow_period"]), int(params["signal_period"]))
	default:
		return nil, fmt.Errorf("unknown signal generator name: %s (available: %v)", name, AvailableGenerators())
	}
}

// AvailableGenerators lists the names New recognizes.
func AvailableGenerators() []string {
	return []string{"ma_cross", "rsi_threshold", "bb_reversion", "macd_cross"}
}
