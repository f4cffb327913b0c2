// Package indicators provides stateless rolling-window functions over
// ordered real-valued price sequences. The output at position i is a
// function of input positions [0..i] only — no centering, no forward fill.
// The leading positions before enough history exists are math.NaN
// (missing); callers must tolerate this rather than treat it as an error.
// SMA, EMA, StdDev, RSI and ATR return nil when the input is shorter than
// one full window; BollingerBands and MACD always return sequences of the
// input's length, entirely missing when the input is too short.
package indicators

import (
	"math"
)

// SMA calculates the Simple Moving Average.
func SMA(data []float64, period int) []float64 {
	if len(data) < period || period <= 0 {
		return nil
	}
	sma := make([]float64, len(data))
	for i := 0; i < len(data); i++ {
		if i < period-1 {
			sma[i] = math.NaN()
			continue
		}
		var sum float64
		for j := 0; j < period; j++ {
			sum += data[i-j]
		}
		sma[i] = sum / float64(period)
	}
	return sma
}

// EMA calculates the Exponential Moving Average.
func EMA(data []float64, period int) []float64 {
	if len(data) < period || period <= 0 {
		return nil
	}
	ema := make([]float64, len(data))
	k := 2.0 / float64(period+1)

	// First EMA is SMA
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	// Fill initial NaN
	for i := 0; i < period-1; i++ {
		ema[i] = math.NaN()
	}

	for i := period; i < len(data); i++ {
		ema[i] = (data[i]-ema[i-1])*k + ema[i-1]
	}
	return ema
}

// StdDev calculates the rolling Standard Deviation.
func StdDev(data []float64, period int) []float64 {
	if len(data) < period || period <= 0 {
		return nil
	}
	stdDev := make([]float64, len(data))
	sma := SMA(data, period)

	for i := 0; i < len(data); i++ {
		if i < period-1 {
			stdDev[i] = math.NaN()
			continue
		}
		var varianceSum float64
		for j := 0; j < period; j++ {
			diff := data[i-j] - sma[i]
			varianceSum += diff * diff
		}
		stdDev[i] = math.Sqrt(varianceSum / float64(period))
	}
	return stdDev
}

// RSI calculates the Relative Strength Index.
func RSI(data []float64, period int) []float64 {
	if len(data) < period+1 || period <= 0 {
		return nil
	}
	rsi := make([]float64, len(data))

	gains := make([]float64, len(data))
	losses := make([]float64, len(data))

	for i := 1; i < len(data); i++ {
		change := data[i] - data[i-1]
		if change > 0 {
			gains[i] = change
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -change
		}
	}

	// Calculate initial average gain/loss
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Fill initial values with NaN
	for i := 0; i < period; i++ {
		rsi[i] = math.NaN()
	}

	// First RSI
	if avgLoss == 0 {
		rsi[period] = 100
	} else {
		rs := avgGain / avgLoss
		rsi[period] = 100 - (100 / (1 + rs))
	}

	// Subsequent RSI values using smoothed averages
	for i := period + 1; i < len(data); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)

		if avgLoss == 0 {
			rsi[i] = 100
		} else {
			rs := avgGain / avgLoss
			rsi[i] = 100 - (100 / (1 + rs))
		}
	}

	return rsi
}

// BollingerBands calculates the Bollinger Bands (Upper, Middle, Lower).
func BollingerBands(data []float64, period int, stdDevMultiplier float64) ([]float64, []float64, []float64) {
	middle := SMA(data, period)
	if middle == nil {
		// Too short for one window: every band position is missing.
		middle = make([]float64, len(data))
		for i := range middle {
			middle[i] = math.NaN()
		}
	}
	std := StdDev(data, period)
	upper := make([]float64, len(data))
	lower := make([]float64, len(data))

	for i := 0; i < len(data); i++ {
		if math.IsNaN(middle[i]) {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		upper[i] = middle[i] + (std[i] * stdDevMultiplier)
		lower[i] = middle[i] - (std[i] * stdDevMultiplier)
	}
	return upper, middle, lower
}

// MACD calculates the Moving Average Convergence Divergence.
func MACD(data []float64, fastPeriod, slowPeriod, signalPeriod int) ([]float64, []float64, []float64) {
	fastEMA := EMA(data, fastPeriod)
	slowEMA := EMA(data, slowPeriod)
	if fastEMA == nil || slowEMA == nil {
		// Too short for the slow EMA: every position of all three is missing.
		out := make([][]float64, 3)
		for k := range out {
			out[k] = make([]float64, len(data))
			for i := range out[k] {
				out[k][i] = math.NaN()
			}
		}
		return out[0], out[1], out[2]
	}
	macdLine := make([]float64, len(data))

	// Calculate MACD Line
	for i := 0; i < len(data); i++ {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			macdLine[i] = math.NaN()
		} else {
			macdLine[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// EMA assumes a clean run of values for its initial SMA seed, so the
	// signal line is computed on the slice starting at the first valid
	// MACD value rather than fed the leading NaNs directly.
	signalLine := make([]float64, len(data))
	histogram := make([]float64, len(data))

	// Find first valid MACD index
	firstValidIdx := -1
	for i := 0; i < len(data); i++ {
		if !math.IsNaN(macdLine[i]) {
			firstValidIdx = i
			break
		}
		signalLine[i] = math.NaN()
		histogram[i] = math.NaN()
	}

	if firstValidIdx == -1 || len(data)-firstValidIdx < signalPeriod {
		// Not enough data for the signal line: it and the histogram stay
		// missing from the first valid MACD value onward.
		for i := max(firstValidIdx, 0); i < len(data); i++ {
			signalLine[i] = math.NaN()
			histogram[i] = math.NaN()
		}
		return macdLine, signalLine, histogram
	}

	// Extract valid MACD part
	validMACD := macdLine[firstValidIdx:]
	// Calculate Signal on valid part
	validSignal := EMA(validMACD, signalPeriod)

	// Map back
	for i := 0; i < len(validSignal); i++ {
		signalLine[firstValidIdx+i] = validSignal[i]
		if !math.IsNaN(validSignal[i]) {
			histogram[firstValidIdx+i] = macdLine[firstValidIdx+i] - validSignal[i]
		} else {
			histogram[firstValidIdx+i] = math.NaN()
		}
	}

	return macdLine, signalLine, histogram
}

// TrueRange calculates the true range of each bar: the greatest of
// high-low, |high-prevClose|, and |low-prevClose|. The first bar has no
// previous close, so TrueRange[0] is simply high[0]-low[0].
func TrueRange(high, low, close []float64) []float64 {
	tr := make([]float64, len(high))
	for i := range high {
		if i == 0 {
			tr[i] = high[i] - low[i]
			continue
		}
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// ATR calculates the Average True Range using Wilder smoothing: the first
// value is a plain average of the first `period` true ranges, and every
// subsequent value blends in the new true range at weight 1/period.
func ATR(high, low, close []float64, period int) []float64 {
	if len(high) < period || period <= 0 {
		return nil
	}
	tr := TrueRange(high, low, close)
	atr := make([]float64, len(tr))

	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
		atr[i] = math.NaN()
	}
	atr[period-1] = sum / float64(period)

	for i := period; i < len(tr); i++ {
		atr[i] = (atr[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return atr
}
