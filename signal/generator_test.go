package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyndhurst/edgelab/models"
)

func ts(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// mkSeries builds a strictly increasing daily series from closes, with
// open/high/low all pinned to close so OHLC validation never trips up a
// test that only cares about close-driven indicators.
func mkSeries(closes []float64) models.Series {
	n := len(closes)
	idx := make([]time.Time, n)
	bars := make([]models.OHLCV, n)
	for i := 0; i < n; i++ {
		idx[i] = ts(i)
		bars[i] = models.OHLCV{Timestamp: idx[i], Open: closes[i], High: closes[i], Low: closes[i], Close: closes[i], Volume: 100}
	}
	return models.Series{Index: idx, Bars: bars}
}

func TestRegistry_RegisterGetList(t *testing.T) {
	r := NewRegistry()
	ma, err := NewMACross(2, 5, false)
	require.NoError(t, err)

	require.NoError(t, r.Register(ma))

	got, ok := r.Get("ma_cross")
	assert.True(t, ok)
	assert.Same(t, ma, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"ma_cross"}, r.List())
}

func TestRegistry_DuplicateRegistration_Error(t *testing.T) {
	r := NewRegistry()
	ma, err := NewMACross(2, 5, false)
	require.NoError(t, err)
	require.NoError(t, r.Register(ma))

	dup, err := NewMACross(3, 8, false)
	require.NoError(t, err)
	assert.Error(t, r.Register(dup))
}

// TestGenerator_SignalFrameNeverEntersAndExitsSameBar checks every concrete
// generator satisfies the mutual-exclusion guarantee NewSignalFrame enforces
// (exit is cleared wherever entry also fires on the same bar).
func TestGenerator_SignalFrameNeverEntersAndExitsSameBar(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + oscillate(i)
	}
	series := mkSeries(closes)

	generators := []Generator{
		mustMACross(t, 3, 10, false),
		mustRSIThreshold(t, 14, 30, 70),
		mustBBReversion(t, 10, 2.0),
		mustMACDCross(t, 5, 13, 4),
	}
	for _, g := range generators {
		frame, err := g.GenerateSignals(series)
		require.NoError(t, err)
		for i := range frame.Index {
			if frame.Entries[i] {
				assert.False(t, frame.Exits[i], "%s: bar %d entered and exited simultaneously", g.Name(), i)
			}
		}
	}
}

func mustMACross(t *testing.T, fast, slow int, useEMA bool) *MACross {
	t.Helper()
	g, err := NewMACross(fast, slow, useEMA)
	require.NoError(t, err)
	return g
}

func mustRSIThreshold(t *testing.T, period int, oversold, overbought float64) *RSIThreshold {
	t.Helper()
	g, err := NewRSIThreshold(period, oversold, overbought)
	require.NoError(t, err)
	return g
}

func mustBBReversion(t *testing.T, period int, stdDevMultiplier float64) *BBReversion {
	t.Helper()
	g, err := NewBBReversion(period, stdDevMultiplier)
	require.NoError(t, err)
	return g
}

func mustMACDCross(t *testing.T, fast, slow, signal int) *MACDCross {
	t.Helper()
	g, err := NewMACDCross(fast, slow, signal)
	require.NoError(t, err)
	return g
}

// oscillate is a cheap deterministic wave, enough to give every indicator
// here some crossovers to detect without reaching for math/rand.
func oscillate(i int) float64 {
	phase := i % 20
	if phase < 10 {
		return float64(phase)
	}
	return float64(20 - phase)
}
