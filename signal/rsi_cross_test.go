package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRSIThreshold_Validation(t *testing.T) {
	tests := []struct {
		name                 string
		period               int
		oversold, overbought float64
		wantErr              bool
		errContains          string
	}{
		{name: "valid", period: 14, oversold: 30, overbought: 70},
		{name: "period too small", period: 1, oversold: 30, overbought: 70, wantErr: true, errContains: "greater than 1"},
		{name: "oversold >= overbought", period: 14, oversold: 70, overbought: 30, wantErr: true, errContains: "must be less than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewRSIThreshold(tt.period, tt.oversold, tt.overbought)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.period, g.Period)
			assert.Equal(t, tt.oversold, g.Oversold)
			assert.Equal(t, tt.overbought, g.Overbought)
		})
	}
}

func TestRSIThreshold_Params(t *testing.T) {
	g, err := NewRSIThreshold(14, 30, 70)
	require.NoError(t, err)
	params := g.Params()
	assert.Equal(t, 14.0, params["period"])
	assert.Equal(t, 30.0, params["oversold"])
	assert.Equal(t, 70.0, params["overbought"])
}

// TestRSIThreshold_EntryOnCrossUpThroughOversold builds a decline deep
// enough to push RSI under the oversold level, followed by a sharp rally
// that crosses it back up through that level — the documented entry
// condition.
func TestRSIThreshold_EntryOnCrossUpThroughOversold(t *testing.T) {
	g, err := NewRSIThreshold(2, 30, 70)
	require.NoError(t, err)

	closes := []float64{15, 14, 13, 12, 11, 10, 9, 8, 7, 13}
	series := mkSeries(closes)

	frame, err := g.GenerateSignals(series)
	require.NoError(t, err)

	var sawEntry bool
	for _, entered := range frame.Entries {
		if entered {
			sawEntry = true
			break
		}
	}
	assert.True(t, sawEntry, "expected an entry when RSI crosses back up through the oversold level")
}

// TestRSIThreshold_ExitOnCrossDownThroughOverbought mirrors the entry case:
// a sustained rally pushes RSI above the overbought level, then a sharp
// drop crosses it back down through that level.
func TestRSIThreshold_ExitOnCrossDownThroughOverbought(t *testing.T) {
	g, err := NewRSIThreshold(2, 30, 70)
	require.NoError(t, err)

	closes := []float64{7, 8, 9, 10, 11, 12, 13, 14, 15, 9}
	series := mkSeries(closes)

	frame, err := g.GenerateSignals(series)
	require.NoError(t, err)

	var sawExit bool
	for _, exited := range frame.Exits {
		if exited {
			sawExit = true
			break
		}
	}
	assert.True(t, sawExit, "expected an exit when RSI crosses back down through the overbought level")
}

func TestRSIThreshold_FlatSeries_NoSignal(t *testing.T) {
	g, err := NewRSIThreshold(2, 30, 70)
	require.NoError(t, err)

	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100
	}
	series := mkSeries(closes)

	frame, err := g.GenerateSignals(series)
	require.NoError(t, err)
	for i := range frame.Index {
		assert.False(t, frame.Entries[i])
		assert.False(t, frame.Exits[i])
	}
}
