package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyndhurst/edgelab/models"
)

func seriesOfLen(n int, seed float64) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := make([]time.Time, n)
	bars := make([]models.OHLCV, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += math.Sin(float64(i)*0.1+seed) + 0.05
		ts := start.AddDate(0, 0, i)
		idx[i] = ts
		bars[i] = models.OHLCV{
			Timestamp: ts,
			Open:      price - 0.2,
			High:      price + 0.5,
			Low:       price - 0.5,
			Close:     price,
			Volume:    1000 + float64(i%10)*10,
		}
	}
	return models.Series{Index: idx, Bars: bars}
}

func testConfig() Config {
	c := DefaultConfig()
	return c
}

// TestBuilder_NoLookahead verifies the causality property of spec.md §8:
// truncating the series must not change any previously-computed feature
// value.
func TestBuilder_NoLookahead(t *testing.T) {
	full := seriesOfLen(200, 0)
	truncated := models.Series{Index: full.Index[:150], Bars: full.Bars[:150]}

	b, err := NewBuilder(testConfig())
	require.NoError(t, err)

	fullFeatures, _, err := b.Build(full)
	require.NoError(t, err)
	truncFeatures, _, err := b.Build(truncated)
	require.NoError(t, err)

	for _, name := range fullFeatures.Names {
		for i := 0; i < 149; i++ {
			a := fullFeatures.Columns[name][i]
			bb := truncFeatures.Columns[name][i]
			if math.IsNaN(a) || math.IsNaN(bb) {
				assert.True(t, math.IsNaN(a) && math.IsNaN(bb), "column %s index %d: one NaN one not", name, i)
				continue
			}
			assert.InDelta(t, a, bb, 1e-9, "column %s index %d diverged after truncation", name, i)
		}
	}
}

// TestBuilder_EmptyPrices verifies the empty-series failure condition.
func TestBuilder_EmptyPrices(t *testing.T) {
	b, err := NewBuilder(testConfig())
	require.NoError(t, err)
	_, _, err = b.Build(models.Series{})
	require.Error(t, err)
}

// TestBuilder_HorizonExceedsLength verifies an empty dataset (not an error)
// when the horizon is at least as long as the series.
func TestBuilder_HorizonExceedsLength(t *testing.T) {
	cfg := testConfig()
	cfg.Horizon = 50
	b, err := NewBuilder(cfg)
	require.NoError(t, err)

	s := seriesOfLen(10, 0)
	ft, target, err := b.Build(s)
	require.NoError(t, err)
	assert.Equal(t, 0, len(ft.Columns))
	for _, v := range target.Values {
		assert.True(t, math.IsNaN(v))
	}
}

// TestBuilder_TargetTrailingRowsUndefined verifies the last `horizon` rows
// of the target are NaN.
func TestBuilder_TargetTrailingRowsUndefined(t *testing.T) {
	cfg := testConfig()
	cfg.Horizon = 5
	b, err := NewBuilder(cfg)
	require.NoError(t, err)

	s := seriesOfLen(100, 0)
	_, target, err := b.Build(s)
	require.NoError(t, err)

	for i := 95; i < 100; i++ {
		assert.True(t, math.IsNaN(target.Values[i]), "row %d should be undefined", i)
	}
	assert.False(t, math.IsNaN(target.Values[94]))
}

// TestBuilder_FirstRowMissing verifies feature[t] never equals a
// lookahead-corrupted value by checking the lag-by-one shift directly: row
// 0 of every column must be NaN (no bar before the first bar exists).
func TestBuilder_FirstRowMissing(t *testing.T) {
	b, err := NewBuilder(testConfig())
	require.NoError(t, err)
	s := seriesOfLen(100, 0)
	ft, _, err := b.Build(s)
	require.NoError(t, err)
	for _, name := range ft.Names {
		assert.True(t, math.IsNaN(ft.Columns[name][0]), "column %s row 0 should be missing", name)
	}
}

// TestBuilder_BuildTrainingSet verifies rows with any missing feature or
// undefined target are dropped together.
func TestBuilder_BuildTrainingSet(t *testing.T) {
	b, err := NewBuilder(testConfig())
	require.NoError(t, err)
	s := seriesOfLen(100, 0)
	ft, target, err := b.BuildTrainingSet(s)
	require.NoError(t, err)
	require.Equal(t, ft.Len(), target.Len())
	for i := 0; i < ft.Len(); i++ {
		assert.False(t, ft.RowHasMissing(i))
		assert.False(t, math.IsNaN(target.Values[i]))
	}
}

// TestBuilder_ZeroVolumeSeries_DropsNoColumn verifies a series carrying no
// volume data never gets a volume_ratio column: were the column always
// present but only ever populated under hasVolume, every row would carry a
// permanently-missing feature and BuildTrainingSet would drop the entire
// dataset.
func TestBuilder_ZeroVolumeSeries_DropsNoColumn(t *testing.T) {
	b, err := NewBuilder(testConfig())
	require.NoError(t, err)

	s := seriesOfLen(100, 0)
	for i := range s.Bars {
		s.Bars[i].Volume = 0
	}

	ft, _, err := b.Build(s)
	require.NoError(t, err)
	assert.NotContains(t, ft.Names, "volume_ratio")

	trainFeatures, trainTarget, err := b.BuildTrainingSet(s)
	require.NoError(t, err)
	assert.NotEmpty(t, trainFeatures.Index)
	assert.NotEmpty(t, trainTarget.Values)
}

// TestConfig_Validate_FastSlowOrder verifies the cross-field constraint.
func TestConfig_Validate_FastSlowOrder(t *testing.T) {
	cfg := testConfig()
	cfg.FastPeriod, cfg.SlowPeriod = 30, 10
	err := cfg.Validate()
	require.Error(t, err)
}
