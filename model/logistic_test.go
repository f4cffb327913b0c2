package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogisticRegression_Unfit verifies the "unfit classifier -> error on
// first call" contract (spec.md §4.3) surfaces as (0, false), not a panic.
func TestLogisticRegression_Unfit(t *testing.T) {
	m := NewLogisticRegression([]string{"x"})
	_, ok := m.PredictProba(map[string]float64{"x": 1})
	assert.False(t, ok)
}

// TestLogisticRegression_SeparableData verifies the classifier learns a
// clearly separable relationship: x>0 -> label 1, x<0 -> label 0.
func TestLogisticRegression_SeparableData(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var X [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		x := rng.NormFloat64()
		X = append(X, []float64{x})
		if x > 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	m := NewLogisticRegression([]string{"x"})
	require.NoError(t, m.Fit(X, y, DefaultFitConfig()))

	pHigh, ok := m.PredictProba(map[string]float64{"x": 3})
	require.True(t, ok)
	assert.Greater(t, pHigh, 0.7)

	pLow, ok := m.PredictProba(map[string]float64{"x": -3})
	require.True(t, ok)
	assert.Less(t, pLow, 0.3)
}

// TestLogisticRegression_MissingFeature verifies that a missing feature
// produces "no signal" rather than an error or a panic.
func TestLogisticRegression_MissingFeature(t *testing.T) {
	m := NewLogisticRegression([]string{"a", "b"})
	require.NoError(t, m.Fit([][]float64{{0, 0}, {1, 1}}, []float64{0, 1}, DefaultFitConfig()))
	_, ok := m.PredictProba(map[string]float64{"a": 1})
	assert.False(t, ok)
}

// TestNewFittedLogisticRegression_WeightCountMismatch verifies the
// constructor rejects a weight vector that doesn't hold exactly one
// intercept plus one coefficient per feature name.
func TestNewFittedLogisticRegression_WeightCountMismatch(t *testing.T) {
	_, err := NewFittedLogisticRegression([]string{"a", "b"}, []float64{0, 1})
	assert.Error(t, err)
}

// TestNewFittedLogisticRegression_PredictsFromPretrainedWeights verifies a
// classifier built directly from known coefficients (the shape a loader
// would use to restore a previously fit model) predicts exactly via the
// logistic link, with no Fit call involved.
func TestNewFittedLogisticRegression_PredictsFromPretrainedWeights(t *testing.T) {
	m, err := NewFittedLogisticRegression([]string{"x"}, []float64{0, 1})
	require.NoError(t, err)
	require.True(t, m.Fitted())

	p, ok := m.PredictProba(map[string]float64{"x": 0})
	require.True(t, ok)
	assert.InDelta(t, 0.5, p, 1e-9)
}
