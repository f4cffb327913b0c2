// Package model provides the trained-classifier artefact the model-based
// signal generator owns (spec.md §9, "trained-model ownership"). Training
// is an offline step; the fitted LogisticRegression is an immutable
// artefact the signal generator never retrains on the fly.
package model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wyndhurst/edgelab/edgeerr"
)

// FitConfig controls the gradient-descent fit.
type FitConfig struct {
	LearningRate float64
	L2           float64
	Epochs       int
}

// DefaultFitConfig returns reasonable defaults for a small feature set.
func DefaultFitConfig() FitConfig {
	return FitConfig{LearningRate: 0.1, L2: 1e-3, Epochs: 500}
}

// LogisticRegression is a binary classifier over a fixed, named feature
// vector. PredictProba returns the positive-class probability via the
// logistic link function.
type LogisticRegression struct {
	featureNames []string
	weights      *mat.VecDense // length len(featureNames)+1, weights[0] is the intercept
	fitted       bool
}

// NewLogisticRegression returns an unfit classifier bound to the given
// feature names. PredictProba on an unfit classifier reports (0, false);
// signal.ModelBased turns an unfit classifier into an error on its first
// GenerateSignals call.
func NewLogisticRegression(featureNames []string) *LogisticRegression {
	return &LogisticRegression{featureNames: append([]string(nil), featureNames...)}
}

// Fit trains the classifier by batch gradient descent on the negative
// log-likelihood with L2 regularisation. X is a slice of rows, each row
// holding one value per feature name in the order passed to
// NewLogisticRegression; y holds the corresponding 0/1 labels.
func (m *LogisticRegression) Fit(X [][]float64, y []float64, cfg FitConfig) error {
	if len(X) == 0 || len(X) != len(y) {
		return edgeerr.Contract("model.LogisticRegression", "X/y", len(X), "training data must be non-empty with matching X/y length")
	}
	p := len(m.featureNames)
	for _, row := range X {
		if len(row) != p {
			return edgeerr.Contract("model.LogisticRegression", "X[i]", len(row), "row width does not match feature count")
		}
	}
	if cfg.Epochs <= 0 {
		cfg = DefaultFitConfig()
	}

	n := len(X)
	design := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, y)
	weights := mat.NewVecDense(p+1, nil)

	pred := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(p+1, nil)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		pred.MulVec(design, weights)
		for i := 0; i < n; i++ {
			pred.SetVec(i, sigmoid(pred.AtVec(i)))
		}
		residual := mat.NewVecDense(n, nil)
		residual.SubVec(pred, target)

		grad.MulVec(design.T(), residual)
		for j := 0; j <= p; j++ {
			reg := cfg.L2 * weights.AtVec(j)
			if j == 0 {
				reg = 0 // no regularisation on the intercept
			}
			update := cfg.LearningRate * (grad.AtVec(j)/float64(n) + reg)
			weights.SetVec(j, weights.AtVec(j)-update)
		}
	}

	m.weights = weights
	m.fitted = true
	return nil
}

// NewFittedLogisticRegression constructs a classifier directly from
// pretrained coefficients, the shape an outer persistence layer uses to
// load a previously fit model rather than retraining it in-process
// (spec.md §9: training is an offline step producing an immutable
// artefact this package only ever owns, never regenerates). weights must
// hold exactly len(featureNames)+1 values, ordered intercept first.
func NewFittedLogisticRegression(featureNames []string, weights []float64) (*LogisticRegression, error) {
	if len(weights) != len(featureNames)+1 {
		return nil, edgeerr.Contract("model.LogisticRegression", "weights", len(weights), "weights must hold one intercept plus one coefficient per feature name")
	}
	return &LogisticRegression{
		featureNames: append([]string(nil), featureNames...),
		weights:      mat.NewVecDense(len(weights), append([]float64(nil), weights...)),
		fitted:       true,
	}, nil
}

// PredictProba returns the positive-class probability for one observation,
// keyed by feature name (the shape models.FeatureTable.Row returns). A
// required feature missing from the row, or NaN, yields (0, false) so
// callers treat the bar as "no signal" rather than a fabricated
// probability (spec.md §4.3: "probability is undefined on any bar -> no
// signal, not an error").
func (m *LogisticRegression) PredictProba(row map[string]float64) (float64, bool) {
	if !m.fitted {
		return 0, false
	}
	z := m.weights.AtVec(0)
	for j, name := range m.featureNames {
		v, ok := row[name]
		if !ok || math.IsNaN(v) {
			return 0, false
		}
		z += m.weights.AtVec(j+1) * v
	}
	return sigmoid(z), true
}

// Fitted reports whether the classifier holds trained weights, either from
// a successful Fit or from NewFittedLogisticRegression.
func (m *LogisticRegression) Fitted() bool { return m.fitted }

// FeatureNames returns the ordered feature names this classifier expects.
func (m *LogisticRegression) FeatureNames() []string { return append([]string(nil), m.featureNames...) }

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
