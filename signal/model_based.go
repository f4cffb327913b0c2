package signal

import (
	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/features"
	"github.com/wyndhurst/edgelab/model"
	"github.com/wyndhurst/edgelab/models"
)

// ModelBased is the model-based generator variant (spec.md §4.3): a fitted
// classifier's positive-class probability is thresholded with hysteresis,
// entry at the higher threshold and exit at the lower one, so a probability
// oscillating between the two thresholds does not flip a position back and
// forth every bar.
type ModelBased struct {
	builder    *features.Builder
	classifier *model.LogisticRegression
	// EntryThreshold and ExitThreshold are the hysteresis bounds;
	// ExitThreshold must be strictly less than EntryThreshold.
	EntryThreshold float64
	ExitThreshold  float64
}

// NewModelBased validates the hysteresis bounds and returns a generator
// bound to a feature builder and a classifier. The classifier may be unfit
// at construction time; GenerateSignals then fails clearly (spec.md §4.3:
// "unfit classifier -> error on first call").
func NewModelBased(builder *features.Builder, classifier *model.LogisticRegression, entryThreshold, exitThreshold float64) (*ModelBased, error) {
	if exitThreshold >= entryThreshold {
		return nil, edgeerr.Contract("signal.ModelBased", "ExitThreshold", exitThreshold, "ExitThreshold must be less than EntryThreshold")
	}
	return &ModelBased{builder: builder, classifier: classifier, EntryThreshold: entryThreshold, ExitThreshold: exitThreshold}, nil
}

// Name implements Generator.
func (g *ModelBased) Name() string { return "model_based" }

// Params implements Generator.
func (g *ModelBased) Params() map[string]float64 {
	return map[string]float64{"entry_threshold": g.EntryThreshold, "exit_threshold": g.ExitThreshold}
}

// GenerateSignals implements Generator. A bar whose probability is
// undefined (a missing feature, or insufficient warmup) produces no signal
// rather than an error; only an unfit classifier is a hard failure.
func (g *ModelBased) GenerateSignals(prices models.Series) (models.SignalFrame, error) {
	if !g.classifier.Fitted() {
		return models.SignalFrame{}, edgeerr.Contract("signal.ModelBased", "classifier", nil, "classifier is not fitted")
	}
	featureTable, _, err := g.builder.Build(prices)
	if err != nil {
		return models.SignalFrame{}, err
	}

	n := featureTable.Len()
	entries := make([]bool, n)
	exits := make([]bool, n)
	for i := 0; i < n; i++ {
		p, ok := g.classifier.PredictProba(featureTable.Row(i))
		if !ok {
			continue
		}
		entries[i] = p > g.EntryThreshold
		exits[i] = p < g.ExitThreshold
	}
	return models.NewSignalFrame(featureTable.Index, entries, exits)
}
