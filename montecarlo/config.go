// Package montecarlo estimates the distribution of outcomes a return stream
// could plausibly produce under reordering (spec.md §4.5.2): repeated
// permutation-without-replacement resampling yields confidence bands and
// tail-risk metrics without assuming any particular return distribution.
// Grounded on the same orchestration conventions as walkforward (seeded,
// parallel-safe, context-cancellable), drawn from the
// benedict-anokye-davies-atlas-ai orchestrator's montecarlo/optimization
// package naming.
package montecarlo

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wyndhurst/edgelab/edgeerr"
)

var validate = validator.New()

const minObservations = 10

// Config holds every recognised Monte-Carlo option (spec.md §6).
type Config struct {
	NSimulations int `validate:"required,gt=0"`
	// Seed derives every path's RNG stream; identical seed and inputs
	// always produce bit-identical output (spec.md §4.5.2).
	Seed int64
	// Logger is accepted for diagnostic-only logging; Simulator.Run itself
	// writes no log messages.
	Logger zerolog.Logger
}

// DefaultConfig returns the commonly-used 1000-path configuration.
func DefaultConfig() Config {
	return Config{NSimulations: 1000}
}

// Validate aggregates every configuration violation instead of stopping at
// the first.
func (c Config) Validate() error {
	agg := &edgeerr.Aggregate{Component: "montecarlo.Config"}
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				agg.Add(edgeerr.Contract("montecarlo.Config", fe.Field(), fe.Value(), "failed validation: "+fe.Tag()))
			}
		} else {
			agg.Add(edgeerr.Contract("montecarlo.Config", "", nil, err.Error()))
		}
	}
	return agg.ErrOrNil()
}
