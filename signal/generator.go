// Package signal provides polymorphic signal generators: given an OHLCV
// price series, each variant emits an aligned entry/exit boolean frame.
// Two kinds are required (spec.md §4.3): rule-based moving-average cross
// and model-based classifier-probability thresholding with hysteresis.
// Implemented as a small interface + tagged variants rather than an
// inheritance chain (spec.md §9).
package signal

import (
	"fmt"

	"github.com/wyndhurst/edgelab/models"
)

// Generator is the capability set every signal variant satisfies.
type Generator interface {
	// Name returns the generator's unique identifier.
	Name() string
	// Params returns the generator's configuration as key-value pairs, for
	// logging and walk-forward parameter tracking.
	Params() map[string]float64
	// GenerateSignals computes the aligned entry/exit frame for prices.
	// Pre-warmup bars (before enough history exists) emit no signal.
	GenerateSignals(prices models.Series) (models.SignalFrame, error)
}

// Registry manages available generator instances, the way the teacher's
// strategies.Registry manages Strategy instances.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new, empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds a generator to the registry.
func (r *Registry) Register(g Generator) error {
	name := g.Name()
	if _, exists := r.generators[name]; exists {
		return fmt.Errorf("signal generator already registered: %s", name)
	}
	r.generators[name] = g
	return nil
}

// Get retrieves a generator by name.
func (r *Registry) Get(name string) (Generator, bool) {
	g, exists := r.generators[name]
	return g, exists
}

// List returns all registered generator names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	return names
}
