// Package backtest implements the event-driven simulator that converts an
// OHLCV price series plus a signal frame into a trade ledger, an equity
// curve, and a metrics bundle (spec.md §4.4). This is the central contract
// of the module: the execution-delay anti-lookahead invariant, the cost
// model, and the pessimistic same-bar SL/TP tie-break all live here.
package backtest

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wyndhurst/edgelab/edgeerr"
)

var validate = validator.New()

// Costs holds the fractional commission and slippage rates applied on both
// sides of a fill. Fractions, not basis points — 0.001 is ten basis points.
// A common user error is to pass a whole-number percentage (1.0 meaning
// 100%), so both rates are bounded at a sane ceiling.
type Costs struct {
	CommissionRate float64 `validate:"gte=0,lte=0.2"`
	SlippageRate   float64 `validate:"gte=0,lte=0.2"`
}

// ExecutionDelay is the number of bars between a signal observation and the
// order fill. Only 0 and 1 are meaningful (spec.md §4.4).
type ExecutionDelay int

const (
	// DelayNone fills at the current bar's open. Only sound when the caller
	// has already lagged features one additional bar to preserve causality
	// (spec.md §4.4); combining it with SL/TP is rejected at construction
	// per the Open Questions (spec.md §9) rather than left to silently
	// produce unspecified behaviour.
	DelayNone ExecutionDelay = 0
	// DelayOneBar fills at the open of the bar following the signal. This
	// is the default and the single most important anti-lookahead
	// invariant of the engine.
	DelayOneBar ExecutionDelay = 1
)

// Config holds every recognised backtest option (spec.md §6).
type Config struct {
	InitialCapital float64 `validate:"required,gt=0"`
	Costs          Costs
	ExecutionDelay ExecutionDelay
	SizeFraction   float64 `validate:"required,gt=0,lte=1"`
	// SLPct and TPPct are nil when not requested. A configured value must
	// be >= 0; 0 is permitted (the level then sits at the entry price).
	// Validate rejects any SL/TP, whatever its value, combined with
	// DelayNone.
	SLPct *float64
	TPPct *float64
	// PeriodsPerYear overrides frequency inference (spec.md §4.4): nil
	// means infer from the price index.
	PeriodsPerYear *float64
	// Logger receives diagnostic-only messages (degraded metrics). The zero
	// value falls back to zerolog.Nop().
	Logger zerolog.Logger
}

// DefaultConfig returns a reasonable, commonly-used configuration: full
// capital at risk per trade, next-open execution, zero costs, no SL/TP.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 10_000,
		SizeFraction:   1.0,
		ExecutionDelay: DelayOneBar,
	}
}

// Validate aggregates every configuration violation instead of stopping at
// the first (this module's config-validation idiom; see features.Config).
func (c Config) Validate() error {
	agg := &edgeerr.Aggregate{Component: "backtest.Config"}
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				agg.Add(edgeerr.Contract("backtest.Config", fe.Field(), fe.Value(), "failed validation: "+fe.Tag()))
			}
		} else {
			agg.Add(edgeerr.Contract("backtest.Config", "", nil, err.Error()))
		}
	}
	if c.ExecutionDelay != DelayNone && c.ExecutionDelay != DelayOneBar {
		agg.Add(edgeerr.Contract("backtest.Config", "ExecutionDelay", c.ExecutionDelay, "execution delay must be 0 or 1"))
	}
	if c.SLPct != nil && *c.SLPct < 0 {
		agg.Add(edgeerr.Contract("backtest.Config", "SLPct", *c.SLPct, "stop-loss percent must be non-negative"))
	}
	if c.TPPct != nil && *c.TPPct < 0 {
		agg.Add(edgeerr.Contract("backtest.Config", "TPPct", *c.TPPct, "take-profit percent must be non-negative"))
	}
	// Open Question (spec.md §9): whether execution_delay=0 combined with
	// intrabar stops is meaningful is unspecified in the source. A faithful
	// rewrite rejects the combination at construction rather than guessing.
	if c.ExecutionDelay == DelayNone && (c.SLPct != nil || c.TPPct != nil) {
		agg.Add(edgeerr.Contract("backtest.Config", "ExecutionDelay", c.ExecutionDelay, "execution_delay=0 combined with SL/TP is not a supported combination; intrabar stop semantics under zero-delay fills are unspecified"))
	}
	if c.PeriodsPerYear != nil && *c.PeriodsPerYear <= 0 {
		agg.Add(edgeerr.Contract("backtest.Config", "PeriodsPerYear", *c.PeriodsPerYear, "periods-per-year override must be positive"))
	}
	return agg.ErrOrNil()
}

func (c Config) logger() zerolog.Logger {
	return c.Logger
}
