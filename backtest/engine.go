package backtest

import (
	"time"

	"github.com/google/uuid"

	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/models"
)

type positionState int

const (
	flat positionState = iota
	long
)

// Engine runs event-driven backtests. It holds no mutable state between
// invocations — Run is a pure function of its arguments, so one Engine
// value can be shared (read-only) across concurrent walk-forward trials.
type Engine struct{}

// NewEngine creates a backtest engine.
func NewEngine() *Engine { return &Engine{} }

// Run simulates prices+signals into trades, an equity curve, and a metrics
// bundle (spec.md §4.4). Price and signal indices are intersected before
// simulation; fewer than two common bars is a contract violation.
func (e *Engine) Run(prices models.Series, signals models.SignalFrame, cfg Config) (*models.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := prices.Validate("backtest"); err != nil {
		return nil, err
	}
	if signals.Len() == 0 {
		return nil, edgeerr.Contract("backtest", "signals", signals.Len(), "signal frame is empty")
	}
	if len(signals.Entries) != signals.Len() || len(signals.Exits) != signals.Len() {
		return nil, edgeerr.Contract("backtest", "signals", signals.Len(), "signal frame columns misaligned with its index")
	}
	if (cfg.SLPct != nil || cfg.TPPct != nil) && (len(prices.Highs()) == 0 || len(prices.Lows()) == 0) {
		return nil, edgeerr.Contract("backtest", "prices", nil, "SL/TP requested but price series carries no high/low columns")
	}

	series, frame := intersectByIndex(prices, signals)
	if series.Len() < 2 {
		return nil, edgeerr.Contract("backtest", "prices∩signals", series.Len(), "fewer than two bars remain after intersecting price and signal indices")
	}

	shifted := frame.Shift(int(cfg.ExecutionDelay))

	trades, equity := e.simulate(series, shifted, cfg)

	stats := e.extractStats(series, equity, trades, cfg)

	return &models.BacktestResult{
		ID:     uuid.NewString(),
		Trades: trades,
		Equity: equity,
		Stats:  stats,
	}, nil
}

// extractStats wraps metric computation so an unexpected panic degrades to
// a zero-filled stats bundle instead of crashing the caller (spec.md §7,
// "implementation errors... logged with stack context and surfaced as a
// degraded-but-valid result").
func (e *Engine) extractStats(series models.Series, equity models.EquitySeries, trades []models.TradeRecord, cfg Config) (stats models.Stats) {
	logger := cfg.logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Interface("panic", r).Msg("backtest: metric extraction failed, returning degraded stats")
			stats = models.Stats{NumTrades: len(trades)}
		}
	}()
	return computeStats(series, equity, trades, cfg)
}

// simulate runs the flat/long state machine over the aligned series.
// Per-bar ordering (spec.md §4.4): while long and past the entry bar, SL/TP
// intrabar checks run first with a pessimistic same-bar tie-break (stop
// loss wins); only if neither triggers does a pending signal exit fire, at
// this bar's open. While flat, a pending signal entry fires at this bar's
// open — except on the final bar, where there is no subsequent bar left to
// hold into; opening and immediately end-of-data-closing a position on the
// same bar would produce a trade with entry_time == exit_time, violating
// the strict entry_time < exit_time invariant (spec.md §3). Equity is
// marked to market at every bar regardless of action.
func (e *Engine) simulate(series models.Series, shifted models.SignalFrame, cfg Config) ([]models.TradeRecord, models.EquitySeries) {
	n := series.Len()
	opens := series.Opens()
	highs := series.Highs()
	lows := series.Lows()
	closes := series.Closes()

	cash := cfg.InitialCapital
	var units, entryPrice float64
	var entryTime time.Time
	entryBar := -1
	state := flat

	trades := make([]models.TradeRecord, 0)
	equityVals := make([]float64, n)

	buyFill := func(open float64) float64 {
		return open*(1+cfg.Costs.SlippageRate) + open*cfg.Costs.CommissionRate
	}
	sellFill := func(open float64) float64 {
		return open*(1-cfg.Costs.SlippageRate) - open*cfg.Costs.CommissionRate
	}
	closeTrade := func(i int, exitPrice float64, reason models.ExitReason) {
		proceeds := units * exitPrice
		pnl := proceeds - units*entryPrice
		cash += proceeds
		trades = append(trades, models.TradeRecord{
			EntryTime:  entryTime,
			ExitTime:   series.Index[i],
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			Size:       units,
			PnL:        pnl,
			ReturnPct:  exitPrice/entryPrice - 1,
			ExitReason: reason,
		})
		units = 0
		state = flat
		entryBar = -1
	}

	for i := 0; i < n; i++ {
		switch {
		case state == long && i > entryBar:
			if !e.checkStops(i, entryPrice, highs, lows, opens, cfg, closeTrade) && shifted.Exits[i] {
				closeTrade(i, sellFill(opens[i]), models.ExitSignal)
			}
		case state == flat && shifted.Entries[i] && i < n-1:
			notional := cfg.SizeFraction * cash
			fill := buyFill(opens[i])
			if fill > 0 {
				units = notional / fill
				cash -= notional
				entryPrice = fill
				entryTime = series.Index[i]
				entryBar = i
				state = long
			}
		}

		if state == long {
			equityVals[i] = cash + units*closes[i]
		} else {
			equityVals[i] = cash
		}
	}

	if state == long {
		last := n - 1
		closeTrade(last, closes[last], models.ExitEndOfData)
	}

	return trades, models.EquitySeries{Index: append([]time.Time(nil), series.Index...), Values: equityVals}
}

// checkStops applies the intrabar SL/TP check for bar i and reports whether
// a stop fired. Stop-loss is checked before take-profit, so a bar touching
// both levels exits via stop-loss — the pessimistic tie-break mandated by
// spec.md §4.4 (the intrabar path is unknown, so the worst case is
// assumed). A gap that has already carried the open past the stop level
// fills at the open, since the level itself was never traded through.
func (e *Engine) checkStops(i int, entryPrice float64, highs, lows, opens []float64, cfg Config, closeTrade func(int, float64, models.ExitReason)) bool {
	if cfg.SLPct != nil {
		stopLevel := entryPrice * (1 - *cfg.SLPct)
		if lows[i] <= stopLevel {
			fill := stopLevel
			if opens[i] < stopLevel {
				fill = opens[i]
			}
			closeTrade(i, fill, models.ExitStopLoss)
			return true
		}
	}
	if cfg.TPPct != nil {
		tpLevel := entryPrice * (1 + *cfg.TPPct)
		if highs[i] >= tpLevel {
			fill := tpLevel
			if opens[i] > tpLevel {
				fill = opens[i]
			}
			closeTrade(i, fill, models.ExitTakeProfit)
			return true
		}
	}
	return false
}

// intersectByIndex aligns prices and signals on their common timestamps.
// Both are assumed sorted ascending (Series.Validate and the signal
// generators' contracts both guarantee this), so a two-pointer merge
// suffices without an O(n log n) sort.
func intersectByIndex(prices models.Series, signals models.SignalFrame) (models.Series, models.SignalFrame) {
	var idx []time.Time
	var bars []models.OHLCV
	var entries, exits []bool

	pi, si := 0, 0
	for pi < len(prices.Index) && si < len(signals.Index) {
		pt, st := prices.Index[pi], signals.Index[si]
		switch {
		case pt.Equal(st):
			idx = append(idx, pt)
			bars = append(bars, prices.Bars[pi])
			entries = append(entries, signals.Entries[si])
			exits = append(exits, signals.Exits[si])
			pi++
			si++
		case pt.Before(st):
			pi++
		default:
			si++
		}
	}
	return models.Series{Index: idx, Bars: bars}, models.SignalFrame{Index: idx, Entries: entries, Exits: exits}
}
