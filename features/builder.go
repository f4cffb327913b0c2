// Package features assembles the feature table and the classification
// target used by the model-based signal generator, enforcing the
// no-lookahead invariant required by spec.md §4.2: every feature is
// computed on the unshifted (natural-time) price series and the entire
// table is lagged by exactly one bar as the final step. Lagging the inputs
// before computing a stateful rolling indicator (Wilder's RSI, EMA) is not
// equivalent to lagging the output once, so Builder never does that.
package features

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/indicators"
	"github.com/wyndhurst/edgelab/models"
)

var validate = validator.New()

// Config holds every recognised option for feature/target construction
// (spec.md §6). It carries no environment-variable reads; callers build it
// explicitly and Validate it before use.
type Config struct {
	SMAPeriods      []int   `validate:"required,dive,gt=1"`
	RSIPeriod       int     `validate:"required,gt=1"`
	ATRPeriod       int     `validate:"required,gt=1"`
	LookbackPeriods []int   `validate:"required,dive,gt=0"`
	FastPeriod      int     `validate:"required,gt=0"`
	SlowPeriod      int     `validate:"required,gt=0"`
	MACDFast        int     `validate:"required,gt=0"`
	MACDSlow        int     `validate:"required,gt=0"`
	MACDSignal      int     `validate:"required,gt=0"`
	BBPeriod        int     `validate:"required,gt=1"`
	BBStdDev        float64 `validate:"required,gt=0"`
	StdDevWindowA   int     `validate:"required,gt=1"`
	StdDevWindowB   int     `validate:"required,gt=1"`
	Horizon         int     `validate:"required,gt=0"`
	Threshold       float64
	// Logger is accepted for diagnostic-only logging; Builder itself
	// writes no log messages.
	Logger zerolog.Logger
}

// DefaultConfig returns a reasonable, commonly-used configuration.
func DefaultConfig() Config {
	return Config{
		SMAPeriods:      []int{10, 20, 50},
		RSIPeriod:       14,
		ATRPeriod:       14,
		LookbackPeriods: []int{1, 5, 10, 20},
		FastPeriod:      10,
		SlowPeriod:      30,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BBPeriod:        20,
		BBStdDev:        2.0,
		StdDevWindowA:   10,
		StdDevWindowB:   20,
		Horizon:         5,
		Threshold:       0,
	}
}

// Validate aggregates every configuration violation instead of stopping at
// the first, mirroring this module's config-validation idiom.
func (c Config) Validate() error {
	agg := &edgeerr.Aggregate{Component: "features.Config"}
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				agg.Add(edgeerr.Contract("features.Config", fe.Field(), fe.Value(), "failed validation: "+fe.Tag()))
			}
		} else {
			agg.Add(edgeerr.Contract("features.Config", "", nil, err.Error()))
		}
	}
	if c.FastPeriod >= c.SlowPeriod {
		agg.Add(edgeerr.Contract("features.Config", "FastPeriod", c.FastPeriod, "FastPeriod must be less than SlowPeriod"))
	}
	if c.MACDFast >= c.MACDSlow {
		agg.Add(edgeerr.Contract("features.Config", "MACDFast", c.MACDFast, "MACDFast must be less than MACDSlow"))
	}
	return agg.ErrOrNil()
}

// Builder constructs feature tables and target vectors from OHLCV series.
type Builder struct {
	cfg Config
}

// NewBuilder validates cfg and returns a Builder, or an error naming every
// offending field.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg}, nil
}

// featureNames lists every column this builder produces, in stable order.
// includeVolume gates the volume_ratio column on the series actually
// carrying volume data — a zero-volume series never gets the column, so a
// row is never left with a permanently-missing feature that would cause
// BuildTrainingSet to drop the entire dataset.
func (b *Builder) featureNames(includeVolume bool) []string {
	names := []string{}
	for _, p := range b.cfg.LookbackPeriods {
		names = append(names, namef("return_%d", p), namef("momentum_%d", p))
	}
	for _, p := range b.cfg.SMAPeriods {
		names = append(names, namef("sma_%d_ratio", p))
	}
	names = append(names,
		"ma_cross_spread",
		"rsi", "rsi_oversold", "rsi_overbought",
		"atr", "atr_over_price",
		namef("stddev_ret_%d", b.cfg.StdDevWindowA),
		namef("stddev_ret_%d", b.cfg.StdDevWindowB),
		"macd", "macd_signal", "macd_hist",
		"bb_position", "bb_width",
		"intrabar_range", "intrabar_close_pos",
	)
	if includeVolume {
		names = append(names, "volume_ratio")
	}
	return names
}

func namef(format string, v int) string {
	return fmt.Sprintf(format, v)
}

// Build computes the full feature table and target vector for prices,
// enforcing the no-lookahead contract. Rows with any missing feature are
// left in place (NaN); callers that need a clean supervised-learning
// dataset should call DropMissing or BuildTrainingSet.
func (b *Builder) Build(prices models.Series) (*models.FeatureTable, models.TargetVector, error) {
	if err := prices.Validate("features"); err != nil {
		return nil, models.TargetVector{}, err
	}
	n := prices.Len()
	volumes := prices.Volumes()
	if b.cfg.Horizon >= n {
		return &models.FeatureTable{Index: prices.Index, Names: b.featureNames(hasVolume(volumes)), Columns: map[string][]float64{}},
			models.TargetVector{Index: prices.Index, Values: allNaN(n)}, nil
	}

	closes := prices.Closes()
	highs := prices.Highs()
	lows := prices.Lows()

	raw := models.NewFeatureTable(prices.Index, b.featureNames(hasVolume(volumes)))

	for _, p := range b.cfg.LookbackPeriods {
		ret := raw.Columns[namef("return_%d", p)]
		mom := raw.Columns[namef("momentum_%d", p)]
		for i := p; i < n; i++ {
			if closes[i-p] != 0 {
				ret[i] = closes[i]/closes[i-p] - 1
				mom[i] = closes[i] - closes[i-p]
			}
		}
	}

	for _, p := range b.cfg.SMAPeriods {
		sma := indicators.SMA(closes, p)
		col := raw.Columns[namef("sma_%d_ratio", p)]
		for i := range col {
			if sma != nil && !math.IsNaN(sma[i]) && sma[i] != 0 {
				col[i] = closes[i]/sma[i] - 1
			}
		}
	}

	fastMA := indicators.EMA(closes, b.cfg.FastPeriod)
	slowMA := indicators.EMA(closes, b.cfg.SlowPeriod)
	crossCol := raw.Columns["ma_cross_spread"]
	for i := range crossCol {
		if fastMA != nil && slowMA != nil && !math.IsNaN(fastMA[i]) && !math.IsNaN(slowMA[i]) && slowMA[i] != 0 {
			crossCol[i] = (fastMA[i] - slowMA[i]) / slowMA[i]
		}
	}

	rsi := indicators.RSI(closes, b.cfg.RSIPeriod)
	rsiCol := raw.Columns["rsi"]
	oversold := raw.Columns["rsi_oversold"]
	overbought := raw.Columns["rsi_overbought"]
	for i := range rsiCol {
		if rsi != nil && !math.IsNaN(rsi[i]) {
			rsiCol[i] = rsi[i]
			oversold[i] = boolToFloat(rsi[i] < 30)
			overbought[i] = boolToFloat(rsi[i] > 70)
		}
	}

	atr := indicators.ATR(highs, lows, closes, b.cfg.ATRPeriod)
	atrCol := raw.Columns["atr"]
	atrOverPrice := raw.Columns["atr_over_price"]
	for i := range atrCol {
		if atr != nil && !math.IsNaN(atr[i]) {
			atrCol[i] = atr[i]
			if closes[i] != 0 {
				atrOverPrice[i] = atr[i] / closes[i]
			}
		}
	}

	returns1 := rollingReturns(closes)
	for _, w := range []int{b.cfg.StdDevWindowA, b.cfg.StdDevWindowB} {
		std := indicators.StdDev(returns1, w)
		col := raw.Columns[namef("stddev_ret_%d", w)]
		// returns1 is length n-1 (return ending at i uses i-1,i); align
		// so that col[i] holds the stddev of returns ending at bar i.
		for i := 1; i < n; i++ {
			if std != nil && i-1 < len(std) && !math.IsNaN(std[i-1]) {
				col[i] = std[i-1]
			}
		}
	}

	macdLine, macdSignal, macdHist := indicators.MACD(closes, b.cfg.MACDFast, b.cfg.MACDSlow, b.cfg.MACDSignal)
	mCol, sCol, hCol := raw.Columns["macd"], raw.Columns["macd_signal"], raw.Columns["macd_hist"]
	for i := range mCol {
		if !math.IsNaN(macdLine[i]) {
			mCol[i] = macdLine[i]
		}
		if !math.IsNaN(macdSignal[i]) {
			sCol[i] = macdSignal[i]
		}
		if !math.IsNaN(macdHist[i]) {
			hCol[i] = macdHist[i]
		}
	}

	upper, _, lower := indicators.BollingerBands(closes, b.cfg.BBPeriod, b.cfg.BBStdDev)
	bbPos, bbWidth := raw.Columns["bb_position"], raw.Columns["bb_width"]
	for i := range bbPos {
		if upper != nil && lower != nil && !math.IsNaN(upper[i]) && !math.IsNaN(lower[i]) {
			width := upper[i] - lower[i]
			if width != 0 {
				bbPos[i] = (closes[i] - lower[i]) / width
				bbWidth[i] = width / closes[i]
			}
		}
	}

	rangeCol := raw.Columns["intrabar_range"]
	closePosCol := raw.Columns["intrabar_close_pos"]
	for i := 0; i < n; i++ {
		rng := highs[i] - lows[i]
		if closes[i] != 0 {
			rangeCol[i] = rng / closes[i]
		}
		if rng != 0 {
			closePosCol[i] = (closes[i] - lows[i]) / rng
		}
	}

	if hasVolume(volumes) {
		volRatio := raw.Columns["volume_ratio"]
		volSMA := indicators.SMA(volumes, 20)
		for i := range volRatio {
			if volSMA != nil && !math.IsNaN(volSMA[i]) && volSMA[i] != 0 {
				volRatio[i] = volumes[i] / volSMA[i]
			}
		}
	}

	raw.ReplaceInfWithMissing()
	lagged := raw.Lag(1)
	lagged.ReplaceInfWithMissing()

	target := b.buildTarget(prices, closes)

	return lagged, target, nil
}

// BuildTrainingSet is Build followed by dropping every row where any
// feature is missing or the target is undefined — the shape a classifier's
// Fit expects.
func (b *Builder) BuildTrainingSet(prices models.Series) (*models.FeatureTable, models.TargetVector, error) {
	featuresTable, target, err := b.Build(prices)
	if err != nil {
		return nil, models.TargetVector{}, err
	}
	dropped, keep := featuresTable.DropMissing()
	alignedTarget := target.Select(keep)
	finalKeep := make([]int, 0, len(alignedTarget.Values))
	for i, v := range alignedTarget.Values {
		if !math.IsNaN(v) {
			finalKeep = append(finalKeep, i)
		}
	}
	finalFeatures, _ := dropped.SelectRows(finalKeep)
	finalTarget := alignedTarget.Select(finalKeep)
	return finalFeatures, finalTarget, nil
}

// buildTarget computes target[t] = 1{future_return[t] > threshold} via a
// forward shift; the trailing horizon rows are left undefined (NaN).
func (b *Builder) buildTarget(prices models.Series, closes []float64) models.TargetVector {
	n := prices.Len()
	values := allNaN(n)
	h := b.cfg.Horizon
	for i := 0; i+h < n; i++ {
		if closes[i] == 0 {
			continue
		}
		futureReturn := closes[i+h]/closes[i] - 1
		if futureReturn > b.cfg.Threshold {
			values[i] = 1
		} else {
			values[i] = 0
		}
	}
	return models.TargetVector{Index: prices.Index, Values: values}
}

func allNaN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func hasVolume(volumes []float64) bool {
	for _, v := range volumes {
		if v != 0 {
			return true
		}
	}
	return false
}

func rollingReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out[i-1] = closes[i]/closes[i-1] - 1
		}
	}
	return out
}
