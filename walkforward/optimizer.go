package walkforward

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/wyndhurst/edgelab/backtest"
	"github.com/wyndhurst/edgelab/edgeerr"
	"github.com/wyndhurst/edgelab/models"
	"github.com/wyndhurst/edgelab/signal"
)

// minTrainBars and minTestBars are the smallest fold sizes worth evaluating
// (spec.md §4.5.1): folds smaller than this are skipped rather than run on
// too little data to mean anything.
const (
	minTrainBars = 50
	minTestBars  = 10
)

// StrategyConstructor builds a signal generator from a parameter set drawn
// from the search space. Returning an error (e.g. a fast period that is not
// strictly less than the slow period) marks the trial as infeasible; the
// search penalises it rather than treating it as a fatal failure.
type StrategyConstructor func(params map[string]float64) (signal.Generator, error)

// Optimizer runs walk-forward validation over one price series, one
// constructor, and one backtest configuration.
type Optimizer struct {
	engine *backtest.Engine
	btCfg  backtest.Config
}

// NewOptimizer builds an Optimizer. backtestCfg is the fixed execution
// context (costs, sizing, execution delay) applied identically to every
// fold and every trial; only the strategy's own parameters vary.
func NewOptimizer(engine *backtest.Engine, backtestCfg backtest.Config) *Optimizer {
	return &Optimizer{engine: engine, btCfg: backtestCfg}
}

type trialOutcome struct {
	params map[string]float64
	score  float64
}

// Run splits prices into cfg.NSplits contiguous chunks, each divided into a
// leading train slice and trailing test slice by cfg.TrainFraction. Folds
// too small to evaluate are skipped. A seeded search over cfg.NTrials trials
// picks the best in-sample parameters per fold; those parameters are then
// evaluated once, untouched, on the fold's test slice.
func (o *Optimizer) Run(ctx context.Context, prices models.Series, ctor StrategyConstructor, cfg Config) (*models.WalkForwardResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := prices.Validate("walkforward"); err != nil {
		return nil, err
	}

	n := prices.Len()
	chunkSize := n / cfg.NSplits
	if chunkSize < minTrainBars+minTestBars {
		return nil, edgeerr.Contract("walkforward.Optimizer", "NSplits", cfg.NSplits, fmt.Sprintf("series of %d bars split %d ways leaves chunks too small to evaluate", n, cfg.NSplits))
	}

	logger := cfg.Logger

	var folds []models.Fold
	var oosReturns []float64
	for f := 0; f < cfg.NSplits; f++ {
		chunkStart := f * chunkSize
		chunkEnd := chunkStart + chunkSize
		if f == cfg.NSplits-1 {
			chunkEnd = n // last chunk absorbs the remainder
		}
		trainLen := int(float64(chunkEnd-chunkStart) * cfg.TrainFraction)
		testLen := (chunkEnd - chunkStart) - trainLen
		if trainLen < minTrainBars || testLen < minTestBars {
			logger.Warn().Int("fold", f).Int("train_len", trainLen).Int("test_len", testLen).Msg("walkforward: skipping fold, too small to evaluate")
			continue
		}

		trainRange := models.TimeRange{StartIdx: chunkStart, EndIdx: chunkStart + trainLen - 1}
		testRange := models.TimeRange{StartIdx: chunkStart + trainLen, EndIdx: chunkEnd - 1}

		trainSeries := sliceSeries(prices, trainRange.StartIdx, trainRange.EndIdx+1)
		testSeries := sliceSeries(prices, testRange.StartIdx, testRange.EndIdx+1)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bestParams, bestScore, err := o.search(ctx, trainSeries, ctor, cfg, f)
		if err != nil {
			return nil, err
		}

		oosScore, oosReturn := o.evaluateWithReturn(testSeries, ctor, cfg, bestParams)
		oosReturns = append(oosReturns, oosReturn)

		folds = append(folds, models.Fold{
			FoldIndex:         f,
			TrainRange:        trainRange,
			TestRange:         testRange,
			BestParams:        bestParams,
			InSampleMetric:    bestScore,
			OutOfSampleMetric: oosScore,
		})
	}

	if len(folds) < 2 {
		return nil, edgeerr.Contract("walkforward.Optimizer", "folds", len(folds), "fewer than two valid folds remain after skipping undersized chunks")
	}

	return o.aggregate(folds, oosReturns), nil
}

// search draws cfg.NTrials parameter sets from the search space and scores
// each against the train slice, running trials concurrently with
// deterministic per-trial seeds so the winner is identical regardless of
// goroutine scheduling order.
func (o *Optimizer) search(ctx context.Context, trainSeries models.Series, ctor StrategyConstructor, cfg Config, foldIndex int) (map[string]float64, float64, error) {
	names := make([]string, 0, len(cfg.SearchSpace))
	for name := range cfg.SearchSpace {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic iteration order for seed derivation

	outcomes := make([]trialOutcome, cfg.NTrials)
	g, gctx := errgroup.WithContext(ctx)
	for trial := 0; trial < cfg.NTrials; trial++ {
		trial := trial
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			seed := cfg.Seed + int64(foldIndex)*1_000_003 + int64(trial)
			rng := rand.New(rand.NewSource(seed))
			params := make(map[string]float64, len(names))
			for _, name := range names {
				r := cfg.SearchSpace[name]
				v := r.Min + rng.Float64()*(r.Max-r.Min)
				if r.Int {
					v = math.Round(v)
				}
				params[name] = v
			}
			outcomes[trial] = trialOutcome{params: params, score: o.evaluate(trainSeries, ctor, cfg, params)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	best := outcomes[0]
	for _, outcome := range outcomes[1:] {
		if outcome.score > best.score {
			best = outcome
		}
	}
	return best.params, best.score, nil
}

// evaluate scores one parameter set by constructing the strategy, running
// it through the backtest engine, and extracting the configured metric.
// Constructor violations and backtest failures are penalised with a large
// negative score rather than propagated — an infeasible corner of the
// search space should lose the trial, not abort the whole search. Each such
// failure is logged at debug level with the trial's parameters.
func (o *Optimizer) evaluate(series models.Series, ctor StrategyConstructor, cfg Config, params map[string]float64) float64 {
	score, _ := o.evaluateWithReturn(series, ctor, cfg, params)
	return score
}

// evaluateWithReturn is evaluate plus the backtest's total return, used for
// the fold's out-of-sample return diagnostic regardless of which metric the
// search itself optimises.
func (o *Optimizer) evaluateWithReturn(series models.Series, ctor StrategyConstructor, cfg Config, params map[string]float64) (score, totalReturn float64) {
	const infeasiblePenalty = -1e18
	penalise := func(stage string, err error) (float64, float64) {
		cfg.Logger.Debug().Err(err).Str("stage", stage).Interface("params", params).Msg("walkforward: trial failed, penalised")
		return infeasiblePenalty, 0
	}

	gen, err := ctor(params)
	if err != nil {
		return penalise("constructor", err)
	}
	frame, err := gen.GenerateSignals(series)
	if err != nil {
		return penalise("signals", err)
	}
	result, err := o.engine.Run(series, frame, o.btCfg)
	if err != nil {
		return penalise("backtest", err)
	}
	v, err := extractMetric(result, cfg.metric())
	if err != nil {
		return penalise("metric", err)
	}
	return v, result.Stats.TotalReturn
}

// aggregate computes cross-fold diagnostics: per-parameter stability and
// the overfitting heuristic (spec.md §4.5.1).
func (o *Optimizer) aggregate(folds []models.Fold, oosReturns []float64) *models.WalkForwardResult {
	var isSum, oosSum float64
	paramValues := map[string][]float64{}
	for _, f := range folds {
		isSum += f.InSampleMetric
		oosSum += f.OutOfSampleMetric
		for name, v := range f.BestParams {
			paramValues[name] = append(paramValues[name], v)
		}
	}
	n := float64(len(folds))
	meanIS := isSum / n
	meanOOS := oosSum / n

	stability := map[string]models.ParameterDiagnostic{}
	var meanCVs []float64
	for name, values := range paramValues {
		mean, std := stat.MeanStdDev(values, nil)
		var cv float64
		if mean != 0 {
			cv = std / math.Abs(mean)
		}
		diag := models.ParameterDiagnostic{
			Mean:              mean,
			StdDev:            std,
			CoefficientOfVar:  cv,
			Stability:         1 / (1 + cv),
			ValuesAcrossFolds: append([]float64(nil), values...),
		}
		stability[name] = diag
		meanCVs = append(meanCVs, cv)
	}
	overallStability := 0.0
	if len(meanCVs) > 0 {
		sum := 0.0
		for _, cv := range meanCVs {
			sum += 1 / (1 + cv)
		}
		overallStability = sum / float64(len(meanCVs))
	}

	var reasons []string
	if meanIS-meanOOS > 0.5 {
		reasons = append(reasons, "mean in-sample metric exceeds mean out-of-sample metric by more than 0.5")
	}
	if meanIS > 1 && meanOOS < 0.3 {
		reasons = append(reasons, "mean in-sample metric above 1 with mean out-of-sample metric below 0.3")
	}

	var oosReturnMean float64
	if len(oosReturns) > 0 {
		oosReturnMean, _ = stat.MeanStdDev(oosReturns, nil)
	}

	return &models.WalkForwardResult{
		ID:               uuid.NewString(),
		Folds:            folds,
		MeanOOSSharpe:    meanOOS,
		MeanOOSReturn:    oosReturnMean,
		MeanISSharpe:     meanIS,
		ParamStability:   stability,
		OverallStability: overallStability,
		Overfit:          len(reasons) > 0,
		OverfitReasons:   reasons,
	}
}

// extractMetric reads the scalar the search maximises out of a backtest
// result.
func extractMetric(result *models.BacktestResult, m Metric) (float64, error) {
	switch m {
	case MetricSharpe, "":
		return result.Stats.Sharpe, nil
	case MetricSortino:
		return result.Stats.Sortino, nil
	case MetricCalmar:
		return result.Stats.Calmar, nil
	case MetricTotalReturn:
		return result.Stats.TotalReturn, nil
	default:
		return 0, edgeerr.Contract("walkforward", "Metric", m, "unrecognised metric name")
	}
}

// sliceSeries carves out the half-open bar range [start, end) as an
// independent series, copying rather than aliasing so train/test slices
// never share backing arrays with each other or with the source.
func sliceSeries(s models.Series, start, end int) models.Series {
	idx := append([]time.Time(nil), s.Index[start:end]...)
	bars := append([]models.OHLCV(nil), s.Bars[start:end]...)
	return models.Series{Index: idx, Bars: bars}
}
