package models

// Stats is the enumerated set of scalar metrics computed once per backtest
// (spec.md §4.4). Every field degrades gracefully when undefined — 0 or
// +Inf, never NaN; the backtest package's computeStats documents which
// metric takes which sentinel.
type Stats struct {
	TotalReturn        float64 `json:"total_return"`
	AnnualizedReturn   float64 `json:"annualized_return"`
	AnnualizedVol      float64 `json:"annualized_volatility"`
	Sharpe             float64 `json:"sharpe"`
	Sortino            float64 `json:"sortino"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	Calmar             float64 `json:"calmar"`
	WinRate            float64 `json:"win_rate"`
	ProfitFactor       float64 `json:"profit_factor"`
	AvgTradeReturn     float64 `json:"avg_trade_return"`
	BestTrade          float64 `json:"best_trade"`
	WorstTrade         float64 `json:"worst_trade"`
	NumTrades          int     `json:"num_trades"`
	PeriodsPerYearUsed float64 `json:"periods_per_year_used"`
}

// BacktestResult bundles the trades, equity curve, and metrics produced by
// a single backtest run. Immutable once returned.
type BacktestResult struct {
	ID     string
	Trades []TradeRecord
	Equity EquitySeries
	Stats  Stats
}

// TimeRange is an inclusive [Start, End] span over a series index.
type TimeRange struct {
	StartIdx int
	EndIdx   int
}

// Fold is one walk-forward train/test evaluation.
type Fold struct {
	FoldIndex         int
	TrainRange        TimeRange
	TestRange         TimeRange
	BestParams        map[string]float64
	InSampleMetric    float64
	OutOfSampleMetric float64
}

// ParameterDiagnostic reports the per-fold stability of a single
// hyperparameter.
type ParameterDiagnostic struct {
	Mean              float64
	StdDev            float64
	CoefficientOfVar  float64
	Stability         float64
	ValuesAcrossFolds []float64
}

// WalkForwardResult is the aggregate output of the walk-forward optimiser.
type WalkForwardResult struct {
	ID               string
	Folds            []Fold
	MeanOOSSharpe    float64
	MeanOOSReturn    float64
	MeanISSharpe     float64
	ParamStability   map[string]ParameterDiagnostic
	OverallStability float64
	Overfit          bool
	OverfitReasons   []string
}

// MonteCarloResult is the aggregate output of the Monte-Carlo robustness
// analyser.
type MonteCarloResult struct {
	ID                      string
	NPaths                  int
	EquityPaths             [][]float64 // [path][bar], length n+1 per path
	FinalReturnDistribution []float64
	Percentiles             map[int]float64 // keys: 5, 25, 75, 95
	VaR95                   float64
	VaR99                   float64
	CVaR95                  float64
	MeanMaxDrawdown         float64
	WorstMaxDrawdown        float64
	DrawdownDistribution    []float64
	ProbPositiveReturn      float64
	ProbDoubling            float64
	ProbLoseHalf            float64
}
