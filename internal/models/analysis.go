package models

// MetricGroups is the ratio engine's output: eight named groups of
// fundamental metrics. A nil value is a first-class outcome meaning the
// inputs needed for that metric were unavailable.
type MetricGroups struct {
	Valuation     ValuationMetrics     `json:"valuation"`
	Profitability ProfitabilityMetrics `json:"profitability"`
	Liquidity     LiquidityMetrics     `json:"liquidity"`
	Leverage      LeverageMetrics      `json:"leverage"`
	Efficiency    EfficiencyMetrics    `json:"efficiency"`
	Growth        GrowthMetrics        `json:"growth"`
	CashFlow      CashFlowMetrics      `json:"cash_flow"`
	Dividends     DividendMetrics      `json:"dividends"`
}

type ValuationMetrics struct {
	PERatio  *float64 `json:"pe_ratio"`
	PBRatio  *float64 `json:"pb_ratio"`
	PSRatio  *float64 `json:"ps_ratio"`
	EVEBITDA *float64 `json:"ev_ebitda"`
	PEGRatio *float64 `json:"peg_ratio"`
}

type ProfitabilityMetrics struct {
	GrossMargin     *float64 `json:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	NetMargin       *float64 `json:"net_margin"`
	ROE             *float64 `json:"roe"`
	ROA             *float64 `json:"roa"`
	ROIC            *float64 `json:"roic"`
}

type LiquidityMetrics struct {
	CurrentRatio *float64 `json:"current_ratio"`
	QuickRatio   *float64 `json:"quick_ratio"`
}

type LeverageMetrics struct {
	DERatio          *float64 `json:"de_ratio"`
	InterestCoverage *float64 `json:"interest_coverage"`
}

type EfficiencyMetrics struct {
	AssetTurnover     *float64 `json:"asset_turnover"`
	InventoryTurnover *float64 `json:"inventory_turnover"`
}

type GrowthMetrics struct {
	RevenueGrowth   *float64 `json:"revenue_growth"`
	NetIncomeGrowth *float64 `json:"net_income_growth"`
	EPSGrowth       *float64 `json:"eps_growth"`
}

type CashFlowMetrics struct {
	FCFYield       *float64 `json:"fcf_yield"`
	FCFPerShare    *float64 `json:"fcf_per_share"`
	OCFToNetIncome *float64 `json:"ocf_to_net_income"`
}

type DividendMetrics struct {
	DividendYield *float64 `json:"dividend_yield"`
	PayoutRatio   *float64 `json:"payout_ratio"`
}

// TechnicalResult carries every technical indicator for one run. The trend
// signal list is append-only and built exactly once per run.
type TechnicalResult struct {
	CurrentPrice      *float64          `json:"current_price"`
	MovingAverages    MovingAverages    `json:"moving_averages"`
	RSI               *float64          `json:"rsi"`
	MACD              MACDResult        `json:"macd"`
	BollingerBands    BollingerBands    `json:"bollinger_bands"`
	ATR               *float64          `json:"atr"`
	VolumeProfile     VolumeProfile     `json:"volume_profile"`
	SupportResistance SupportResistance `json:"support_resistance"`
	Momentum          Momentum          `json:"momentum"`
	TrendSignals      []string          `json:"trend_signals"`
	Error             string            `json:"error,omitempty"`
}

type MovingAverages struct {
	SMA20  *float64 `json:"sma_20"`
	SMA50  *float64 `json:"sma_50"`
	SMA200 *float64 `json:"sma_200"`
	EMA12  *float64 `json:"ema_12"`
	EMA26  *float64 `json:"ema_26"`
	EMA50  *float64 `json:"ema_50"`
}

type MACDResult struct {
	Line      *float64 `json:"macd_line"`
	Signal    *float64 `json:"signal_line"`
	Histogram *float64 `json:"macd_histogram"`
}

type BollingerBands struct {
	Upper     *float64 `json:"bb_upper"`
	Middle    *float64 `json:"bb_middle"`
	Lower     *float64 `json:"bb_lower"`
	Bandwidth *float64 `json:"bb_bandwidth"`
}

type VolumeProfile struct {
	AvgVolume20 *int64 `json:"avg_volume_20"`
	AvgVolume50 *int64 `json:"avg_volume_50"`
	Trend       string `json:"volume_trend"`
}

type SupportResistance struct {
	Resistance52W *float64 `json:"resistance_52w"`
	Support52W    *float64 `json:"support_52w"`
	Resistance20D *float64 `json:"resistance_20d"`
	Support20D    *float64 `json:"support_20d"`
}

type Momentum struct {
	ROC5D  *float64 `json:"roc_5d"`
	ROC20D *float64 `json:"roc_20d"`
	ROC60D *float64 `json:"roc_60d"`
}

// Risk rating categories, ordered from least to most risky.
const (
	RiskRatingLow      = "low"
	RiskRatingModerate = "moderate"
	RiskRatingHigh     = "high"
	RiskRatingVeryHigh = "very_high"
	RiskRatingUnknown  = "unknown"
)

// RiskResult holds return-based risk statistics and the categorical rating.
type RiskResult struct {
	DailyVolatility    *float64 `json:"daily_volatility"`
	AnnualVolatility   *float64 `json:"annual_volatility"`
	SharpeRatio        *float64 `json:"sharpe_ratio"`
	SortinoRatio       *float64 `json:"sortino_ratio"`
	MaxDrawdown        *float64 `json:"max_drawdown"`
	MaxDrawdownPct     *float64 `json:"max_drawdown_pct"`
	Beta               *float64 `json:"beta"`
	VaRHistorical95    *float64 `json:"var_historical_95"`
	VaRParametric95    *float64 `json:"var_parametric_95"`
	RiskAdjustedReturn *float64 `json:"risk_adjusted_return"`
	RiskRating         string   `json:"risk_rating"`
	Error              string   `json:"error,omitempty"`
}

// ValuationResult is either a fully populated DCF outcome or an error with a
// named reason, never a partial mix of the two.
type ValuationResult struct {
	IntrinsicValuePerShare *float64 `json:"dcf_intrinsic_value_per_share"`
	WACC                   *float64 `json:"wacc"`
	LatestFCF              *float64 `json:"latest_fcf"`
	Error                  string   `json:"error,omitempty"`
}

// SentimentResult aggregates per-article compound scores.
type SentimentResult struct {
	AverageCompound float64 `json:"average_sentiment_compound"`
	Positive        int     `json:"positive_articles_count"`
	Negative        int     `json:"negative_articles_count"`
	Neutral         int     `json:"neutral_articles_count"`
	Analyzed        int     `json:"analyzed_articles_count"`
}

// Recommendation labels produced by the synthesis engine.
const (
	RecommendationStrongBuy  = "Strong Buy"
	RecommendationBuy        = "Buy"
	RecommendationHold       = "Hold"
	RecommendationSell       = "Sell"
	RecommendationStrongSell = "Strong Sell"
)

// SynthesisResult is the synthesis engine's output: the recommendation with
// its confidence, and the rendered markdown report.
type SynthesisResult struct {
	Recommendation string `json:"recommendation"`
	Rationale      string `json:"rationale"`
	Confidence     int    `json:"confidence"`
	Markdown       string `json:"markdown"`
}
