package models

// ChartData is the denormalized projection the presentation layer reads
// directly. It is derived from the engine results at the moment the report
// is persisted and must stay consistent with them.
type ChartData struct {
	Ticker         string             `json:"ticker"`
	CompanyName    string             `json:"company_name"`
	Prices         []ChartPricePoint  `json:"prices"`
	MovingAverages MovingAverages     `json:"moving_averages"`
	Oscillators    ChartOscillators   `json:"oscillators"`
	MetricGroups   []ChartMetricGroup `json:"metric_groups"`
	Risk           ChartRiskSummary   `json:"risk"`
	Valuation      ChartValuation     `json:"valuation"`
}

// ChartPricePoint is one close in the chart's price series, chronological
// (oldest first), unlike the engine-facing newest-first ordering.
type ChartPricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type ChartOscillators struct {
	RSI           *float64 `json:"rsi"`
	MACDLine      *float64 `json:"macd_line"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
}

// ChartMetricGroup is one bar-chart-ready metric group: parallel label and
// value slices, nil values preserved so the chart can show gaps.
type ChartMetricGroup struct {
	Group  string     `json:"group"`
	Labels []string   `json:"labels"`
	Values []*float64 `json:"values"`
}

type ChartRiskSummary struct {
	AnnualVolatility *float64 `json:"annual_volatility"`
	MaxDrawdownPct   *float64 `json:"max_drawdown_pct"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	Beta             *float64 `json:"beta"`
	RiskRating       string   `json:"risk_rating"`
}

type ChartValuation struct {
	CurrentPrice           *float64 `json:"current_price"`
	IntrinsicValuePerShare *float64 `json:"dcf_intrinsic_value_per_share"`
	WACC                   *float64 `json:"wacc"`
	Recommendation         string   `json:"recommendation"`
	Confidence             int      `json:"confidence"`
}
