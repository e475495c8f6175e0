package services

import (
	"github.com/finsight/finsight-go/internal/models"
)

// BuildChartData flattens the engine results into the chart projection the
// presentation layer reads. The price series carries at most maxPoints of
// the most recent closes, reordered oldest first.
func BuildChartData(
	dataset *models.RawDataset,
	metrics models.MetricGroups,
	technical models.TechnicalResult,
	risk models.RiskResult,
	valuation models.ValuationResult,
	synthesis models.SynthesisResult,
	maxPoints int,
) models.ChartData {
	recent := dataset.Prices
	if maxPoints > 0 && len(recent) > maxPoints {
		recent = recent[:maxPoints]
	}
	prices := make([]models.ChartPricePoint, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if c := recent[i].Close.InexactFloat64(); c != 0 {
			prices = append(prices, models.ChartPricePoint{Date: recent[i].Date, Close: c})
		}
	}

	companyName := ""
	if dataset.Profile != nil {
		companyName = dataset.Profile.CompanyName
	}

	return models.ChartData{
		Ticker:         dataset.Ticker,
		CompanyName:    companyName,
		Prices:         prices,
		MovingAverages: technical.MovingAverages,
		Oscillators: models.ChartOscillators{
			RSI:           technical.RSI,
			MACDLine:      technical.MACD.Line,
			MACDSignal:    technical.MACD.Signal,
			MACDHistogram: technical.MACD.Histogram,
		},
		MetricGroups: metricGroupBars(metrics),
		Risk: models.ChartRiskSummary{
			AnnualVolatility: risk.AnnualVolatility,
			MaxDrawdownPct:   risk.MaxDrawdownPct,
			SharpeRatio:      risk.SharpeRatio,
			Beta:             risk.Beta,
			RiskRating:       riskRatingOrUnknown(risk),
		},
		Valuation: models.ChartValuation{
			CurrentPrice:           technical.CurrentPrice,
			IntrinsicValuePerShare: valuation.IntrinsicValuePerShare,
			WACC:                   valuation.WACC,
			Recommendation:         synthesis.Recommendation,
			Confidence:             synthesis.Confidence,
		},
	}
}

// metricGroupBars projects the eight metric groups into parallel
// label/value arrays, preserving nils as chart gaps.
func metricGroupBars(m models.MetricGroups) []models.ChartMetricGroup {
	return []models.ChartMetricGroup{
		{
			Group:  "valuation",
			Labels: []string{"P/E", "P/B", "P/S", "EV/EBITDA", "PEG"},
			Values: []*float64{m.Valuation.PERatio, m.Valuation.PBRatio, m.Valuation.PSRatio, m.Valuation.EVEBITDA, m.Valuation.PEGRatio},
		},
		{
			Group:  "profitability",
			Labels: []string{"Gross Margin", "Operating Margin", "Net Margin", "ROE", "ROA", "ROIC"},
			Values: []*float64{m.Profitability.GrossMargin, m.Profitability.OperatingMargin, m.Profitability.NetMargin, m.Profitability.ROE, m.Profitability.ROA, m.Profitability.ROIC},
		},
		{
			Group:  "liquidity",
			Labels: []string{"Current Ratio", "Quick Ratio"},
			Values: []*float64{m.Liquidity.CurrentRatio, m.Liquidity.QuickRatio},
		},
		{
			Group:  "leverage",
			Labels: []string{"Debt/Equity", "Interest Coverage"},
			Values: []*float64{m.Leverage.DERatio, m.Leverage.InterestCoverage},
		},
		{
			Group:  "efficiency",
			Labels: []string{"Asset Turnover", "Inventory Turnover"},
			Values: []*float64{m.Efficiency.AssetTurnover, m.Efficiency.InventoryTurnover},
		},
		{
			Group:  "growth",
			Labels: []string{"Revenue Growth", "Net Income Growth", "EPS Growth"},
			Values: []*float64{m.Growth.RevenueGrowth, m.Growth.NetIncomeGrowth, m.Growth.EPSGrowth},
		},
		{
			Group:  "cash_flow",
			Labels: []string{"FCF Yield", "FCF / Share", "OCF / Net Income"},
			Values: []*float64{m.CashFlow.FCFYield, m.CashFlow.FCFPerShare, m.CashFlow.OCFToNetIncome},
		},
		{
			Group:  "dividends",
			Labels: []string{"Dividend Yield", "Payout Ratio"},
			Values: []*float64{m.Dividends.DividendYield, m.Dividends.PayoutRatio},
		},
	}
}
