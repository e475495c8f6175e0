package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

// SynthesisEngine folds every engine result into a recommendation with a
// confidence score and renders the markdown report. The renderer only
// formats numbers the engines already derived; it recomputes nothing.
type SynthesisEngine struct {
	logger *logrus.Logger
}

// NewSynthesisEngine creates a synthesis engine.
func NewSynthesisEngine(logger *logrus.Logger) *SynthesisEngine {
	return &SynthesisEngine{logger: logger}
}

// Compute derives the recommendation and renders the full report.
func (e *SynthesisEngine) Compute(
	dataset *models.RawDataset,
	metrics models.MetricGroups,
	technical models.TechnicalResult,
	risk models.RiskResult,
	valuation models.ValuationResult,
	sentiment models.SentimentResult,
) models.SynthesisResult {
	e.logger.WithField("ticker", dataset.Ticker).Info("Generating synthesis report")

	var currentPrice *float64
	if closes := dataset.Closes(); len(closes) > 0 {
		currentPrice = fptr(closes[0])
	}

	rec, rationale, confidence := e.recommend(currentPrice, valuation.IntrinsicValuePerShare, risk, technical)

	markdown := e.render(dataset, metrics, technical, risk, valuation, sentiment, currentPrice, rec, rationale, confidence)

	e.logger.WithFields(logrus.Fields{
		"ticker":         dataset.Ticker,
		"recommendation": rec,
		"confidence":     confidence,
	}).Info("Synthesis report generated")

	return models.SynthesisResult{
		Recommendation: rec,
		Rationale:      rationale,
		Confidence:     confidence,
		Markdown:       markdown,
	}
}

// recommend maps the valuation gap onto the recommendation scale, then
// adjusts confidence for the risk rating, the net trend-signal balance, and
// an RSI reading that contradicts the valuation call. Confidence is clamped
// to [10, 95].
func (e *SynthesisEngine) recommend(
	currentPrice, dcfValue *float64,
	risk models.RiskResult,
	technical models.TechnicalResult,
) (rec, rationale string, confidence int) {
	confidence = 50
	var reasons []string

	if currentPrice != nil && dcfValue != nil && *currentPrice > 0 {
		gap := (*dcfValue - *currentPrice) / *currentPrice
		switch {
		case gap > 0.20:
			rec = models.RecommendationStrongBuy
			reasons = append(reasons, fmt.Sprintf("significantly undervalued by %.0f%%", gap*100))
			confidence += 20
		case gap > 0.05:
			rec = models.RecommendationBuy
			reasons = append(reasons, fmt.Sprintf("undervalued by %.0f%%", gap*100))
			confidence += 10
		case gap < -0.20:
			rec = models.RecommendationStrongSell
			reasons = append(reasons, fmt.Sprintf("significantly overvalued by %.0f%%", -gap*100))
			confidence += 15
		case gap < -0.05:
			rec = models.RecommendationSell
			reasons = append(reasons, fmt.Sprintf("overvalued by %.0f%%", -gap*100))
			confidence += 5
		default:
			rec = models.RecommendationHold
			reasons = append(reasons, "fairly valued")
		}
	} else {
		rec = models.RecommendationHold
		reasons = append(reasons, "insufficient valuation data")
	}

	switch risk.RiskRating {
	case models.RiskRatingVeryHigh, models.RiskRatingHigh:
		confidence -= 10
		reasons = append(reasons, strings.ReplaceAll(risk.RiskRating, "_", " ")+" risk profile")
	case models.RiskRatingLow:
		confidence += 5
	}

	bullish, bearish := 0, 0
	for _, s := range technical.TrendSignals {
		lower := strings.ToLower(s)
		if strings.Contains(lower, "bullish") {
			bullish++
		}
		if strings.Contains(lower, "bearish") {
			bearish++
		}
	}
	if bullish > bearish {
		confidence += 5
		reasons = append(reasons, fmt.Sprintf("%d bullish technical signals", bullish))
	} else if bearish > bullish {
		confidence -= 5
		reasons = append(reasons, fmt.Sprintf("%d bearish technical signals", bearish))
	}

	// An extreme RSI cutting against the valuation call costs confidence.
	if technical.RSI != nil {
		buyCall := rec == models.RecommendationBuy || rec == models.RecommendationStrongBuy
		sellCall := rec == models.RecommendationSell || rec == models.RecommendationStrongSell
		if (buyCall && *technical.RSI > 70) || (sellCall && *technical.RSI < 30) {
			confidence -= 10
			reasons = append(reasons, fmt.Sprintf("RSI %.2f contradicts the valuation signal", *technical.RSI))
		}
	}

	if confidence > 95 {
		confidence = 95
	}
	if confidence < 10 {
		confidence = 10
	}

	return rec, strings.Join(reasons, "; "), confidence
}

func (e *SynthesisEngine) render(
	dataset *models.RawDataset,
	metrics models.MetricGroups,
	technical models.TechnicalResult,
	risk models.RiskResult,
	valuation models.ValuationResult,
	sentiment models.SentimentResult,
	currentPrice *float64,
	rec, rationale string,
	confidence int,
) string {
	ticker := strings.ToUpper(dataset.Ticker)
	companyName := "Unknown Company"
	sector, industry := "N/A", "N/A"
	if dataset.Profile != nil {
		if dataset.Profile.CompanyName != "" {
			companyName = dataset.Profile.CompanyName
		}
		if dataset.Profile.Sector != "" {
			sector = dataset.Profile.Sector
		}
		if dataset.Profile.Industry != "" {
			industry = dataset.Profile.Industry
		}
	}

	var s []string
	add := func(format string, args ...any) {
		s = append(s, fmt.Sprintf(format, args...))
	}

	// Header
	add("# %s (%s) - Analysis Report", companyName, ticker)
	add("**Date:** %s", time.Now().Format("January 02, 2006"))
	add("**Sector:** %s - **Industry:** %s", sector, industry)

	// Executive summary
	add("## Executive Summary")
	add("Current price: **%s** | DCF Intrinsic Value: **%s** | Recommendation: **%s** (confidence %d%%)",
		fcur(currentPrice), fcur(valuation.IntrinsicValuePerShare), rec, confidence)
	add("\n*%s.*", capitalize(rationale))

	// Valuation
	add("## Valuation Analysis")
	if currentPrice != nil && valuation.IntrinsicValuePerShare != nil && *currentPrice > 0 {
		upside := (*valuation.IntrinsicValuePerShare - *currentPrice) / *currentPrice * 100
		add("- **Upside / Downside:** %+.1f%%", upside)
	}
	if valuation.WACC != nil && *valuation.WACC != 0 {
		add("- **WACC:** %s", fpct(valuation.WACC))
	}
	if valuation.LatestFCF != nil {
		add("- **Latest Free Cash Flow:** %s", flarge(valuation.LatestFCF))
	}
	if valuation.Error != "" {
		add("- *Note: %s*", valuation.Error)
	}

	add("\n**Valuation Multiples:**")
	add("| Metric | Value |")
	add("|--------|-------|")
	add("| P/E Ratio | %s |", frat(metrics.Valuation.PERatio, 2))
	add("| P/B Ratio | %s |", frat(metrics.Valuation.PBRatio, 2))
	add("| P/S Ratio | %s |", frat(metrics.Valuation.PSRatio, 2))
	add("| EV/EBITDA | %s |", frat(metrics.Valuation.EVEBITDA, 2))
	add("| PEG Ratio | %s |", frat(metrics.Valuation.PEGRatio, 2))

	// Financial health
	add("## Financial Health")
	add("### Profitability")
	add("| Metric | Value |")
	add("|--------|-------|")
	add("| Gross Margin | %s |", fpct(metrics.Profitability.GrossMargin))
	add("| Operating Margin | %s |", fpct(metrics.Profitability.OperatingMargin))
	add("| Net Margin | %s |", fpct(metrics.Profitability.NetMargin))
	add("| ROE | %s |", fpct(metrics.Profitability.ROE))
	add("| ROA | %s |", fpct(metrics.Profitability.ROA))
	add("| ROIC | %s |", fpct(metrics.Profitability.ROIC))

	add("### Liquidity & Leverage")
	add("| Metric | Value |")
	add("|--------|-------|")
	add("| Current Ratio | %s |", frat(metrics.Liquidity.CurrentRatio, 2))
	add("| Quick Ratio | %s |", frat(metrics.Liquidity.QuickRatio, 2))
	add("| Debt/Equity | %s |", frat(metrics.Leverage.DERatio, 2))
	add("| Interest Coverage | %s |", frat(metrics.Leverage.InterestCoverage, 2))

	add("### Efficiency")
	add("- **Asset Turnover:** %s", frat(metrics.Efficiency.AssetTurnover, 2))
	add("- **Inventory Turnover:** %s", frat(metrics.Efficiency.InventoryTurnover, 2))

	// Growth and cash flow
	add("## Growth & Cash Flow")
	add("| Metric | Value |")
	add("|--------|-------|")
	add("| Revenue Growth (YoY) | %s |", fpct(metrics.Growth.RevenueGrowth))
	add("| Net Income Growth | %s |", fpct(metrics.Growth.NetIncomeGrowth))
	add("| EPS Growth | %s |", fpct(metrics.Growth.EPSGrowth))
	add("| FCF Yield | %s |", fpct(metrics.CashFlow.FCFYield))
	add("| FCF / Share | %s |", fcur(metrics.CashFlow.FCFPerShare))
	add("| OCF / Net Income | %s |", frat(metrics.CashFlow.OCFToNetIncome, 2))
	if metrics.Dividends.DividendYield != nil && *metrics.Dividends.DividendYield != 0 {
		add("| Dividend Yield | %s |", fpct(metrics.Dividends.DividendYield))
		add("| Payout Ratio | %s |", frat(metrics.Dividends.PayoutRatio, 2))
	}

	// Technicals
	add("## Technical Analysis")
	add("### Moving Averages & Trend")
	add("- SMA 20: %s | SMA 50: %s | SMA 200: %s",
		fcur(technical.MovingAverages.SMA20), fcur(technical.MovingAverages.SMA50), fcur(technical.MovingAverages.SMA200))
	add("- EMA 12: %s | EMA 26: %s",
		fcur(technical.MovingAverages.EMA12), fcur(technical.MovingAverages.EMA26))

	add("### Oscillators")
	add("- **RSI (14):** %s", frat(technical.RSI, 2))
	add("- **MACD:** %s | Signal: %s | Histogram: %s",
		frat(technical.MACD.Line, 4), frat(technical.MACD.Signal, 4), frat(technical.MACD.Histogram, 4))

	add("### Bollinger Bands")
	add("- Upper: %s | Middle: %s | Lower: %s",
		fcur(technical.BollingerBands.Upper), fcur(technical.BollingerBands.Middle), fcur(technical.BollingerBands.Lower))
	add("- Bandwidth: %s", fpctRaw(technical.BollingerBands.Bandwidth))
	if technical.ATR != nil && *technical.ATR != 0 {
		add("- **ATR (14):** %s", fcur(technical.ATR))
	}

	add("### Support & Resistance")
	add("- 52-Week High: %s | Low: %s",
		fcur(technical.SupportResistance.Resistance52W), fcur(technical.SupportResistance.Support52W))
	add("- 20-Day High: %s | Low: %s",
		fcur(technical.SupportResistance.Resistance20D), fcur(technical.SupportResistance.Support20D))

	add("### Momentum")
	add("- 5-Day ROC: %s | 20-Day: %s | 60-Day: %s",
		fpctRaw(technical.Momentum.ROC5D), fpctRaw(technical.Momentum.ROC20D), fpctRaw(technical.Momentum.ROC60D))

	if len(technical.TrendSignals) > 0 {
		add("\n**Trend Signals:**")
		for _, sig := range technical.TrendSignals {
			add("- %s", sig)
		}
	}

	// Risk
	add("## Risk Assessment")
	add("**Overall Risk Rating: %s**", titleCase(strings.ReplaceAll(riskRatingOrUnknown(risk), "_", " ")))
	add("| Metric | Value |")
	add("|--------|-------|")
	var annualVolPct *float64
	if risk.AnnualVolatility != nil && *risk.AnnualVolatility != 0 {
		annualVolPct = fptr(*risk.AnnualVolatility * 100)
	}
	add("| Annual Volatility | %s |", fpctRaw(annualVolPct))
	add("| Sharpe Ratio | %s |", frat(risk.SharpeRatio, 3))
	add("| Sortino Ratio | %s |", frat(risk.SortinoRatio, 3))
	add("| Max Drawdown | %s |", fpctRaw(risk.MaxDrawdownPct))
	add("| Beta | %s |", frat(risk.Beta, 3))
	add("| VaR (95%%, Daily) | %s |", fpctRaw(risk.VaRHistorical95))

	// Sentiment
	add("## Market Sentiment")
	sentLabel := "Neutral"
	if sentiment.AverageCompound > 0.05 {
		sentLabel = "Positive"
	} else if sentiment.AverageCompound < -0.05 {
		sentLabel = "Negative"
	}
	add("**Overall Sentiment: %s** (compound score: %.3f)", sentLabel, sentiment.AverageCompound)
	add("- Analyzed **%d** recent news articles", sentiment.Analyzed)
	add("- %d positive | %d neutral | %d negative", sentiment.Positive, sentiment.Neutral, sentiment.Negative)

	// Thesis
	add("## Investment Thesis & Recommendation")
	add("### Recommendation: %s", rec)
	add("**Confidence Score: %d%%**", confidence)
	add("\n%s.", capitalize(rationale))

	// Disclaimer
	add("\n---")
	add("*Disclaimer: This report is generated by an automated system and is for " +
		"informational purposes only. It does not constitute financial advice. " +
		"Always conduct your own due diligence before making investment decisions.*")

	return strings.Join(s, "\n\n")
}

func riskRatingOrUnknown(risk models.RiskResult) string {
	if risk.RiskRating == "" {
		return models.RiskRatingUnknown
	}
	return risk.RiskRating
}

// fcur formats a currency value with thousands separators.
func fcur(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return "$" + commafy(fmt.Sprintf("%.2f", *v))
}

// frat formats a plain ratio to the given precision.
func frat(v *float64, decimals int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

// fpct formats a decimal fraction as a percentage (0.25 renders as 25.00%).
func fpct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// fpctRaw formats a value that is already a percentage.
func fpctRaw(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// flarge abbreviates large currency values (1.5e9 renders as $1.50B).
func flarge(v *float64) string {
	if v == nil {
		return "N/A"
	}
	abs := math.Abs(*v)
	for _, scale := range []struct {
		unit   string
		thresh float64
	}{{"T", 1e12}, {"B", 1e9}, {"M", 1e6}, {"K", 1e3}} {
		if abs >= scale.thresh {
			return "$" + commafy(fmt.Sprintf("%.2f", *v/scale.thresh)) + scale.unit
		}
	}
	return "$" + commafy(fmt.Sprintf("%.0f", *v))
}

// commafy inserts thousands separators into the integer part of a
// formatted number.
func commafy(num string) string {
	sign := ""
	if strings.HasPrefix(num, "-") {
		sign = "-"
		num = num[1:]
	}
	intPart, fracPart := num, ""
	if i := strings.IndexByte(num, '.'); i >= 0 {
		intPart, fracPart = num[:i], num[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}
