package services

import (
	"fmt"
	"math"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

// TechnicalParams holds the indicator tunables. Fixed at construction so a
// run is a pure function of its price series.
type TechnicalParams struct {
	RSIPeriod      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	BBPeriod       int
	BBStdDev       float64
	ATRPeriod      int
	MomentumWindow []int
}

// DefaultTechnicalParams returns the standard indicator settings.
func DefaultTechnicalParams() TechnicalParams {
	return TechnicalParams{
		RSIPeriod:      14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		BBPeriod:       20,
		BBStdDev:       2.0,
		ATRPeriod:      14,
		MomentumWindow: []int{5, 20, 60},
	}
}

// TechnicalEngine converts an ordered price series (newest first) into
// moving averages, oscillators, bands, volume and momentum statistics, and
// qualitative trend signals.
type TechnicalEngine struct {
	params TechnicalParams
	logger *logrus.Logger
}

// NewTechnicalEngine creates a technical engine with the given parameters.
func NewTechnicalEngine(params TechnicalParams, logger *logrus.Logger) *TechnicalEngine {
	return &TechnicalEngine{params: params, logger: logger}
}

// Compute runs every indicator over the dataset's price series.
// Indicators with insufficient history come back nil; only a wholly empty
// series marks the result itself as errored.
func (e *TechnicalEngine) Compute(dataset *models.RawDataset) models.TechnicalResult {
	if len(dataset.Prices) == 0 {
		e.logger.WithField("ticker", dataset.Ticker).Warn("No price data available for technical analysis")
		return models.TechnicalResult{
			VolumeProfile: models.VolumeProfile{Trend: "unknown"},
			Error:         "no price data available",
		}
	}

	closes := dataset.Closes()

	var currentPrice *float64
	if len(closes) > 0 {
		currentPrice = fptr(closes[0])
	}

	result := models.TechnicalResult{
		CurrentPrice:      currentPrice,
		MovingAverages:    e.movingAverages(closes),
		RSI:               e.rsi(closes, e.params.RSIPeriod),
		MACD:              e.macd(closes),
		BollingerBands:    e.bollingerBands(closes, e.params.BBPeriod, e.params.BBStdDev),
		ATR:               e.atr(dataset.Prices, e.params.ATRPeriod),
		VolumeProfile:     e.volumeProfile(dataset.Prices),
		SupportResistance: e.supportResistance(dataset.Prices),
		Momentum:          e.momentum(closes),
	}
	result.TrendSignals = e.trendSignals(currentPrice, result.MovingAverages, result.RSI, result.MACD)

	e.logger.WithFields(logrus.Fields{
		"ticker":  dataset.Ticker,
		"signals": len(result.TrendSignals),
	}).Info("Technical analysis complete")

	return result
}

// sma is the arithmetic mean of the most recent period closes.
func (e *TechnicalEngine) sma(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	return fptr(mean(closes[:period]))
}

// ema seeds with the SMA of the oldest period observations and then walks
// forward chronologically with multiplier 2/(period+1).
func (e *TechnicalEngine) ema(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	ordered := reversed(closes)
	multiplier := 2.0 / float64(period+1)
	ema := mean(ordered[:period])
	for _, price := range ordered[period:] {
		ema = (price-ema)*multiplier + ema
	}
	return fptr(ema)
}

func (e *TechnicalEngine) movingAverages(closes []float64) models.MovingAverages {
	return models.MovingAverages{
		SMA20:  e.sma(closes, 20),
		SMA50:  e.sma(closes, 50),
		SMA200: e.sma(closes, 200),
		EMA12:  e.ema(closes, e.params.MACDFast),
		EMA26:  e.ema(closes, e.params.MACDSlow),
		EMA50:  e.ema(closes, 50),
	}
}

// rsi implements Wilder smoothing over a bounded working window of
// 3×period+1 observations. The result is always within [0, 100].
func (e *TechnicalEngine) rsi(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	window := closes
	if len(window) > period*3+1 {
		window = window[:period*3+1]
	}
	ordered := reversed(window)

	gains := make([]float64, 0, len(ordered)-1)
	losses := make([]float64, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		delta := ordered[i] - ordered[i-1]
		gains = append(gains, math.Max(delta, 0))
		losses = append(losses, math.Max(-delta, 0))
	}
	if len(gains) < period {
		return nil
	}

	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return fptr(100.0)
	}
	rs := avgGain / avgLoss
	return fptr(roundTo(100-100/(1+rs), 2))
}

// macd computes EMA(fast)−EMA(slow), with the signal line as EMA(signal)
// of a short MACD series reconstructed per offset. Missing history makes
// the whole triple undefined.
func (e *TechnicalEngine) macd(closes []float64) models.MACDResult {
	ema12 := e.ema(closes, e.params.MACDFast)
	ema26 := e.ema(closes, e.params.MACDSlow)
	if ema12 == nil || ema26 == nil {
		return models.MACDResult{}
	}

	line := *ema12 - *ema26

	// Rebuild a short MACD series, newest first, one EMA pair per offset.
	var series []float64
	for i := 0; i < min(35, len(closes)-e.params.MACDSlow); i++ {
		fast := e.ema(closes[i:], e.params.MACDFast)
		slow := e.ema(closes[i:], e.params.MACDSlow)
		if fast != nil && slow != nil {
			series = append(series, *fast-*slow)
		}
	}

	var signal, histogram *float64
	if len(series) >= e.params.MACDSignal {
		signal = e.ema(series, e.params.MACDSignal)
	}
	if signal != nil {
		histogram = fptr(line - *signal)
	}

	return models.MACDResult{
		Line:      fptr(roundTo(line, 4)),
		Signal:    roundPtr(signal, 4),
		Histogram: roundPtr(histogram, 4),
	}
}

// bollingerBands uses the population (N) standard deviation over the most
// recent period closes, unlike the returns-based statistics which use N−1.
func (e *TechnicalEngine) bollingerBands(closes []float64, period int, numStd float64) models.BollingerBands {
	if len(closes) < period {
		return models.BollingerBands{}
	}

	window := closes[:period]
	middle := mean(window)
	var variance float64
	for _, c := range window {
		d := c - middle
		variance += d * d
	}
	variance /= float64(period)
	stdDev := math.Sqrt(variance)

	upper := middle + numStd*stdDev
	lower := middle - numStd*stdDev

	var bandwidth *float64
	if middle != 0 {
		bandwidth = fptr(roundTo((upper-lower)/middle*100, 2))
	}

	return models.BollingerBands{
		Upper:     fptr(roundTo(upper, 2)),
		Middle:    fptr(roundTo(middle, 2)),
		Lower:     fptr(roundTo(lower, 2)),
		Bandwidth: bandwidth,
	}
}

// atr Wilder-smooths true ranges over a 2×period+1 working window.
func (e *TechnicalEngine) atr(bars []models.PriceBar, period int) *float64 {
	if len(bars) < period+1 {
		return nil
	}

	window := bars
	if len(window) > period*2+1 {
		window = window[:period*2+1]
	}

	// Chronological order for the recurrence.
	ordered := make([]models.PriceBar, len(window))
	for i, b := range window {
		ordered[len(window)-1-i] = b
	}

	trueRanges := make([]float64, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		high := ordered[i].High.InexactFloat64()
		low := ordered[i].Low.InexactFloat64()
		prevClose := ordered[i-1].Close.InexactFloat64()
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges = append(trueRanges, tr)
	}
	if len(trueRanges) < period {
		return nil
	}

	atr := mean(trueRanges[:period])
	for _, tr := range trueRanges[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return fptr(roundTo(atr, 2))
}

func (e *TechnicalEngine) volumeProfile(bars []models.PriceBar) models.VolumeProfile {
	volumes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if v := b.Volume.InexactFloat64(); v != 0 {
			volumes = append(volumes, v)
		}
	}
	if len(volumes) == 0 {
		return models.VolumeProfile{Trend: "unknown"}
	}

	avg20 := mean(volumes[:min(len(volumes), 20)])
	var avg50 *float64
	if len(volumes) >= 20 {
		avg50 = fptr(mean(volumes[:min(len(volumes), 50)]))
	}

	trend := "insufficient_data"
	if avg50 != nil && *avg50 != 0 {
		switch ratio := avg20 / *avg50; {
		case ratio > 1.2:
			trend = "increasing"
		case ratio < 0.8:
			trend = "decreasing"
		default:
			trend = "stable"
		}
	}

	profile := models.VolumeProfile{
		AvgVolume20: int64Ptr(avg20),
		Trend:       trend,
	}
	if avg50 != nil {
		profile.AvgVolume50 = int64Ptr(*avg50)
	}
	return profile
}

func int64Ptr(v float64) *int64 {
	i := int64(v)
	return &i
}

func (e *TechnicalEngine) supportResistance(bars []models.PriceBar) models.SupportResistance {
	return models.SupportResistance{
		Resistance52W: maxHigh(bars, 252),
		Support52W:    minLow(bars, 252),
		Resistance20D: maxHigh(bars, 20),
		Support20D:    minLow(bars, 20),
	}
}

func maxHigh(bars []models.PriceBar, window int) *float64 {
	var result *float64
	for _, b := range bars[:min(len(bars), window)] {
		if h := b.High.InexactFloat64(); h != 0 && (result == nil || h > *result) {
			result = fptr(h)
		}
	}
	return result
}

func minLow(bars []models.PriceBar, window int) *float64 {
	var result *float64
	for _, b := range bars[:min(len(bars), window)] {
		if l := b.Low.InexactFloat64(); l != 0 && (result == nil || l < *result) {
			result = fptr(l)
		}
	}
	return result
}

// momentum is the rate of change over each configured window.
func (e *TechnicalEngine) momentum(closes []float64) models.Momentum {
	roc := func(period int) *float64 {
		if len(closes) <= period || closes[period] == 0 {
			return nil
		}
		return fptr(roundTo((closes[0]-closes[period])/closes[period]*100, 2))
	}

	windows := e.params.MomentumWindow
	if len(windows) != 3 {
		windows = []int{5, 20, 60}
	}
	return models.Momentum{
		ROC5D:  roc(windows[0]),
		ROC20D: roc(windows[1]),
		ROC60D: roc(windows[2]),
	}
}

// trendSignals derives the qualitative signal list. Order is fixed and the
// list is built exactly once per run; downstream only counts the
// bullish/bearish substrings.
func (e *TechnicalEngine) trendSignals(
	currentPrice *float64,
	ma models.MovingAverages,
	rsi *float64,
	macd models.MACDResult,
) []string {
	var signals []string

	if ma.SMA50 != nil && ma.SMA200 != nil {
		if *ma.SMA50 > *ma.SMA200 {
			signals = append(signals, "Golden Cross (SMA50 > SMA200) - bullish")
		} else {
			signals = append(signals, "Death Cross (SMA50 < SMA200) - bearish")
		}
	}

	if currentPrice != nil && ma.SMA200 != nil {
		if *currentPrice > *ma.SMA200 {
			signals = append(signals, "Price above 200-day SMA - bullish")
		} else {
			signals = append(signals, "Price below 200-day SMA - bearish")
		}
	}

	if rsi != nil {
		switch {
		case *rsi > 70:
			signals = append(signals, fmt.Sprintf("RSI %.2f - overbought", *rsi))
		case *rsi < 30:
			signals = append(signals, fmt.Sprintf("RSI %.2f - oversold", *rsi))
		default:
			signals = append(signals, fmt.Sprintf("RSI %.2f - neutral", *rsi))
		}
	}

	if macd.Histogram != nil {
		if *macd.Histogram > 0 {
			signals = append(signals, "MACD histogram positive - bullish momentum")
		} else {
			signals = append(signals, "MACD histogram negative - bearish momentum")
		}
	}

	return signals
}
