package handlers

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChartDataSource provides the price history and profile the chart
// endpoint renders.
type ChartDataSource interface {
	GetPriceHistory(ctx context.Context, ticker string) ([]models.PriceBar, error)
	GetProfile(ctx context.Context, ticker string) (*models.Profile, error)
}

// ChartHandler serves per-point indicator series for the interactive chart
// page. Unlike the analysis engines, which report the latest value of each
// indicator, this endpoint returns one value per bar.
type ChartHandler struct {
	source ChartDataSource
	logger *logrus.Logger
}

// NewChartHandler creates a chart handler.
func NewChartHandler(source ChartDataSource, logger *logrus.Logger) *ChartHandler {
	return &ChartHandler{source: source, logger: logger}
}

// timeframes maps the timeframe query value to a trading-day count.
var timeframes = map[string]int{
	"1m": 21,
	"3m": 63,
	"6m": 126,
	"1y": 252,
	"2y": 504,
	"5y": 1260,
}

type ohlcvPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// GetChart returns OHLCV bars plus the requested indicator overlays,
// chronological (oldest first).
func (h *ChartHandler) GetChart(c *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	timeframe := c.DefaultQuery("timeframe", "1y")
	indicators := c.DefaultQuery("indicators", "sma")

	bars, err := h.source.GetPriceHistory(c.Request.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch chart prices")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch price data"})
		return
	}
	if len(bars) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price data for " + ticker})
		return
	}

	// Chronological order, trimmed to the requested window.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	limit, ok := timeframes[timeframe]
	if !ok && timeframe != "max" {
		limit = timeframes["1y"]
	}
	if timeframe != "max" && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	dates := make([]string, len(bars))
	closes := make([]float64, len(bars))
	ohlcv := make([]ohlcvPoint, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
		closes[i] = b.Close.InexactFloat64()
		ohlcv[i] = ohlcvPoint{
			Date:   b.Date,
			Open:   b.Open.InexactFloat64(),
			High:   b.High.InexactFloat64(),
			Low:    b.Low.InexactFloat64(),
			Close:  b.Close.InexactFloat64(),
			Volume: b.Volume.InexactFloat64(),
		}
	}

	requested := make(map[string]bool)
	for _, name := range strings.Split(indicators, ",") {
		requested[strings.ToLower(strings.TrimSpace(name))] = true
	}

	computed := gin.H{}
	if requested["sma"] {
		computed["sma20"] = smaSeries(closes, 20)
		computed["sma50"] = smaSeries(closes, 50)
		computed["sma200"] = smaSeries(closes, 200)
	}
	if requested["ema"] {
		computed["ema12"] = emaSeries(closes, 12)
		computed["ema26"] = emaSeries(closes, 26)
	}
	if requested["rsi"] {
		computed["rsi"] = rsiSeries(closes, 14)
	}
	if requested["macd"] {
		line, signal, histogram := macdSeries(closes)
		computed["macd"] = gin.H{"macd": line, "signal": signal, "histogram": histogram}
	}
	if requested["bollinger"] {
		sma, upper, lower := bollingerSeries(closes, 20, 2.0)
		computed["bollinger"] = gin.H{"sma": sma, "upper": upper, "lower": lower}
	}

	name := ticker
	if profile, err := h.source.GetProfile(c.Request.Context(), ticker); err == nil && profile != nil && profile.CompanyName != "" {
		name = profile.CompanyName
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":     ticker,
		"name":       name,
		"dates":      dates,
		"ohlcv":      ohlcv,
		"indicators": computed,
	})
}

// The series helpers below operate on chronological closes and return one
// slot per bar, nil until the indicator has enough history.

func smaSeries(closes []float64, period int) []*float64 {
	result := make([]*float64, len(closes))
	for i := period - 1; i < len(closes); i++ {
		var sum float64
		for _, c := range closes[i-period+1 : i+1] {
			sum += c
		}
		v := round2(sum / float64(period))
		result[i] = &v
	}
	return result
}

func emaSeries(closes []float64, period int) []*float64 {
	result := make([]*float64, len(closes))
	if len(closes) < period {
		return result
	}
	k := 2.0 / float64(period+1)
	var seed float64
	for _, c := range closes[:period] {
		seed += c
	}
	prev := seed / float64(period)
	result[period-1] = &prev
	for i := period; i < len(closes); i++ {
		v := round2(closes[i]*k + *result[i-1]*(1-k))
		result[i] = &v
	}
	return result
}

func rsiSeries(closes []float64, period int) []*float64 {
	result := make([]*float64, len(closes))
	if len(closes) < period+1 {
		return result
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		avgGain += math.Max(diff, 0)
		avgLoss += math.Max(-diff, 0)
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(diff, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-diff, 0)) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}
	return result
}

func rsiValue(avgGain, avgLoss float64) *float64 {
	if avgLoss == 0 {
		v := 100.0
		return &v
	}
	rs := avgGain / avgLoss
	v := round2(100 - 100/(1+rs))
	return &v
}

func macdSeries(closes []float64) (line, signal, histogram []*float64) {
	ema12 := emaSeries(closes, 12)
	ema26 := emaSeries(closes, 26)

	line = make([]*float64, len(closes))
	for i := range closes {
		if ema12[i] != nil && ema26[i] != nil {
			v := round4(*ema12[i] - *ema26[i])
			line[i] = &v
		}
	}

	signal = make([]*float64, len(closes))
	firstValid := -1
	valid := make([]float64, 0, len(closes))
	for i, v := range line {
		if v != nil {
			if firstValid < 0 {
				firstValid = i
			}
			valid = append(valid, *v)
		}
	}
	if len(valid) >= 9 && firstValid+8 < len(closes) {
		k := 2.0 / 10
		var seed float64
		for _, v := range valid[:9] {
			seed += v
		}
		start := firstValid + 8
		seedVal := round4(seed / 9)
		signal[start] = &seedVal
		for i := start + 1; i < len(closes); i++ {
			if line[i] != nil && signal[i-1] != nil {
				v := round4(*line[i]*k + *signal[i-1]*(1-k))
				signal[i] = &v
			}
		}
	}

	histogram = make([]*float64, len(closes))
	for i := range closes {
		if line[i] != nil && signal[i] != nil {
			v := round4(*line[i] - *signal[i])
			histogram[i] = &v
		}
	}
	return line, signal, histogram
}

func bollingerSeries(closes []float64, period int, stdMult float64) (sma, upper, lower []*float64) {
	sma = smaSeries(closes, period)
	upper = make([]*float64, len(closes))
	lower = make([]*float64, len(closes))
	for i := period - 1; i < len(closes); i++ {
		window := closes[i-period+1 : i+1]
		var sum float64
		for _, c := range window {
			sum += c
		}
		mean := sum / float64(period)
		var variance float64
		for _, c := range window {
			d := c - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))
		u := round2(mean + stdMult*std)
		l := round2(mean - stdMult*std)
		upper[i] = &u
		lower[i] = &l
	}
	return sma, upper, lower
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
