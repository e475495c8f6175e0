package services

import (
	"testing"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTechnicalEngine() *TechnicalEngine {
	return NewTechnicalEngine(DefaultTechnicalParams(), testLogger())
}

func TestTechnicalEngineNoPriceData(t *testing.T) {
	engine := newTechnicalEngine()
	result := engine.Compute(&models.RawDataset{Ticker: "EMPTY"})

	assert.Equal(t, "no price data available", result.Error)
	assert.Nil(t, result.CurrentPrice)
	assert.Equal(t, "unknown", result.VolumeProfile.Trend)
	assert.Empty(t, result.TrendSignals)
}

func TestTechnicalEngineFlatSeries(t *testing.T) {
	engine := newTechnicalEngine()
	dataset := &models.RawDataset{
		Ticker: "FLAT",
		Prices: priceBars(flatCloses(100, 20)...),
	}
	result := engine.Compute(dataset)

	require.NotNil(t, result.CurrentPrice)
	assert.Equal(t, 100.0, *result.CurrentPrice)

	require.NotNil(t, result.MovingAverages.SMA20)
	assert.Equal(t, 100.0, *result.MovingAverages.SMA20)
	assert.Nil(t, result.MovingAverages.SMA50)
	assert.Nil(t, result.MovingAverages.SMA200)

	// No losses in a flat series.
	require.NotNil(t, result.RSI)
	assert.Equal(t, 100.0, *result.RSI)

	// Zero spread between the bands.
	require.NotNil(t, result.BollingerBands.Upper)
	require.NotNil(t, result.BollingerBands.Lower)
	assert.Equal(t, *result.BollingerBands.Upper, *result.BollingerBands.Lower)
	require.NotNil(t, result.BollingerBands.Bandwidth)
	assert.Equal(t, 0.0, *result.BollingerBands.Bandwidth)
}

func TestTechnicalEngineSMA(t *testing.T) {
	engine := newTechnicalEngine()
	// Newest first: 110, 109, ... the 20 most recent average to 100.5.
	closes := trendingCloses(91, 1, 20)
	sma := engine.sma(closes, 20)
	require.NotNil(t, sma)
	assert.InDelta(t, 100.5, *sma, 1e-9)

	assert.Nil(t, engine.sma(closes, 21))
}

func TestTechnicalEngineEMAUsesFullSeries(t *testing.T) {
	engine := newTechnicalEngine()
	closes := trendingCloses(1, 1, 30) // chronological 1..30, newest first 30..1

	ema := engine.ema(closes, 12)
	require.NotNil(t, ema)
	// Seeded with the mean of the oldest 12 observations (6.5) and walked
	// forward through all 30, the EMA must trail the latest close.
	assert.Greater(t, *ema, 20.0)
	assert.Less(t, *ema, 30.0)
}

func TestTechnicalEngineRSIBounds(t *testing.T) {
	engine := newTechnicalEngine()

	up := engine.rsi(trendingCloses(100, 1, 50), 14)
	require.NotNil(t, up)
	assert.Equal(t, 100.0, *up)

	down := engine.rsi(trendingCloses(100, -1, 50), 14)
	require.NotNil(t, down)
	assert.GreaterOrEqual(t, *down, 0.0)
	assert.Less(t, *down, 1.0)

	assert.Nil(t, engine.rsi(flatCloses(100, 14), 14))
}

func TestTechnicalEngineMACDNeedsHistory(t *testing.T) {
	engine := newTechnicalEngine()

	short := engine.macd(flatCloses(100, 20))
	assert.Nil(t, short.Line)
	assert.Nil(t, short.Signal)

	long := engine.macd(flatCloses(100, 80))
	require.NotNil(t, long.Line)
	assert.Equal(t, 0.0, *long.Line)
	require.NotNil(t, long.Signal)
	assert.Equal(t, 0.0, *long.Signal)
	require.NotNil(t, long.Histogram)
	assert.Equal(t, 0.0, *long.Histogram)
}

func TestTechnicalEngineATR(t *testing.T) {
	engine := newTechnicalEngine()

	bars := priceBars(flatCloses(100, 40)...)
	atr := engine.atr(bars, 14)
	require.NotNil(t, atr)
	// Every bar spans 99..101, so the true range settles at 2.
	assert.InDelta(t, 2.0, *atr, 0.02)

	assert.Nil(t, engine.atr(priceBars(flatCloses(100, 14)...), 14))
}

func TestTechnicalEngineVolumeProfile(t *testing.T) {
	engine := newTechnicalEngine()

	profile := engine.volumeProfile(priceBars(flatCloses(100, 60)...))
	require.NotNil(t, profile.AvgVolume20)
	assert.Equal(t, int64(1_000_000), *profile.AvgVolume20)
	require.NotNil(t, profile.AvgVolume50)
	assert.Equal(t, "stable", profile.Trend)

	short := engine.volumeProfile(priceBars(flatCloses(100, 10)...))
	require.NotNil(t, short.AvgVolume20)
	assert.Nil(t, short.AvgVolume50)
	assert.Equal(t, "insufficient_data", short.Trend)

	empty := engine.volumeProfile(nil)
	assert.Nil(t, empty.AvgVolume20)
	assert.Equal(t, "unknown", empty.Trend)
}

func TestTechnicalEngineSupportResistance(t *testing.T) {
	engine := newTechnicalEngine()
	// Chronological 100..199, newest first; highs are close*1.01, lows *0.99.
	bars := priceBars(trendingCloses(100, 1, 100)...)

	sr := engine.supportResistance(bars)
	require.NotNil(t, sr.Resistance52W)
	assert.InDelta(t, 199*1.01, *sr.Resistance52W, 1e-6)
	require.NotNil(t, sr.Support52W)
	assert.InDelta(t, 100*0.99, *sr.Support52W, 1e-6)
	require.NotNil(t, sr.Resistance20D)
	assert.InDelta(t, 199*1.01, *sr.Resistance20D, 1e-6)
	require.NotNil(t, sr.Support20D)
	assert.InDelta(t, 180*0.99, *sr.Support20D, 1e-6)
}

func TestTechnicalEngineMomentum(t *testing.T) {
	engine := newTechnicalEngine()
	closes := trendingCloses(100, 1, 100) // newest 199

	m := engine.momentum(closes)
	require.NotNil(t, m.ROC5D)
	assert.InDelta(t, (199.0-194.0)/194.0*100, *m.ROC5D, 0.01)
	require.NotNil(t, m.ROC20D)
	require.NotNil(t, m.ROC60D)

	shortSeries := engine.momentum(trendingCloses(100, 1, 10))
	assert.NotNil(t, shortSeries.ROC5D)
	assert.Nil(t, shortSeries.ROC20D)
	assert.Nil(t, shortSeries.ROC60D)
}

func TestTechnicalEngineTrendSignals(t *testing.T) {
	engine := newTechnicalEngine()

	price := fptr(150.0)
	ma := models.MovingAverages{
		SMA50:  fptr(140.0),
		SMA200: fptr(120.0),
	}
	rsi := fptr(75.0)
	macd := models.MACDResult{Histogram: fptr(0.5)}

	signals := engine.trendSignals(price, ma, rsi, macd)
	require.Len(t, signals, 4)
	assert.Contains(t, signals[0], "Golden Cross")
	assert.Contains(t, signals[1], "Price above 200-day SMA")
	assert.Contains(t, signals[2], "RSI 75.00")
	assert.Contains(t, signals[2], "overbought")
	assert.Contains(t, signals[3], "bullish momentum")

	bearish := engine.trendSignals(fptr(100.0), models.MovingAverages{
		SMA50:  fptr(110.0),
		SMA200: fptr(120.0),
	}, fptr(25.0), models.MACDResult{Histogram: fptr(-0.5)})
	require.Len(t, bearish, 4)
	assert.Contains(t, bearish[0], "Death Cross")
	assert.Contains(t, bearish[2], "oversold")
	assert.Contains(t, bearish[3], "bearish momentum")
}

func TestTechnicalEngineDeterminism(t *testing.T) {
	engine := newTechnicalEngine()
	dataset := &models.RawDataset{
		Ticker: "DET",
		Prices: priceBars(trendingCloses(50, 0.5, 250)...),
	}

	first := engine.Compute(dataset)
	second := engine.Compute(dataset)
	assert.Equal(t, first, second)
}
