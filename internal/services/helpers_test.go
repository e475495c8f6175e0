package services

import (
	"fmt"
	"io"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		RiskFreeRate:        0.04,
		MarketReturn:        0.08,
		PerpetualGrowthRate: 0.025,
		DefaultTaxRate:      0.21,
		FCFGrowthMin:        -0.20,
		FCFGrowthMax:        0.30,
		FCFDefaultGrowth:    0.05,
		ProjectionYears:     5,
		VaRConfidence:       0.95,
		SentimentThreshold:  0.05,
		ChartPricePoints:    180,
	}
}

// priceBars builds daily bars from newest-first closes. Highs and lows are
// offset from the close so range-based indicators have real spreads.
func priceBars(closes ...float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:   fmt.Sprintf("2025-%02d-%02d", 1+(len(closes)-i)/28, 1+(len(closes)-i)%28),
			Open:   decimal.NewFromFloat(c),
			High:   decimal.NewFromFloat(c * 1.01),
			Low:    decimal.NewFromFloat(c * 0.99),
			Close:  decimal.NewFromFloat(c),
			Volume: decimal.NewFromInt(1_000_000),
		}
	}
	return bars
}

// flatCloses returns count copies of price, newest first.
func flatCloses(price float64, count int) []float64 {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

// trendingCloses returns a series that increases chronologically by step,
// delivered newest first.
func trendingCloses(start, step float64, count int) []float64 {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = start + step*float64(count-1-i)
	}
	return closes
}
