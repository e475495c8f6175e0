package services

import (
	"math"
	"sort"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

const tradingDaysPerYear = 252

// RiskEngine derives return-based risk statistics and a categorical rating
// from a price series. Each statistic has its own minimum-history gate and
// comes back nil below it.
type RiskEngine struct {
	riskFreeRate  float64
	varConfidence float64
	logger        *logrus.Logger
}

// NewRiskEngine creates a risk engine with the configured annual risk-free
// rate and VaR confidence level.
func NewRiskEngine(cfg config.AnalysisConfig, logger *logrus.Logger) *RiskEngine {
	return &RiskEngine{
		riskFreeRate:  cfg.RiskFreeRate,
		varConfidence: cfg.VaRConfidence,
		logger:        logger,
	}
}

// Compute runs the full risk assessment. Fewer than 30 usable closes marks
// the result errored with an unknown rating.
func (e *RiskEngine) Compute(dataset *models.RawDataset) models.RiskResult {
	closes := dataset.Closes()
	if len(closes) < 30 {
		e.logger.WithFields(logrus.Fields{
			"ticker": dataset.Ticker,
			"closes": len(closes),
		}).Warn("Insufficient price history for risk assessment")
		return models.RiskResult{
			RiskRating: models.RiskRatingUnknown,
			Error:      "insufficient price data for risk analysis",
		}
	}

	returns := dailyReturns(closes)

	daily, annual := e.volatility(returns)
	maxDD, maxDDPct := e.maxDrawdown(closes)
	beta := e.beta(dataset.Profile)

	histVaR, paramVaR := e.valueAtRisk(returns)

	result := models.RiskResult{
		DailyVolatility:    daily,
		AnnualVolatility:   annual,
		SharpeRatio:        e.sharpeRatio(returns),
		SortinoRatio:       e.sortinoRatio(returns),
		MaxDrawdown:        maxDD,
		MaxDrawdownPct:     maxDDPct,
		Beta:               beta,
		VaRHistorical95:    histVaR,
		VaRParametric95:    paramVaR,
		RiskAdjustedReturn: e.riskAdjustedReturn(closes, returns),
	}
	result.RiskRating = e.riskRating(annual, maxDDPct, beta)

	e.logger.WithFields(logrus.Fields{
		"ticker": dataset.Ticker,
		"rating": result.RiskRating,
	}).Info("Risk assessment complete")

	return result
}

// dailyReturns converts newest-first closes into chronological simple
// returns, skipping steps whose prior close is zero.
func dailyReturns(closes []float64) []float64 {
	ordered := reversed(closes)
	returns := make([]float64, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] == 0 {
			continue
		}
		returns = append(returns, (ordered[i]-ordered[i-1])/ordered[i-1])
	}
	return returns
}

func (e *RiskEngine) volatility(returns []float64) (daily, annual *float64) {
	if len(returns) < 20 {
		return nil, nil
	}
	dailyVol := sampleStd(returns)
	return fptr(roundTo(dailyVol, 6)), fptr(roundTo(dailyVol*math.Sqrt(tradingDaysPerYear), 4))
}

func (e *RiskEngine) sharpeRatio(returns []float64) *float64 {
	if len(returns) < 60 {
		return nil
	}
	meanDaily := mean(returns)
	stdDaily := sampleStd(returns)
	if stdDaily == 0 {
		return nil
	}
	dailyRF := e.riskFreeRate / tradingDaysPerYear
	sharpe := (meanDaily - dailyRF) / stdDaily * math.Sqrt(tradingDaysPerYear)
	return fptr(roundTo(sharpe, 3))
}

// sortinoRatio penalizes only downside deviation: the sample std of returns
// strictly below the daily risk-free rate.
func (e *RiskEngine) sortinoRatio(returns []float64) *float64 {
	if len(returns) < 60 {
		return nil
	}
	dailyRF := e.riskFreeRate / tradingDaysPerYear
	var downside []float64
	for _, r := range returns {
		if r < dailyRF {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return nil
	}
	downsideStd := sampleStd(downside)
	if downsideStd == 0 {
		return nil
	}
	sortino := (mean(returns) - dailyRF) / downsideStd * math.Sqrt(tradingDaysPerYear)
	return fptr(roundTo(sortino, 3))
}

// maxDrawdown is a single forward pass tracking the running peak over
// chronological closes.
func (e *RiskEngine) maxDrawdown(closes []float64) (dd, ddPct *float64) {
	if len(closes) < 5 {
		return nil, nil
	}
	ordered := reversed(closes)
	peak := ordered[0]
	maxDD := 0.0
	for _, price := range ordered[1:] {
		if price > peak {
			peak = price
		}
		if d := (peak - price) / peak; d > maxDD {
			maxDD = d
		}
	}
	return fptr(roundTo(maxDD, 4)), fptr(roundTo(maxDD*100, 2))
}

// beta passes through the provider's figure; no benchmark regression here.
func (e *RiskEngine) beta(profile *models.Profile) *float64 {
	if profile == nil || profile.Beta == nil {
		return nil
	}
	return fptr(roundTo(*profile.Beta, 3))
}

// valueAtRisk reports the historical percentile and the normal
// approximation, both as percentages.
func (e *RiskEngine) valueAtRisk(returns []float64) (historical, parametric *float64) {
	if len(returns) < 60 {
		return nil, nil
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	index := int((1 - e.varConfidence) * float64(len(sorted)))
	histVaR := sorted[index]

	meanR := mean(returns)
	stdR := sampleStd(returns)
	paramVaR := meanR - 1.645*stdR

	return fptr(roundTo(histVaR*100, 3)), fptr(roundTo(paramVaR*100, 3))
}

func (e *RiskEngine) riskAdjustedReturn(closes, returns []float64) *float64 {
	if len(closes) < tradingDaysPerYear || len(returns) < tradingDaysPerYear {
		return nil
	}
	ordered := reversed(closes)
	if ordered[0] == 0 {
		return nil
	}
	annualReturn := (ordered[len(ordered)-1] - ordered[0]) / ordered[0]
	annualVol := sampleStd(returns) * math.Sqrt(tradingDaysPerYear)
	if annualVol == 0 {
		return nil
	}
	return fptr(roundTo(annualReturn/annualVol, 3))
}

// riskRating accumulates an integer score from three independent threshold
// tables. The classifier is monotone in each input.
func (e *RiskEngine) riskRating(annualVol, maxDDPct, beta *float64) string {
	score := 0

	if annualVol != nil {
		switch {
		case *annualVol > 0.50:
			score += 3
		case *annualVol > 0.30:
			score += 2
		case *annualVol > 0.15:
			score += 1
		}
	}

	if maxDDPct != nil {
		switch {
		case *maxDDPct > 50:
			score += 3
		case *maxDDPct > 30:
			score += 2
		case *maxDDPct > 15:
			score += 1
		}
	}

	if beta != nil {
		switch {
		case *beta > 1.5:
			score += 2
		case *beta > 1.0:
			score += 1
		}
	}

	switch {
	case score >= 6:
		return models.RiskRatingVeryHigh
	case score >= 4:
		return models.RiskRatingHigh
	case score >= 2:
		return models.RiskRatingModerate
	default:
		return models.RiskRatingLow
	}
}
