package services

import (
	"math"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Named valuation failure reasons. Callers match on these instead of
// inferring the failure from absent values.
const (
	errWACCUnavailable   = "could not calculate WACC"
	errFCFUnavailable    = "could not project free cash flow"
	errWACCBelowGrowth   = "WACC must exceed the perpetual growth rate"
	errSharesUnavailable = "shares outstanding not available"
)

// ValuationEngine produces a discounted-cash-flow intrinsic value per
// share. The result is either fully populated or carries one of the named
// errors, never a partial mix.
type ValuationEngine struct {
	riskFreeRate        float64
	marketReturn        float64
	perpetualGrowthRate float64
	defaultTaxRate      float64
	growthMin           float64
	growthMax           float64
	defaultGrowth       float64
	projectionYears     int
	logger              *logrus.Logger
}

// NewValuationEngine creates a valuation engine from the analysis tunables.
func NewValuationEngine(cfg config.AnalysisConfig, logger *logrus.Logger) *ValuationEngine {
	return &ValuationEngine{
		riskFreeRate:        cfg.RiskFreeRate,
		marketReturn:        cfg.MarketReturn,
		perpetualGrowthRate: cfg.PerpetualGrowthRate,
		defaultTaxRate:      cfg.DefaultTaxRate,
		growthMin:           cfg.FCFGrowthMin,
		growthMax:           cfg.FCFGrowthMax,
		defaultGrowth:       cfg.FCFDefaultGrowth,
		projectionYears:     cfg.ProjectionYears,
		logger:              logger,
	}
}

// Compute runs the DCF: WACC, a five-year FCF projection, a Gordon-growth
// terminal value, and the per-share division.
func (e *ValuationEngine) Compute(dataset *models.RawDataset) models.ValuationResult {
	wacc := e.wacc(dataset)
	if wacc == nil {
		return models.ValuationResult{Error: errWACCUnavailable}
	}

	projected, latestFCF := e.projectFreeCashFlow(dataset.Financials.CashFlowStatements)
	if projected == nil {
		return models.ValuationResult{Error: errFCFUnavailable}
	}

	if *wacc <= e.perpetualGrowthRate {
		e.logger.WithFields(logrus.Fields{
			"ticker": dataset.Ticker,
			"wacc":   *wacc,
			"growth": e.perpetualGrowthRate,
		}).Warn("WACC does not exceed perpetual growth rate")
		return models.ValuationResult{Error: errWACCBelowGrowth}
	}

	var dcfSum float64
	for i, fcf := range projected {
		dcfSum += fcf / math.Pow(1+*wacc, float64(i+1))
	}

	terminalValue := projected[len(projected)-1] * (1 + e.perpetualGrowthRate) / (*wacc - e.perpetualGrowthRate)
	discountedTerminal := terminalValue / math.Pow(1+*wacc, float64(len(projected)))
	intrinsicValue := dcfSum + discountedTerminal

	shares := e.sharesOutstanding(dataset)
	if shares == nil {
		return models.ValuationResult{Error: errSharesUnavailable}
	}

	perShare := intrinsicValue / *shares

	e.logger.WithFields(logrus.Fields{
		"ticker":              dataset.Ticker,
		"wacc":                *wacc,
		"intrinsic_per_share": perShare,
	}).Info("Valuation complete")

	return models.ValuationResult{
		IntrinsicValuePerShare: fptr(perShare),
		WACC:                   wacc,
		LatestFCF:              latestFCF,
	}
}

// wacc weights CAPM cost of equity and the after-tax cost of debt by
// market-value capital structure. Missing or zero beta, market cap, total
// debt, or interest expense makes it undefined.
func (e *ValuationEngine) wacc(dataset *models.RawDataset) *float64 {
	if dataset.Profile == nil {
		return nil
	}
	beta := dataset.Profile.Beta
	marketCap := dataset.Profile.MarketCap

	balance := statementAt(dataset.Financials.BalanceSheets, 0)
	income := statementAt(dataset.Financials.IncomeStatements, 0)
	if balance == nil || income == nil {
		return nil
	}

	totalDebt := balance.TotalDebt
	interestExpense := income.InterestExpense

	if beta == nil || *beta == 0 ||
		marketCap == nil || *marketCap == 0 ||
		totalDebt == nil || *totalDebt == 0 ||
		interestExpense == nil || *interestExpense == 0 {
		return nil
	}

	costOfEquity := e.riskFreeRate + *beta*(e.marketReturn-e.riskFreeRate)

	taxRate := e.defaultTaxRate
	if income.IncomeBeforeTax != nil && *income.IncomeBeforeTax != 0 {
		taxRate = orZero(income.IncomeTaxExpense) / *income.IncomeBeforeTax
	}
	costOfDebt := *interestExpense / *totalDebt
	afterTaxCostOfDebt := costOfDebt * (1 - taxRate)

	totalCapital := *marketCap + *totalDebt
	if totalCapital == 0 {
		return nil
	}

	wacc := (*marketCap/totalCapital)*costOfEquity + (*totalDebt/totalCapital)*afterTaxCostOfDebt
	return fptr(wacc)
}

// projectFreeCashFlow compounds the latest FCF forward at the average
// historical growth rate, clamped to the configured band. No usable latest
// FCF means no projection.
func (e *ValuationEngine) projectFreeCashFlow(cashFlows []models.CashFlowStatement) (projected []float64, latest *float64) {
	first := statementAt(cashFlows, 0)
	if first == nil || first.FreeCashFlow == nil || *first.FreeCashFlow == 0 {
		return nil, nil
	}
	latestFCF := *first.FreeCashFlow

	history := make([]float64, 0, 5)
	for i := 0; i < len(cashFlows) && i < 5; i++ {
		history = append(history, orZero(cashFlows[i].FreeCashFlow))
	}

	var growthRates []float64
	for i := 0; i < len(history)-1; i++ {
		if history[i+1] == 0 {
			continue
		}
		growthRates = append(growthRates, (history[i]-history[i+1])/history[i+1])
	}

	growth := e.defaultGrowth
	if len(growthRates) > 0 {
		growth = mean(growthRates)
	}
	growth = math.Min(math.Max(growth, e.growthMin), e.growthMax)

	projected = make([]float64, 0, e.projectionYears)
	for i := 1; i <= e.projectionYears; i++ {
		projected = append(projected, latestFCF*math.Pow(1+growth, float64(i)))
	}
	return projected, fptr(latestFCF)
}

// sharesOutstanding prefers the profile figure, falling back to the latest
// weighted-average share count from the income statement.
func (e *ValuationEngine) sharesOutstanding(dataset *models.RawDataset) *float64 {
	if dataset.Profile != nil && dataset.Profile.SharesOutstanding != nil && *dataset.Profile.SharesOutstanding != 0 {
		return dataset.Profile.SharesOutstanding
	}
	if income := statementAt(dataset.Financials.IncomeStatements, 0); income != nil {
		if income.WeightedAverageShsOut != nil && *income.WeightedAverageShsOut != 0 {
			return income.WeightedAverageShsOut
		}
	}
	return nil
}
