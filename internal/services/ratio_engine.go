package services

import (
	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

// RatioEngine derives the eight fundamental metric groups from raw
// financial statements and the latest price point. Compute is a pure
// function of the dataset: the engine holds no state between runs and never
// mutates its input.
type RatioEngine struct {
	defaultTaxRate float64
	logger         *logrus.Logger
}

// NewRatioEngine creates a ratio engine with the configured tax fallback.
func NewRatioEngine(cfg config.AnalysisConfig, logger *logrus.Logger) *RatioEngine {
	return &RatioEngine{
		defaultTaxRate: cfg.DefaultTaxRate,
		logger:         logger,
	}
}

// Compute builds every metric group. Each metric reads at most the two most
// recent statement periods; a nil metric means its inputs were unavailable.
func (e *RatioEngine) Compute(dataset *models.RawDataset) models.MetricGroups {
	income := dataset.Financials.IncomeStatements
	balance := dataset.Financials.BalanceSheets
	cashFlow := dataset.Financials.CashFlowStatements
	profile := dataset.Profile

	var currentPrice *float64
	if len(dataset.Prices) > 0 {
		currentPrice = fptr(dataset.Prices[0].Close.InexactFloat64())
	}

	groups := models.MetricGroups{
		Valuation:     e.valuationMetrics(currentPrice, income, balance, profile),
		Profitability: e.profitabilityMetrics(income, balance),
		Liquidity:     e.liquidityMetrics(balance),
		Leverage:      e.leverageMetrics(balance, income),
		Efficiency:    e.efficiencyMetrics(income, balance),
		Growth:        e.growthMetrics(income),
		CashFlow:      e.cashFlowMetrics(cashFlow, income, profile),
		Dividends:     e.dividendMetrics(cashFlow, income, profile),
	}

	e.logger.WithFields(logrus.Fields{
		"ticker": dataset.Ticker,
	}).Info("Financial metrics calculated")

	return groups
}

func (e *RatioEngine) valuationMetrics(
	currentPrice *float64,
	income []models.IncomeStatement,
	balance []models.BalanceSheet,
	profile *models.Profile,
) models.ValuationMetrics {
	latestIncome := statementAt(income, 0)
	prevIncome := statementAt(income, 1)
	latestBalance := statementAt(balance, 0)

	var eps, ebitda, revenue, shares *float64
	if latestIncome != nil {
		eps = latestIncome.EPS
		ebitda = latestIncome.EBITDA
		revenue = latestIncome.Revenue
		shares = latestIncome.WeightedAverageShsOut
	}

	pe := safeDivide(currentPrice, eps)

	// Book value per share
	var equity *float64
	if latestBalance != nil {
		equity = latestBalance.TotalStockholdersEquity
	}
	bvps := safeDivide(equity, shares)
	pb := safeDivide(currentPrice, bvps)

	// Price to sales via revenue per share
	rps := safeDivide(revenue, shares)
	ps := safeDivide(currentPrice, rps)

	// Enterprise value = market cap + total debt − cash; undefined without
	// a market cap.
	var ev *float64
	if profile != nil && profile.MarketCap != nil {
		totalDebt, cash := 0.0, 0.0
		if latestBalance != nil {
			totalDebt = orZero(latestBalance.TotalDebt)
			cash = orZero(latestBalance.CashAndCashEquivalents)
		}
		ev = fptr(*profile.MarketCap + totalDebt - cash)
	}
	evEBITDA := safeDivide(ev, ebitda)

	// PEG only makes sense against strictly positive EPS growth.
	var peg *float64
	var prevEPS *float64
	if prevIncome != nil {
		prevEPS = prevIncome.EPS
	}
	if epsGrowth := growthRate(eps, prevEPS); epsGrowth != nil && *epsGrowth > 0 {
		peg = safeDivide(pe, fptr(*epsGrowth * 100))
	}

	return models.ValuationMetrics{
		PERatio:  roundPtr(pe, 2),
		PBRatio:  roundPtr(pb, 2),
		PSRatio:  roundPtr(ps, 2),
		EVEBITDA: roundPtr(evEBITDA, 2),
		PEGRatio: roundPtr(peg, 2),
	}
}

func (e *RatioEngine) profitabilityMetrics(
	income []models.IncomeStatement,
	balance []models.BalanceSheet,
) models.ProfitabilityMetrics {
	latestIncome := statementAt(income, 0)
	latestBalance := statementAt(balance, 0)
	if latestIncome == nil {
		return models.ProfitabilityMetrics{}
	}

	revenue := latestIncome.Revenue
	netIncome := latestIncome.NetIncome

	var totalAssets, equity *float64
	if latestBalance != nil {
		totalAssets = latestBalance.TotalAssets
		equity = latestBalance.TotalStockholdersEquity
	}

	// ROIC = NOPAT / invested capital
	var nopat *float64
	if latestIncome.OperatingIncome != nil {
		taxRate := e.effectiveTaxRate(latestIncome)
		nopat = fptr(*latestIncome.OperatingIncome * (1 - taxRate))
	}
	var investedCapital *float64
	if equity != nil && latestBalance != nil {
		investedCapital = fptr(*equity + orZero(latestBalance.TotalDebt) - orZero(latestBalance.CashAndCashEquivalents))
	}
	roic := safeDivide(nopat, investedCapital)

	return models.ProfitabilityMetrics{
		GrossMargin:     safeDivide(latestIncome.GrossProfit, revenue),
		OperatingMargin: safeDivide(latestIncome.OperatingIncome, revenue),
		NetMargin:       safeDivide(netIncome, revenue),
		ROE:             safeDivide(netIncome, equity),
		ROA:             safeDivide(netIncome, totalAssets),
		ROIC:            roundPtr(roic, 4),
	}
}

// effectiveTaxRate approximates the tax rate from the latest statement,
// falling back to the configured default when pre-tax income is unknown or
// zero.
func (e *RatioEngine) effectiveTaxRate(stmt *models.IncomeStatement) float64 {
	if stmt.IncomeBeforeTax == nil || *stmt.IncomeBeforeTax == 0 {
		return e.defaultTaxRate
	}
	return orZero(stmt.IncomeTaxExpense) / *stmt.IncomeBeforeTax
}

func (e *RatioEngine) liquidityMetrics(balance []models.BalanceSheet) models.LiquidityMetrics {
	latest := statementAt(balance, 0)
	if latest == nil {
		return models.LiquidityMetrics{}
	}

	var quickAssets *float64
	if latest.TotalCurrentAssets != nil {
		quickAssets = fptr(*latest.TotalCurrentAssets - orZero(latest.Inventory))
	}

	return models.LiquidityMetrics{
		CurrentRatio: safeDivide(latest.TotalCurrentAssets, latest.TotalCurrentLiabilities),
		QuickRatio:   safeDivide(quickAssets, latest.TotalCurrentLiabilities),
	}
}

func (e *RatioEngine) leverageMetrics(
	balance []models.BalanceSheet,
	income []models.IncomeStatement,
) models.LeverageMetrics {
	latestBalance := statementAt(balance, 0)
	latestIncome := statementAt(income, 0)

	result := models.LeverageMetrics{}
	if latestBalance != nil {
		result.DERatio = safeDivide(latestBalance.TotalDebt, latestBalance.TotalEquity)
	}
	if latestIncome != nil && latestIncome.InterestExpense != nil && *latestIncome.InterestExpense != 0 {
		result.InterestCoverage = safeDivide(latestIncome.OperatingIncome, latestIncome.InterestExpense)
	}
	return result
}

func (e *RatioEngine) efficiencyMetrics(
	income []models.IncomeStatement,
	balance []models.BalanceSheet,
) models.EfficiencyMetrics {
	latestIncome := statementAt(income, 0)
	latestBalance := statementAt(balance, 0)
	if latestIncome == nil || latestBalance == nil {
		return models.EfficiencyMetrics{}
	}

	return models.EfficiencyMetrics{
		AssetTurnover:     safeDivide(latestIncome.Revenue, latestBalance.TotalAssets),
		InventoryTurnover: safeDivide(latestIncome.CostOfRevenue, latestBalance.Inventory),
	}
}

func (e *RatioEngine) growthMetrics(income []models.IncomeStatement) models.GrowthMetrics {
	latest := statementAt(income, 0)
	prev := statementAt(income, 1)
	if latest == nil || prev == nil {
		return models.GrowthMetrics{}
	}

	return models.GrowthMetrics{
		RevenueGrowth:   growthRate(latest.Revenue, prev.Revenue),
		NetIncomeGrowth: growthRate(latest.NetIncome, prev.NetIncome),
		EPSGrowth:       growthRate(latest.EPS, prev.EPS),
	}
}

func (e *RatioEngine) cashFlowMetrics(
	cashFlow []models.CashFlowStatement,
	income []models.IncomeStatement,
	profile *models.Profile,
) models.CashFlowMetrics {
	latestCF := statementAt(cashFlow, 0)
	latestIncome := statementAt(income, 0)
	if latestCF == nil {
		return models.CashFlowMetrics{}
	}

	var netIncome, shares *float64
	if latestIncome != nil {
		netIncome = latestIncome.NetIncome
		shares = latestIncome.WeightedAverageShsOut
	}
	var marketCap *float64
	if profile != nil {
		marketCap = profile.MarketCap
	}

	return models.CashFlowMetrics{
		FCFYield:       safeDivide(latestCF.FreeCashFlow, marketCap),
		FCFPerShare:    safeDivide(latestCF.FreeCashFlow, shares),
		OCFToNetIncome: safeDivide(latestCF.OperatingCashFlow, netIncome),
	}
}

func (e *RatioEngine) dividendMetrics(
	cashFlow []models.CashFlowStatement,
	income []models.IncomeStatement,
	profile *models.Profile,
) models.DividendMetrics {
	result := models.DividendMetrics{}

	latestCF := statementAt(cashFlow, 0)
	latestIncome := statementAt(income, 0)

	var dividendsPaid float64
	if latestCF != nil && latestCF.CommonDividendsPaid != nil {
		// Reported as a cash outflow (negative); use the magnitude.
		if *latestCF.CommonDividendsPaid < 0 {
			dividendsPaid = -*latestCF.CommonDividendsPaid
		} else {
			dividendsPaid = *latestCF.CommonDividendsPaid
		}
	}
	if dividendsPaid != 0 && latestIncome != nil {
		result.PayoutRatio = safeDivide(fptr(dividendsPaid), latestIncome.NetIncome)
	}

	if profile != nil && profile.LastDividend != nil && *profile.LastDividend != 0 {
		result.DividendYield = safeDivide(profile.LastDividend, profile.Price)
	}

	return result
}
