package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawDataset is everything the pipeline knows about a ticker at the start of
// a run. All time series are ordered newest first (index 0 = most recent);
// every engine depends on that ordering. A dataset is owned by exactly one
// pipeline run and is never mutated after assembly.
type RawDataset struct {
	Ticker     string        `json:"ticker"`
	Financials Financials    `json:"financials"`
	Prices     []PriceBar    `json:"prices"`
	Profile    *Profile      `json:"profile,omitempty"`
	News       []NewsArticle `json:"news"`
	FetchedAt  time.Time     `json:"fetched_at"`
}

// Financials groups the three statement histories, each newest first.
type Financials struct {
	IncomeStatements   []IncomeStatement   `json:"income_statements"`
	BalanceSheets      []BalanceSheet      `json:"balance_sheets"`
	CashFlowStatements []CashFlowStatement `json:"cash_flow_statements"`
}

// PriceBar is one daily OHLCV record as delivered by the market data
// provider. Values stay decimal at the boundary; engines convert to float64
// once per run.
type PriceBar struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// IncomeStatement holds the income-statement fields the engines read.
// A nil field means the provider did not report a value; zero is a real
// reported number, never a placeholder.
type IncomeStatement struct {
	Date                  string   `json:"date"`
	Revenue               *float64 `json:"revenue"`
	CostOfRevenue         *float64 `json:"cost_of_revenue"`
	GrossProfit           *float64 `json:"gross_profit"`
	OperatingIncome       *float64 `json:"operating_income"`
	NetIncome             *float64 `json:"net_income"`
	EPS                   *float64 `json:"eps"`
	EBITDA                *float64 `json:"ebitda"`
	InterestExpense       *float64 `json:"interest_expense"`
	IncomeTaxExpense      *float64 `json:"income_tax_expense"`
	IncomeBeforeTax       *float64 `json:"income_before_tax"`
	WeightedAverageShsOut *float64 `json:"weighted_average_shs_out"`
}

type BalanceSheet struct {
	Date                    string   `json:"date"`
	TotalAssets             *float64 `json:"total_assets"`
	TotalCurrentAssets      *float64 `json:"total_current_assets"`
	TotalCurrentLiabilities *float64 `json:"total_current_liabilities"`
	Inventory               *float64 `json:"inventory"`
	TotalDebt               *float64 `json:"total_debt"`
	CashAndCashEquivalents  *float64 `json:"cash_and_cash_equivalents"`
	TotalStockholdersEquity *float64 `json:"total_stockholders_equity"`
	TotalEquity             *float64 `json:"total_equity"`
}

type CashFlowStatement struct {
	Date                string   `json:"date"`
	OperatingCashFlow   *float64 `json:"operating_cash_flow"`
	FreeCashFlow        *float64 `json:"free_cash_flow"`
	CommonDividendsPaid *float64 `json:"common_dividends_paid"`
}

// Profile is the provider's company profile record. Its presence is the
// pipeline's only ticker-existence check.
type Profile struct {
	CompanyName       string   `json:"company_name"`
	Sector            string   `json:"sector"`
	Industry          string   `json:"industry"`
	Price             *float64 `json:"price"`
	Beta              *float64 `json:"beta"`
	MarketCap         *float64 `json:"market_cap"`
	SharesOutstanding *float64 `json:"shares_outstanding"`
	LastDividend      *float64 `json:"last_dividend"`
}

// NewsArticle is one article from the news provider.
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// Closes extracts non-zero closing prices as float64, preserving the
// newest-first ordering. Zero closes are provider gaps and are skipped.
func (d *RawDataset) Closes() []float64 {
	closes := make([]float64, 0, len(d.Prices))
	for _, p := range d.Prices {
		if c := p.Close.InexactFloat64(); c != 0 {
			closes = append(closes, c)
		}
	}
	return closes
}
