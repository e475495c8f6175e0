package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Client talks to the market data provider's stable REST API. Endpoints
// take the ticker as a query parameter and return flat JSON arrays with the
// newest period first.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// NewClient creates a market data client from configuration.
func NewClient(cfg config.MarketDataConfig, logger *logrus.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// incomeStatementRecord mirrors the provider's income statement fields the
// engines read. Pointers keep "not reported" distinct from zero.
type incomeStatementRecord struct {
	Date                  string   `json:"date"`
	Revenue               *float64 `json:"revenue"`
	CostOfRevenue         *float64 `json:"costOfRevenue"`
	GrossProfit           *float64 `json:"grossProfit"`
	OperatingIncome       *float64 `json:"operatingIncome"`
	NetIncome             *float64 `json:"netIncome"`
	EPS                   *float64 `json:"eps"`
	EBITDA                *float64 `json:"ebitda"`
	InterestExpense       *float64 `json:"interestExpense"`
	IncomeTaxExpense      *float64 `json:"incomeTaxExpense"`
	IncomeBeforeTax       *float64 `json:"incomeBeforeTax"`
	WeightedAverageShsOut *float64 `json:"weightedAverageShsOut"`
}

type balanceSheetRecord struct {
	Date                    string   `json:"date"`
	TotalAssets             *float64 `json:"totalAssets"`
	TotalCurrentAssets      *float64 `json:"totalCurrentAssets"`
	TotalCurrentLiabilities *float64 `json:"totalCurrentLiabilities"`
	Inventory               *float64 `json:"inventory"`
	TotalDebt               *float64 `json:"totalDebt"`
	CashAndCashEquivalents  *float64 `json:"cashAndCashEquivalents"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
	TotalEquity             *float64 `json:"totalEquity"`
}

type cashFlowRecord struct {
	Date                string   `json:"date"`
	OperatingCashFlow   *float64 `json:"operatingCashFlow"`
	FreeCashFlow        *float64 `json:"freeCashFlow"`
	CommonDividendsPaid *float64 `json:"commonDividendsPaid"`
}

type profileRecord struct {
	CompanyName       string   `json:"companyName"`
	Sector            string   `json:"sector"`
	Industry          string   `json:"industry"`
	Price             *float64 `json:"price"`
	Beta              *float64 `json:"beta"`
	MarketCap         *float64 `json:"marketCap"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
	LastDividend      *float64 `json:"lastDividend"`
}

// GetFinancials fetches the three statement histories for a ticker.
func (c *Client) GetFinancials(ctx context.Context, ticker string) (models.Financials, error) {
	var income []incomeStatementRecord
	if err := c.get(ctx, "/income-statement", ticker, &income); err != nil {
		return models.Financials{}, fmt.Errorf("income statements: %w", err)
	}
	var balance []balanceSheetRecord
	if err := c.get(ctx, "/balance-sheet-statement", ticker, &balance); err != nil {
		return models.Financials{}, fmt.Errorf("balance sheets: %w", err)
	}
	var cashFlow []cashFlowRecord
	if err := c.get(ctx, "/cash-flow-statement", ticker, &cashFlow); err != nil {
		return models.Financials{}, fmt.Errorf("cash flow statements: %w", err)
	}

	financials := models.Financials{
		IncomeStatements:   make([]models.IncomeStatement, 0, len(income)),
		BalanceSheets:      make([]models.BalanceSheet, 0, len(balance)),
		CashFlowStatements: make([]models.CashFlowStatement, 0, len(cashFlow)),
	}
	for _, r := range income {
		financials.IncomeStatements = append(financials.IncomeStatements, models.IncomeStatement{
			Date:                  r.Date,
			Revenue:               r.Revenue,
			CostOfRevenue:         r.CostOfRevenue,
			GrossProfit:           r.GrossProfit,
			OperatingIncome:       r.OperatingIncome,
			NetIncome:             r.NetIncome,
			EPS:                   r.EPS,
			EBITDA:                r.EBITDA,
			InterestExpense:       r.InterestExpense,
			IncomeTaxExpense:      r.IncomeTaxExpense,
			IncomeBeforeTax:       r.IncomeBeforeTax,
			WeightedAverageShsOut: r.WeightedAverageShsOut,
		})
	}
	for _, r := range balance {
		financials.BalanceSheets = append(financials.BalanceSheets, models.BalanceSheet{
			Date:                    r.Date,
			TotalAssets:             r.TotalAssets,
			TotalCurrentAssets:      r.TotalCurrentAssets,
			TotalCurrentLiabilities: r.TotalCurrentLiabilities,
			Inventory:               r.Inventory,
			TotalDebt:               r.TotalDebt,
			CashAndCashEquivalents:  r.CashAndCashEquivalents,
			TotalStockholdersEquity: r.TotalStockholdersEquity,
			TotalEquity:             r.TotalEquity,
		})
	}
	for _, r := range cashFlow {
		financials.CashFlowStatements = append(financials.CashFlowStatements, models.CashFlowStatement{
			Date:                r.Date,
			OperatingCashFlow:   r.OperatingCashFlow,
			FreeCashFlow:        r.FreeCashFlow,
			CommonDividendsPaid: r.CommonDividendsPaid,
		})
	}
	return financials, nil
}

// GetPriceHistory fetches daily OHLCV bars, newest first.
func (c *Client) GetPriceHistory(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	if err := c.get(ctx, "/historical-price-eod/full", ticker, &bars); err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}
	return bars, nil
}

// GetProfile fetches the company profile. The provider wraps the single
// record in an array; an empty array means the ticker is unknown.
func (c *Client) GetProfile(ctx context.Context, ticker string) (*models.Profile, error) {
	var records []profileRecord
	if err := c.get(ctx, "/profile", ticker, &records); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	r := records[0]
	return &models.Profile{
		CompanyName:       r.CompanyName,
		Sector:            r.Sector,
		Industry:          r.Industry,
		Price:             r.Price,
		Beta:              r.Beta,
		MarketCap:         r.MarketCap,
		SharesOutstanding: r.SharesOutstanding,
		LastDividend:      r.LastDividend,
	}, nil
}

func (c *Client) get(ctx context.Context, path, ticker string, result interface{}) error {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("apikey", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Warn("Error closing response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("market data API error (%d): %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
