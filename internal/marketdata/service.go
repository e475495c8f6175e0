package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is the subset of cache operations the dataset service needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// FinancialsProvider fetches statement histories.
type FinancialsProvider interface {
	GetFinancials(ctx context.Context, ticker string) (models.Financials, error)
	GetPriceHistory(ctx context.Context, ticker string) ([]models.PriceBar, error)
	GetProfile(ctx context.Context, ticker string) (*models.Profile, error)
}

// NewsProvider fetches recent news articles.
type NewsProvider interface {
	GetNews(ctx context.Context, ticker string) ([]models.NewsArticle, error)
}

// Service assembles the raw dataset one pipeline run consumes. Datasets are
// cached whole so repeated analyses of a ticker within the TTL reuse one
// provider round trip. Partial provider failures degrade to empty series;
// only the pipeline decides whether the result is usable.
type Service struct {
	market FinancialsProvider
	news   NewsProvider
	cache  Cache
	ttl    time.Duration
	logger *logrus.Logger
}

// NewService creates a dataset service.
func NewService(market FinancialsProvider, news NewsProvider, cache Cache, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		market: market,
		news:   news,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// FetchDataset returns the full dataset for a ticker, from cache when
// fresh. The ticker is normalized to upper case.
func (s *Service) FetchDataset(ctx context.Context, ticker string) (*models.RawDataset, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	cacheKey := "dataset:" + ticker

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var dataset models.RawDataset
			if err := json.Unmarshal([]byte(cached), &dataset); err == nil {
				s.logger.WithField("ticker", ticker).Debug("Dataset cache hit")
				return &dataset, nil
			}
			s.logger.WithField("ticker", ticker).Warn("Discarding unreadable cached dataset")
		} else if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).Warn("Dataset cache read failed")
		}
	}

	s.logger.WithField("ticker", ticker).Info("Gathering raw data")

	dataset := &models.RawDataset{
		Ticker:    ticker,
		FetchedAt: time.Now().UTC(),
	}

	financials, err := s.market.GetFinancials(ctx, ticker)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch financial statements")
	} else {
		dataset.Financials = financials
	}

	prices, err := s.market.GetPriceHistory(ctx, ticker)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch price history")
	} else {
		dataset.Prices = prices
	}

	profile, err := s.market.GetProfile(ctx, ticker)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch company profile")
	} else {
		dataset.Profile = profile
	}

	articles, err := s.news.GetNews(ctx, ticker)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch news")
	} else {
		dataset.News = articles
	}

	s.logger.WithFields(logrus.Fields{
		"ticker":        ticker,
		"profile_found": dataset.Profile != nil,
		"prices":        len(dataset.Prices),
		"news":          len(dataset.News),
	}).Info("Data gathering complete")

	if s.cache != nil && dataset.Profile != nil {
		if payload, err := json.Marshal(dataset); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl); err != nil {
				s.logger.WithError(err).Warn("Dataset cache write failed")
			}
		}
	}

	return dataset, nil
}
