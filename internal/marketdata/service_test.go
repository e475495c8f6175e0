package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/finsight/finsight-go/internal/database"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMarket struct {
	financials    models.Financials
	prices        []models.PriceBar
	profile       *models.Profile
	financialsErr error
	pricesErr     error
	profileErr    error
	calls         int
}

func (m *stubMarket) GetFinancials(ctx context.Context, ticker string) (models.Financials, error) {
	m.calls++
	return m.financials, m.financialsErr
}

func (m *stubMarket) GetPriceHistory(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	return m.prices, m.pricesErr
}

func (m *stubMarket) GetProfile(ctx context.Context, ticker string) (*models.Profile, error) {
	return m.profile, m.profileErr
}

type stubNews struct {
	articles []models.NewsArticle
	err      error
}

func (n *stubNews) GetNews(ctx context.Context, ticker string) ([]models.NewsArticle, error) {
	return n.articles, n.err
}

func testCache(t *testing.T) *database.RedisClient {
	t.Helper()
	mini := miniredis.RunT(t)
	return &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mini.Addr()}),
	}
}

func profileFixture() *models.Profile {
	beta := 1.1
	return &models.Profile{CompanyName: "Acme Corp", Beta: &beta}
}

func TestServiceFetchDatasetNormalizesTicker(t *testing.T) {
	market := &stubMarket{profile: profileFixture()}
	service := NewService(market, &stubNews{}, nil, time.Minute, testLogger())

	dataset, err := service.FetchDataset(context.Background(), "  acme ")
	require.NoError(t, err)
	assert.Equal(t, "ACME", dataset.Ticker)
	assert.False(t, dataset.FetchedAt.IsZero())
}

func TestServiceFetchDatasetCachesCompleteResults(t *testing.T) {
	cache := testCache(t)
	market := &stubMarket{profile: profileFixture()}
	service := NewService(market, &stubNews{}, cache, time.Minute, testLogger())

	first, err := service.FetchDataset(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, first.Profile)
	assert.Equal(t, 1, market.calls)

	// Second fetch is served from cache without touching the provider.
	second, err := service.FetchDataset(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1, market.calls)
	assert.Equal(t, first.Ticker, second.Ticker)
	require.NotNil(t, second.Profile)
	assert.Equal(t, "Acme Corp", second.Profile.CompanyName)

	cached, err := cache.Get(context.Background(), "dataset:ACME")
	require.NoError(t, err)
	var stored models.RawDataset
	require.NoError(t, json.Unmarshal([]byte(cached), &stored))
	assert.Equal(t, "ACME", stored.Ticker)
}

func TestServiceFetchDatasetSkipsCacheWithoutProfile(t *testing.T) {
	cache := testCache(t)
	market := &stubMarket{profile: nil}
	service := NewService(market, &stubNews{}, cache, time.Minute, testLogger())

	dataset, err := service.FetchDataset(context.Background(), "GHOST")
	require.NoError(t, err)
	assert.Nil(t, dataset.Profile)

	_, err = cache.Get(context.Background(), "dataset:GHOST")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestServiceFetchDatasetDegradesOnPartialFailures(t *testing.T) {
	market := &stubMarket{
		profile:       profileFixture(),
		financialsErr: errors.New("statements down"),
		pricesErr:     errors.New("prices down"),
	}
	news := &stubNews{err: errors.New("news down")}
	service := NewService(market, news, nil, time.Minute, testLogger())

	dataset, err := service.FetchDataset(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, dataset.Profile)
	assert.Empty(t, dataset.Prices)
	assert.Empty(t, dataset.News)
	assert.Empty(t, dataset.Financials.IncomeStatements)
}

func TestServiceFetchDatasetDiscardsCorruptCacheEntry(t *testing.T) {
	cache := testCache(t)
	require.NoError(t, cache.Set(context.Background(), "dataset:ACME", "not json", time.Minute))

	market := &stubMarket{profile: profileFixture()}
	service := NewService(market, &stubNews{}, cache, time.Minute, testLogger())

	dataset, err := service.FetchDataset(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, dataset.Profile)
	assert.Equal(t, 1, market.calls)
}
