package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadClean(t)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 2, cfg.Database.MinConns)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "https://financialmodelingprep.com/stable", cfg.MarketData.BaseURL)
	assert.Equal(t, "https://newsapi.org/v2", cfg.News.BaseURL)
	assert.Equal(t, 20, cfg.News.PageSize)

	assert.Equal(t, 0.04, cfg.Analysis.RiskFreeRate)
	assert.Equal(t, 0.08, cfg.Analysis.MarketReturn)
	assert.Equal(t, 0.025, cfg.Analysis.PerpetualGrowthRate)
	assert.Equal(t, 0.21, cfg.Analysis.DefaultTaxRate)
	assert.Equal(t, -0.20, cfg.Analysis.FCFGrowthMin)
	assert.Equal(t, 0.30, cfg.Analysis.FCFGrowthMax)
	assert.Equal(t, 5, cfg.Analysis.ProjectionYears)
	assert.Equal(t, 0.95, cfg.Analysis.VaRConfidence)
	assert.Equal(t, 180, cfg.Analysis.ChartPricePoints)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MARKET_DATA_API_KEY", "secret-fmp")
	t.Setenv("NEWS_API_KEY", "secret-news")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENVIRONMENT", "Production")

	cfg, err := loadClean(t)
	require.NoError(t, err)

	assert.Equal(t, "secret-fmp", cfg.MarketData.APIKey)
	assert.Equal(t, "secret-news", cfg.News.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Environment is normalized to lower case.
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadRejectsInvalidCacheTTL(t *testing.T) {
	t.Setenv("MARKET_DATA_CACHE_TTL", "soon")

	_, err := loadClean(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid market data cache TTL")
}

func TestLoadRejectsGrowthAboveMarketReturn(t *testing.T) {
	t.Setenv("ANALYSIS_PERPETUAL_GROWTH_RATE", "0.09")

	_, err := loadClean(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be below market return")
}

func TestLoadRejectsVaRConfidenceOutOfRange(t *testing.T) {
	for _, value := range []string{"0", "1", "1.5"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("ANALYSIS_VAR_CONFIDENCE", value)
			viper.Reset()
			defer viper.Reset()

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "var confidence must be in (0, 1)")
		})
	}
}

func TestLoadRejectsInvertedPoolSizing(t *testing.T) {
	t.Setenv("DATABASE_MAX_CONNS", "1")
	t.Setenv("DATABASE_MIN_CONNS", "4")

	_, err := loadClean(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be below min_conns")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "pw",
		DBName:   "finsight",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=pw dbname=finsight sslmode=require",
		cfg.DSN())
}

func TestRedisAddr(t *testing.T) {
	assert.Equal(t, "cache.internal:6380", RedisConfig{Host: "cache.internal", Port: 6380}.Addr())
}

func TestCacheTTLDuration(t *testing.T) {
	assert.Equal(t, 30*time.Minute, MarketDataConfig{CacheTTL: "30m"}.CacheTTLDuration())
	// An unparsable TTL falls back to 15 minutes.
	assert.Equal(t, 15*time.Minute, MarketDataConfig{CacheTTL: "bogus"}.CacheTTLDuration())
	assert.Equal(t, 15*time.Minute, MarketDataConfig{}.CacheTTLDuration())
}
