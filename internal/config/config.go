package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	News        NewsConfig       `mapstructure:"news"`
	Analysis    AnalysisConfig   `mapstructure:"analysis"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// DSN renders the keyword/value connection string pgx parses.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr renders the host:port address go-redis dials.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MarketDataConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Timeout  int    `mapstructure:"timeout"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

type NewsConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	PageSize int    `mapstructure:"page_size"`
}

// AnalysisConfig holds every tunable the engines read. Lifting these out of
// the engines keeps runs deterministic and lets tests override parameters.
type AnalysisConfig struct {
	RiskFreeRate        float64 `mapstructure:"risk_free_rate"`
	MarketReturn        float64 `mapstructure:"market_return"`
	PerpetualGrowthRate float64 `mapstructure:"perpetual_growth_rate"`
	DefaultTaxRate      float64 `mapstructure:"default_tax_rate"`
	FCFGrowthMin        float64 `mapstructure:"fcf_growth_min"`
	FCFGrowthMax        float64 `mapstructure:"fcf_growth_max"`
	FCFDefaultGrowth    float64 `mapstructure:"fcf_default_growth"`
	ProjectionYears     int     `mapstructure:"projection_years"`
	VaRConfidence       float64 `mapstructure:"var_confidence"`
	SentimentThreshold  float64 `mapstructure:"sentiment_threshold"`
	ChartPricePoints    int     `mapstructure:"chart_price_points"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("market_data.api_key", "MARKET_DATA_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind MARKET_DATA_API_KEY: %w", err)
	}
	if err := viper.BindEnv("news.api_key", "NEWS_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind NEWS_API_KEY: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if _, err := time.ParseDuration(config.MarketData.CacheTTL); err != nil {
		return nil, fmt.Errorf("invalid market data cache TTL: %w", err)
	}
	if config.Analysis.PerpetualGrowthRate >= config.Analysis.MarketReturn {
		return nil, fmt.Errorf("perpetual growth rate %.4f must be below market return %.4f",
			config.Analysis.PerpetualGrowthRate, config.Analysis.MarketReturn)
	}
	if config.Analysis.VaRConfidence <= 0 || config.Analysis.VaRConfidence >= 1 {
		return nil, fmt.Errorf("var confidence must be in (0, 1), got %.4f", config.Analysis.VaRConfidence)
	}
	if config.Database.MaxConns < config.Database.MinConns {
		return nil, fmt.Errorf("database max_conns %d must not be below min_conns %d",
			config.Database.MaxConns, config.Database.MinConns)
	}

	return &config, nil
}

// CacheTTLDuration returns the parsed dataset cache TTL.
func (c MarketDataConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "finsight")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_conns", 10)
	viper.SetDefault("database.min_conns", 2)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("market_data.base_url", "https://financialmodelingprep.com/stable")
	viper.SetDefault("market_data.api_key", "")
	viper.SetDefault("market_data.timeout", 30)
	viper.SetDefault("market_data.cache_ttl", "15m")

	viper.SetDefault("news.base_url", "https://newsapi.org/v2")
	viper.SetDefault("news.api_key", "")
	viper.SetDefault("news.page_size", 20)

	viper.SetDefault("analysis.risk_free_rate", 0.04)
	viper.SetDefault("analysis.market_return", 0.08)
	viper.SetDefault("analysis.perpetual_growth_rate", 0.025)
	viper.SetDefault("analysis.default_tax_rate", 0.21)
	viper.SetDefault("analysis.fcf_growth_min", -0.20)
	viper.SetDefault("analysis.fcf_growth_max", 0.30)
	viper.SetDefault("analysis.fcf_default_growth", 0.05)
	viper.SetDefault("analysis.projection_years", 5)
	viper.SetDefault("analysis.var_confidence", 0.95)
	viper.SetDefault("analysis.sentiment_threshold", 0.05)
	viper.SetDefault("analysis.chart_price_points", 180)
}
