// Package common provides shared utilities for StockPerf
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/stockperf/internal/models"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for StockPerf
type Config struct {
	Environment string         `toml:"environment"`
	Watchlist   []string       `toml:"watchlist"` // tickers refreshed by the server scheduler
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Clients     ClientsConfig  `toml:"clients"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	RefreshSchedule string `toml:"refresh_schedule"` // cron expression for watchlist refresh
}

// StorageConfig holds the response cache configuration
type StorageConfig struct {
	Path     string `toml:"path"`
	CacheTTL string `toml:"cache_ttl"`
}

// GetCacheTTL parses and returns the cache TTL duration
func (c *StorageConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	FMP          ClientConfig `toml:"fmp"`
	AlphaVantage ClientConfig `toml:"alphavantage"`
	Yahoo        ClientConfig `toml:"yahoo"`
	Finnhub      ClientConfig `toml:"finnhub"`
}

// ClientConfig holds one provider's API configuration
type ClientConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ClientConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// AnalysisConfig holds analysis tuning parameters
type AnalysisConfig struct {
	PeerCount         int                   `toml:"peer_count"`
	ReturnYears       int                   `toml:"return_years"`
	BenchmarkSymbol   string                `toml:"benchmark_symbol"`
	RiskFreeRate      float64               `toml:"risk_free_rate"`
	MarketRiskPremium float64               `toml:"market_risk_premium"`
	Concurrency       int                   `toml:"concurrency"` // portfolio worker count
	Weights           models.ScoringWeights `toml:"weights"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			RefreshSchedule: "0 */6 * * *",
		},
		Storage: StorageConfig{
			Path:     "data/cache",
			CacheTTL: "6h",
		},
		Clients: ClientsConfig{
			FMP: ClientConfig{
				BaseURL:   "https://financialmodelingprep.com/api/v3",
				RateLimit: 5,
				Timeout:   "30s",
			},
			AlphaVantage: ClientConfig{
				BaseURL:   "https://www.alphavantage.co",
				RateLimit: 1,
				Timeout:   "30s",
			},
			Yahoo: ClientConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 2,
				Timeout:   "30s",
			},
			Finnhub: ClientConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 2,
				Timeout:   "30s",
			},
		},
		Analysis: AnalysisConfig{
			PeerCount:         5,
			ReturnYears:       1,
			BenchmarkSymbol:   "SPY",
			RiskFreeRate:      0.035,
			MarketRiskPremium: 0.055,
			Concurrency:       4,
			Weights: models.ScoringWeights{
				Returns:       2.0,
				Valuation:     1.0,
				Profitability: 1.5,
				Growth:        1.0,
				DCF:           2.0,
				Target:        1.0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKPERF_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKPERF_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKPERF_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKPERF_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("STOCKPERF_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if bench := os.Getenv("STOCKPERF_BENCHMARK"); bench != "" {
		config.Analysis.BenchmarkSymbol = strings.ToUpper(bench)
	}

	if wl := os.Getenv("STOCKPERF_WATCHLIST"); wl != "" {
		var tickers []string
		for _, t := range strings.Split(wl, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, strings.ToUpper(t))
			}
		}
		if len(tickers) > 0 {
			config.Watchlist = tickers
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves a provider API key from environment or config fallback
func ResolveAPIKey(provider string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"fmp":          {"FMP_API_KEY", "STOCKPERF_FMP_API_KEY"},
		"alphavantage": {"ALPHAVANTAGE_API_KEY", "STOCKPERF_ALPHAVANTAGE_API_KEY"},
		"finnhub":      {"FINNHUB_API_KEY", "STOCKPERF_FINNHUB_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[provider]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key for '%s' not found in environment or config", provider)
}
