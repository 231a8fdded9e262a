package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Analysis.PeerCount)
	assert.Equal(t, "SPY", cfg.Analysis.BenchmarkSymbol)
	assert.InDelta(t, 2.0, cfg.Analysis.Weights.Returns, 1e-9)
	assert.InDelta(t, 1.5, cfg.Analysis.Weights.Profitability, 1e-9)
	assert.Equal(t, "https://financialmodelingprep.com/api/v3", cfg.Clients.FMP.BaseURL)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockperf.toml")
	content := `
environment = "production"
watchlist = ["AAPL", "MSFT"]

[server]
port = 9000

[analysis]
peer_count = 8
benchmark_symbol = "VOO"

[analysis.weights]
returns = 3.0
valuation = 1.0
profitability = 1.5
growth = 1.0
dcf = 2.0
target = 1.0

[clients.fmp]
api_key = "from-file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watchlist)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Analysis.PeerCount)
	assert.Equal(t, "VOO", cfg.Analysis.BenchmarkSymbol)
	assert.InDelta(t, 3.0, cfg.Analysis.Weights.Returns, 1e-9)
	assert.Equal(t, "from-file", cfg.Clients.FMP.APIKey)

	// Untouched sections keep defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("does-not-exist.toml")
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("STOCKPERF_ENV", "prod")
	t.Setenv("STOCKPERF_PORT", "7777")
	t.Setenv("STOCKPERF_LOG_LEVEL", "debug")
	t.Setenv("STOCKPERF_BENCHMARK", "qqq")
	t.Setenv("STOCKPERF_WATCHLIST", "aapl, msft ,googl")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "QQQ", cfg.Analysis.BenchmarkSymbol)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, cfg.Watchlist)
}

func TestGetTimeout(t *testing.T) {
	c := ClientConfig{Timeout: "5s"}
	assert.Equal(t, "5s", c.GetTimeout().String())

	c.Timeout = "garbage"
	assert.Equal(t, "30s", c.GetTimeout().String())
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("FMP_API_KEY", "from-env")
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("STOCKPERF_FINNHUB_API_KEY", "")

	key, err := ResolveAPIKey("fmp", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	key, err = ResolveAPIKey("finnhub", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", key)

	_, err = ResolveAPIKey("finnhub", "")
	require.Error(t, err)
}
