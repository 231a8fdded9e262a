// Package app wires configuration, clients, and services together.
package app

import (
	"github.com/bobmcallan/stockperf/internal/analysis"
	"github.com/bobmcallan/stockperf/internal/clients/alphavantage"
	"github.com/bobmcallan/stockperf/internal/clients/finnhub"
	"github.com/bobmcallan/stockperf/internal/clients/fmp"
	"github.com/bobmcallan/stockperf/internal/clients/yahoo"
	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
	"github.com/bobmcallan/stockperf/internal/peers"
	"github.com/bobmcallan/stockperf/internal/report"
)

// App holds the assembled application components.
type App struct {
	Config   *common.Config
	Logger   *common.Logger
	Cache    interfaces.ResponseCache
	Analysis interfaces.AnalysisService
	Report   *report.Service
}

// New assembles clients and services from config. Providers without a
// resolvable API key are still wired; their calls fail at runtime and the
// peer chain advances past them.
func New(cfg *common.Config, cache interfaces.ResponseCache, logger *common.Logger) *App {
	fmpKey, err := common.ResolveAPIKey("fmp", cfg.Clients.FMP.APIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("FMP API key not configured")
	}
	avKey, err := common.ResolveAPIKey("alphavantage", cfg.Clients.AlphaVantage.APIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("Alpha Vantage API key not configured")
	}
	finnhubKey, err := common.ResolveAPIKey("finnhub", cfg.Clients.Finnhub.APIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("Finnhub API key not configured")
	}

	fmpClient := fmp.NewClient(fmpKey,
		fmp.WithBaseURL(cfg.Clients.FMP.BaseURL),
		fmp.WithRateLimit(cfg.Clients.FMP.RateLimit),
		fmp.WithTimeout(cfg.Clients.FMP.GetTimeout()),
		fmp.WithLogger(logger),
		fmp.WithCache(cache),
	)
	avClient := alphavantage.NewClient(avKey,
		alphavantage.WithBaseURL(cfg.Clients.AlphaVantage.BaseURL),
		alphavantage.WithRateLimit(cfg.Clients.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(cfg.Clients.AlphaVantage.GetTimeout()),
		alphavantage.WithLogger(logger),
		alphavantage.WithCache(cache),
	)
	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(cfg.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(cfg.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
		yahoo.WithCache(cache),
	)
	finnhubClient := finnhub.NewClient(finnhubKey,
		finnhub.WithBaseURL(cfg.Clients.Finnhub.BaseURL),
		finnhub.WithRateLimit(cfg.Clients.Finnhub.RateLimit),
		finnhub.WithTimeout(cfg.Clients.Finnhub.GetTimeout()),
		finnhub.WithLogger(logger),
		finnhub.WithCache(cache),
	)

	chain := peers.NewDefaultChain(fmpClient, avClient, yahooClient, finnhubClient,
		cfg.Analysis.PeerCount, logger)

	analysisService := analysis.NewService(fmpClient, yahooClient, chain, cfg.Analysis, logger)
	reportService := report.NewService(analysisService, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Cache:    cache,
		Analysis: analysisService,
		Report:   reportService,
	}
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}
