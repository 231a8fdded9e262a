// Package interfaces defines contracts between StockPerf components
package interfaces

import (
	"context"

	"github.com/bobmcallan/stockperf/internal/models"
)

// FMPClient is the Financial Modeling Prep API client contract.
// Primary provider: profile, declared peers, sector screener, ratios,
// analyst estimates, financial statements, and price history.
type FMPClient interface {
	GetProfile(ctx context.Context, ticker string) (*models.StockProfile, error)
	GetPeerSymbols(ctx context.Context, ticker string) ([]string, error)
	ScreenBySector(ctx context.Context, sector string, limit int) ([]models.ScreenerHit, error)
	GetRatiosTTM(ctx context.Context, ticker string) (map[string]any, error)
	GetEstimates(ctx context.Context, ticker string) (*models.AnalystEstimates, error)
	GetFinancials(ctx context.Context, ticker string) (*models.Financials, error)
	GetAnnualReturns(ctx context.Context, symbol string, years int) ([]models.PeriodReturn, error)
}

// AlphaVantageClient is the Alpha Vantage API client contract.
type AlphaVantageClient interface {
	GetOverview(ctx context.Context, ticker string) (map[string]any, error)
}

// YahooClient is the Yahoo Finance API client contract.
type YahooClient interface {
	GetQuoteSummary(ctx context.Context, ticker string) (map[string]any, error)
	GetRecommendations(ctx context.Context, ticker string) ([]string, error)
	GetProfile(ctx context.Context, ticker string) (*models.StockProfile, error)
}

// FinnhubClient is the Finnhub API client contract.
type FinnhubClient interface {
	GetPeers(ctx context.Context, ticker string) ([]string, error)
	GetBasicMetrics(ctx context.Context, ticker string) (map[string]any, error)
}
