package interfaces

import (
	"context"

	"github.com/bobmcallan/stockperf/internal/models"
)

// PeerSource is one step of the peer acquisition chain.
type PeerSource interface {
	// Provenance identifies the source in results and failure records.
	Provenance() models.Provenance
	// Fetch returns candidate peers for the target. An error advances the
	// chain to the next source; it never aborts the run.
	Fetch(ctx context.Context, profile *models.StockProfile) ([]models.PeerMetrics, error)
}

// PeerResolver resolves a usable peer set for a target company.
type PeerResolver interface {
	Resolve(ctx context.Context, profile *models.StockProfile) *models.PeerSet
}

// AnalysisService runs the full evaluation pipeline for one or more tickers.
type AnalysisService interface {
	Analyze(ctx context.Context, ticker string) (*models.AnalysisResult, error)
	AnalyzePortfolio(ctx context.Context, tickers []string) ([]*models.AnalysisResult, error)
}

// ReportService renders stored analysis results, triggering a run when no
// result exists for the requested ticker.
type ReportService interface {
	GetResult(ctx context.Context, ticker string, refresh bool) (*models.AnalysisResult, error)
	FormatReport(ctx context.Context, ticker string) (string, error)
	RenderChart(ctx context.Context, ticker string) ([]byte, error)
}
