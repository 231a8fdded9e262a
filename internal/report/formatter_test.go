package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockperf/internal/models"
)

func sampleResult() *models.AnalysisResult {
	target := 210.0
	dev := 0.25
	targetPE := 35.0

	return &models.AnalysisResult{
		RunID: "run-123",
		Profile: models.StockProfile{
			Ticker:       "AAPL",
			Name:         "Apple Inc.",
			Sector:       "Technology",
			Industry:     "Consumer Electronics",
			CurrentPrice: 190,
			TargetPrice:  &target,
		},
		PeerSet: &models.PeerSet{
			Peers: []models.PeerMetrics{
				{Ticker: "MSFT", Name: "Microsoft"},
				{Ticker: "GOOGL", Name: "Alphabet"},
			},
			Provenance: models.ProvenanceSynthetic,
			Failures: []models.SourceFailure{
				{Provider: models.ProvenanceFMPPeers, Cause: "rate limited"},
			},
		},
		Comparison: models.ComparisonResult{
			models.MetricPERatio: {
				Metric:      models.MetricPERatio,
				PeerMedian:  28.0,
				TargetValue: &targetPE,
				Deviation:   &dev,
			},
		},
		Breakdown: models.ScoreBreakdown{
			Components: []models.ScoreComponent{
				{Name: models.ComponentValuationVsPeers, Raw: 0.25, Weight: 1.0, Weighted: 0.25},
			},
			Excluded: []models.ExcludedComponent{
				{Name: models.ComponentReturnsVsMarket, Reason: "trailing returns unavailable"},
			},
			WeightsUsed: models.ScoringWeights{Returns: 2, Valuation: 1, Profitability: 1.5, Growth: 1, DCF: 2, Target: 1},
			Total:       0.25,
		},
		Score:          0.25,
		Classification: "Slightly underperforming",
		Recommendation: "HOLD/WATCH",
		GeneratedAt:    time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestFormatAnalysis(t *testing.T) {
	md := FormatAnalysis(sampleResult())

	assert.Contains(t, md, "# AAPL - Apple Inc.")
	assert.Contains(t, md, "**Analyst Target:** $210.00")
	assert.Contains(t, md, "Slightly underperforming")
	assert.Contains(t, md, "HOLD/WATCH")

	// Comparison row with median, target, and deviation
	assert.Contains(t, md, "| P/E | 28.00 | 35.00 | +25.0% |")

	// Synthetic provenance surfaces with a trust warning
	assert.Contains(t, md, "`synthetic`")
	assert.Contains(t, md, "indicative only")
	assert.Contains(t, md, "`fmp_peers`: rate limited")

	// Exclusions and weights are reported
	assert.Contains(t, md, "trailing returns unavailable")
	assert.Contains(t, md, "Weights used: returns 2.0")
}

func TestFormatAnalysisOmitsUnknowns(t *testing.T) {
	result := sampleResult()
	result.Profile.TargetPrice = nil
	result.Comparison[models.MetricPERatio] = models.MetricComparison{
		Metric:     models.MetricPERatio,
		PeerMedian: 28.0,
	}

	md := FormatAnalysis(result)
	assert.NotContains(t, md, "Analyst Target")
	assert.Contains(t, md, "| P/E | 28.00 | n/a | n/a |")
}

func TestFormatAnalysisNoPeers(t *testing.T) {
	result := sampleResult()
	result.PeerSet = nil

	md := FormatAnalysis(result)
	assert.Contains(t, md, "No peer set available")
	require.True(t, strings.HasPrefix(md, "# AAPL"))
}
