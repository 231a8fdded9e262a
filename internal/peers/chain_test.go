package peers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/models"
)

type stubSource struct {
	provenance models.Provenance
	peers      []models.PeerMetrics
	err        error
	calls      int
}

func (s *stubSource) Provenance() models.Provenance { return s.provenance }

func (s *stubSource) Fetch(_ context.Context, _ *models.StockProfile) ([]models.PeerMetrics, error) {
	s.calls++
	return s.peers, s.err
}

func testProfile() *models.StockProfile {
	return &models.StockProfile{
		Ticker:       "AAPL",
		Name:         "Apple Inc.",
		Sector:       "Technology",
		CurrentPrice: 190,
	}
}

func peerWithPE(ticker string, pe float64) models.PeerMetrics {
	return models.PeerMetrics{
		Ticker:  ticker,
		Name:    ticker + " Inc.",
		Metrics: map[string]float64{models.MetricPERatio: pe},
	}
}

func TestChainFirstSourceWins(t *testing.T) {
	first := &stubSource{
		provenance: models.ProvenanceFMPPeers,
		peers:      []models.PeerMetrics{peerWithPE("MSFT", 35), peerWithPE("GOOGL", 24)},
	}
	second := &stubSource{provenance: models.ProvenanceFMPScreener}

	chain := NewChain(common.NewSilentLogger(), 5, first, second)
	set := chain.Resolve(context.Background(), testProfile())

	require.NotNil(t, set)
	assert.Equal(t, models.ProvenanceFMPPeers, set.Provenance)
	assert.Len(t, set.Peers, 2)
	assert.Empty(t, set.Failures)
	assert.Zero(t, second.calls, "chain must stop at the first success")
}

func TestChainAdvancesPastFailuresAndRecordsThem(t *testing.T) {
	failing := &stubSource{
		provenance: models.ProvenanceFMPPeers,
		err:        &models.ProviderError{Provider: "fmp", Operation: "stock_peers", Err: errors.New("429 too many requests")},
	}
	empty := &stubSource{
		provenance: models.ProvenanceFMPScreener,
		peers:      []models.PeerMetrics{{Ticker: "NOPE", Name: "No Metrics Corp", Metrics: map[string]float64{}}},
	}
	succeeding := &stubSource{
		provenance: models.ProvenanceAlphaVantage,
		peers:      []models.PeerMetrics{peerWithPE("ORCL", 28)},
	}

	chain := NewChain(common.NewSilentLogger(), 5, failing, empty, succeeding)
	set := chain.Resolve(context.Background(), testProfile())

	assert.Equal(t, models.ProvenanceAlphaVantage, set.Provenance)
	require.Len(t, set.Failures, 2)
	assert.Equal(t, models.ProvenanceFMPPeers, set.Failures[0].Provider)
	assert.Contains(t, set.Failures[0].Cause, "429")
	assert.Equal(t, models.ProvenanceFMPScreener, set.Failures[1].Provider)
}

func TestChainFiltersTargetAndDuplicates(t *testing.T) {
	source := &stubSource{
		provenance: models.ProvenanceFinnhub,
		peers: []models.PeerMetrics{
			peerWithPE("AAPL", 29), // target must be excluded
			peerWithPE("MSFT", 35),
			peerWithPE("msft", 36), // duplicate after canonicalization
			peerWithPE("GOOGL", 24),
		},
	}

	chain := NewChain(common.NewSilentLogger(), 5, source)
	set := chain.Resolve(context.Background(), testProfile())

	require.Len(t, set.Peers, 2)
	assert.Equal(t, "MSFT", set.Peers[0].Ticker)
	assert.Equal(t, "GOOGL", set.Peers[1].Ticker)
}

func TestChainCapsPeerCount(t *testing.T) {
	source := &stubSource{
		provenance: models.ProvenanceFMPScreener,
		peers: []models.PeerMetrics{
			peerWithPE("A", 10), peerWithPE("B", 11), peerWithPE("C", 12),
			peerWithPE("D", 13), peerWithPE("E", 14),
		},
	}

	chain := NewChain(common.NewSilentLogger(), 3, source)
	set := chain.Resolve(context.Background(), testProfile())

	assert.Len(t, set.Peers, 3)
}

func TestChainFallsThroughToSynthetic(t *testing.T) {
	boom := errors.New("connection refused")
	sources := []*stubSource{
		{provenance: models.ProvenanceFMPPeers, err: boom},
		{provenance: models.ProvenanceFMPScreener, err: boom},
		{provenance: models.ProvenanceAlphaVantage, err: boom},
		{provenance: models.ProvenanceYahooRecommendations, err: boom},
		{provenance: models.ProvenanceFinnhub, err: boom},
	}

	chain := NewChain(common.NewSilentLogger(), 5,
		sources[0], sources[1], sources[2], sources[3], sources[4],
		NewSyntheticSource(5),
	)

	profile := testProfile()
	profile.Ticker = "ZZZZ"
	set := chain.Resolve(context.Background(), profile)

	assert.Equal(t, models.ProvenanceSynthetic, set.Provenance)
	assert.True(t, set.IsSynthetic())
	require.Len(t, set.Peers, 5)
	assert.Len(t, set.Failures, 5)

	// Synthetic generation is deterministic per target ticker
	again := chain.Resolve(context.Background(), profile)
	assert.Equal(t, set.Peers, again.Peers)
}
