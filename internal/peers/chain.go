package peers

import (
	"context"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
	"github.com/bobmcallan/stockperf/internal/models"
)

// Chain resolves peers by trying sources in a fixed order. Every failure is
// recorded and the chain advances; it never aborts the analysis run. The
// synthetic terminal source guarantees a non-empty result.
type Chain struct {
	sources  []interfaces.PeerSource
	maxPeers int
	logger   *common.Logger
}

// NewChain creates a peer resolution chain over the given sources
func NewChain(logger *common.Logger, maxPeers int, sources ...interfaces.PeerSource) *Chain {
	if maxPeers < 1 {
		maxPeers = 5
	}
	return &Chain{
		sources:  sources,
		maxPeers: maxPeers,
		logger:   logger,
	}
}

// NewDefaultChain assembles the standard source order: FMP peers, FMP
// screener, Alpha Vantage, Yahoo recommendations, Finnhub, synthetic.
func NewDefaultChain(
	fmp interfaces.FMPClient,
	av interfaces.AlphaVantageClient,
	yahoo interfaces.YahooClient,
	finnhub interfaces.FinnhubClient,
	peerCount int,
	logger *common.Logger,
) *Chain {
	return NewChain(logger, peerCount,
		NewFMPPeersSource(fmp, peerCount, logger),
		NewFMPScreenerSource(fmp, peerCount, logger),
		NewAlphaVantageSource(av, peerCount, logger),
		NewYahooRecommendationsSource(yahoo, peerCount, logger),
		NewFinnhubSource(finnhub, peerCount, logger),
		NewSyntheticSource(peerCount),
	)
}

// Resolve walks the chain and returns the first usable peer set along with
// the failure records accumulated on the way there.
func (c *Chain) Resolve(ctx context.Context, profile *models.StockProfile) *models.PeerSet {
	var failures []models.SourceFailure

	for _, source := range c.sources {
		provenance := source.Provenance()

		fetched, err := source.Fetch(ctx, profile)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("ticker", profile.Ticker).
				Str("source", string(provenance)).
				Msg("Peer source failed, advancing chain")
			failures = append(failures, models.SourceFailure{
				Provider: provenance,
				Cause:    err.Error(),
			})
			continue
		}

		usable := c.filterPeers(profile.Ticker, fetched)
		if len(usable) == 0 {
			c.logger.Warn().
				Str("ticker", profile.Ticker).
				Str("source", string(provenance)).
				Msg("Peer source returned no usable peers, advancing chain")
			failures = append(failures, models.SourceFailure{
				Provider: provenance,
				Cause:    "no usable peers after filtering",
			})
			continue
		}

		c.logger.Info().
			Str("ticker", profile.Ticker).
			Str("source", string(provenance)).
			Int("peers", len(usable)).
			Int("failed_sources", len(failures)).
			Msg("Peer set resolved")

		return &models.PeerSet{
			Target:     *profile,
			Peers:      usable,
			Provenance: provenance,
			Failures:   failures,
		}
	}

	// Unreachable with a synthetic terminal source in place
	c.logger.Error().Str("ticker", profile.Ticker).Msg("Every peer source failed")
	return &models.PeerSet{
		Target:   *profile,
		Failures: failures,
	}
}

// filterPeers deduplicates by ticker, excludes the target, drops peers with
// no known metrics, and caps the set size. Input order is preserved.
func (c *Chain) filterPeers(targetTicker string, fetched []models.PeerMetrics) []models.PeerMetrics {
	target := models.NormalizeTicker(targetTicker)
	seen := make(map[string]bool, len(fetched))

	usable := make([]models.PeerMetrics, 0, len(fetched))
	for _, peer := range fetched {
		ticker := models.NormalizeTicker(peer.Ticker)
		if ticker == "" || ticker == target || seen[ticker] {
			continue
		}
		if !peer.HasAnyMetric() {
			continue
		}
		seen[ticker] = true
		peer.Ticker = ticker
		usable = append(usable, peer)
		if len(usable) >= c.maxPeers {
			break
		}
	}

	return usable
}

var _ interfaces.PeerResolver = (*Chain)(nil)
