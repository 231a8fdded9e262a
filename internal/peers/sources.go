package peers

import (
	"context"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
	"github.com/bobmcallan/stockperf/internal/models"
)

// fmpPeersSource fetches FMP's declared peer list and hydrates each peer
// with TTM ratios.
type fmpPeersSource struct {
	fmp    interfaces.FMPClient
	limit  int
	logger *common.Logger
}

// NewFMPPeersSource creates the primary peer source
func NewFMPPeersSource(fmp interfaces.FMPClient, limit int, logger *common.Logger) interfaces.PeerSource {
	return &fmpPeersSource{fmp: fmp, limit: limit, logger: logger}
}

func (s *fmpPeersSource) Provenance() models.Provenance {
	return models.ProvenanceFMPPeers
}

func (s *fmpPeersSource) Fetch(ctx context.Context, profile *models.StockProfile) ([]models.PeerMetrics, error) {
	symbols, err := s.fmp.GetPeerSymbols(ctx, profile.Ticker)
	if err != nil {
		return nil, &models.ProviderError{Provider: "fmp", Operation: "stock_peers", Err: err}
	}

	return s.hydrate(ctx, symbols, nil)
}

// hydrate fetches ratios for each symbol and normalizes them. Individual
// peer failures are skipped; names fall back to the symbol when the profile
// lookup fails.
func (s *fmpPeersSource) hydrate(ctx context.Context, symbols []string, names map[string]string) ([]models.PeerMetrics, error) {
	var collected []models.PeerMetrics
	for _, symbol := range symbols {
		if len(collected) >= s.limit {
			break
		}

		ratios, err := s.fmp.GetRatiosTTM(ctx, symbol)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping peer without ratios")
			continue
		}

		payload := make(map[string]any, len(ratios)+2)
		for k, v := range ratios {
			payload[k] = v
		}
		payload["symbol"] = symbol

		name := names[symbol]
		if name == "" {
			if p, err := s.fmp.GetProfile(ctx, symbol); err == nil {
				name = p.Name
			} else {
				name = symbol
			}
		}
		payload["companyName"] = name

		pm, err := Normalize("fmp", payload)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping peer that failed normalization")
			continue
		}
		collected = append(collected, *pm)
	}

	if len(collected) == 0 {
		return nil, &models.ProviderError{
			Provider:  "fmp",
			Operation: "hydrate peers",
			Err:       &models.NormalizationError{Provider: "fmp", Reason: "no peer produced usable metrics"},
		}
	}
	return collected, nil
}

// fmpScreenerSource queries the sector screener when the declared peer list
// is unavailable.
type fmpScreenerSource struct {
	inner fmpPeersSource
}

// NewFMPScreenerSource creates the sector screener fallback source
func NewFMPScreenerSource(fmp interfaces.FMPClient, limit int, logger *common.Logger) interfaces.PeerSource {
	return &fmpScreenerSource{inner: fmpPeersSource{fmp: fmp, limit: limit, logger: logger}}
}

func (s *fmpScreenerSource) Provenance() models.Provenance {
	return models.ProvenanceFMPScreener
}

func (s *fmpScreenerSource) Fetch(ctx context.Context, profile *models.StockProfile) ([]models.PeerMetrics, error) {
	if profile.Sector == "" {
		return nil, &models.ProviderError{
			Provider:  "fmp",
			Operation: "stock-screener",
			Err:       &models.NormalizationError{Provider: "fmp", Reason: "target has no sector"},
		}
	}

	hits, err := s.inner.fmp.ScreenBySector(ctx, profile.Sector, s.inner.limit*3)
	if err != nil {
		return nil, &models.ProviderError{Provider: "fmp", Operation: "stock-screener", Err: err}
	}

	target := models.NormalizeTicker(profile.Ticker)
	symbols := make([]string, 0, len(hits))
	names := make(map[string]string, len(hits))
	for _, hit := range hits {
		symbol := models.NormalizeTicker(hit.Symbol)
		if symbol == target {
			continue
		}
		symbols = append(symbols, symbol)
		names[symbol] = hit.Name
	}

	return s.inner.hydrate(ctx, symbols, names)
}

// alphaVantageSource pulls company overviews for sector candidates.
type alphaVantageSource struct {
	av     interfaces.AlphaVantageClient
	limit  int
	logger *common.Logger
}

// NewAlphaVantageSource creates the Alpha Vantage fallback source
func NewAlphaVantageSource(av interfaces.AlphaVantageClient, limit int, logger *common.Logger) interfaces.PeerSource {
	return &alphaVantageSource{av: av, limit: limit, logger: logger}
}

func (s *alphaVantageSource) Provenance() models.Provenance {
	return models.ProvenanceAlphaVantage
}

func (s *alphaVantageSource) Fetch(ctx context.Context, profile *models.StockProfile) ([]models.PeerMetrics, error) {
	candidates := candidatesForSector(profile.Sector, profile.Ticker)

	var collected []models.PeerMetrics
	for _, symbol := range candidates {
		if len(collected) >= s.limit {
			break
		}

		overview, err := s.av.GetOverview(ctx, symbol)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping candidate without overview")
			continue
		}

		pm, err := Normalize("alphavantage", overview)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping candidate that failed normalization")
			continue
		}
		collected = append(collected, *pm)
	}

	if len(collected) == 0 {
		return nil, &models.ProviderError{
			Provider:  "alphavantage",
			Operation: "overview",
			Err:       &models.NormalizationError{Provider: "alphavantage", Reason: "no candidate produced usable metrics"},
		}
	}
	return collected, nil
}

// yahooRecommendationsSource uses Yahoo's recommended symbols as peer
// candidates and hydrates them from quote summaries.
type yahooRecommendationsSource struct {
	yahoo  interfaces.YahooClient
	limit  int
	logger *common.Logger
}

// NewYahooRecommendationsSource creates the Yahoo fallback source
func NewYahooRecommendationsSource(yahoo interfaces.YahooClient, limit int, logger *common.Logger) interfaces.PeerSource {
	return &yahooRecommendationsSource{yahoo: yahoo, limit: limit, logger: logger}
}

func (s *yahooRecommendationsSource) Provenance() models.Provenance {
	return models.ProvenanceYahooRecommendations
}

func (s *yahooRecommendationsSource) Fetch(ctx context.Context, profile *models.StockProfile) ([]models.PeerMetrics, error) {
	symbols, err := s.yahoo.GetRecommendations(ctx, profile.Ticker)
	if err != nil {
		return nil, &models.ProviderError{Provider: "yahoo", Operation: "recommendations", Err: err}
	}

	var collected []models.PeerMetrics
	for _, symbol := range symbols {
		if len(collected) >= s.limit {
			break
		}

		payload, err := s.yahoo.GetQuoteSummary(ctx, symbol)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping recommendation without quote summary")
			continue
		}

		pm, err := Normalize("yahoo", payload)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping recommendation that failed normalization")
			continue
		}
		collected = append(collected, *pm)
	}

	if len(collected) == 0 {
		return nil, &models.ProviderError{
			Provider:  "yahoo",
			Operation: "quoteSummary",
			Err:       &models.NormalizationError{Provider: "yahoo", Reason: "no recommendation produced usable metrics"},
		}
	}
	return collected, nil
}

// finnhubSource uses Finnhub's peer list with its basic metrics endpoint.
type finnhubSource struct {
	finnhub interfaces.FinnhubClient
	limit   int
	logger  *common.Logger
}

// NewFinnhubSource creates the Finnhub fallback source
func NewFinnhubSource(finnhub interfaces.FinnhubClient, limit int, logger *common.Logger) interfaces.PeerSource {
	return &finnhubSource{finnhub: finnhub, limit: limit, logger: logger}
}

func (s *finnhubSource) Provenance() models.Provenance {
	return models.ProvenanceFinnhub
}

func (s *finnhubSource) Fetch(ctx context.Context, profile *models.StockProfile) ([]models.PeerMetrics, error) {
	symbols, err := s.finnhub.GetPeers(ctx, profile.Ticker)
	if err != nil {
		return nil, &models.ProviderError{Provider: "finnhub", Operation: "peers", Err: err}
	}

	target := models.NormalizeTicker(profile.Ticker)
	var collected []models.PeerMetrics
	for _, symbol := range symbols {
		if len(collected) >= s.limit {
			break
		}
		if models.NormalizeTicker(symbol) == target {
			continue
		}

		payload, err := s.finnhub.GetBasicMetrics(ctx, symbol)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping peer without metrics")
			continue
		}

		pm, err := Normalize("finnhub", payload)
		if err != nil {
			s.logger.Debug().Err(err).Str("peer", symbol).Msg("Skipping peer that failed normalization")
			continue
		}
		collected = append(collected, *pm)
	}

	if len(collected) == 0 {
		return nil, &models.ProviderError{
			Provider:  "finnhub",
			Operation: "stock/metric",
			Err:       &models.NormalizationError{Provider: "finnhub", Reason: "no peer produced usable metrics"},
		}
	}
	return collected, nil
}

// syntheticSource is the terminal chain step. It never fails.
type syntheticSource struct {
	count int
}

// NewSyntheticSource creates the synthetic terminal source
func NewSyntheticSource(count int) interfaces.PeerSource {
	return &syntheticSource{count: count}
}

func (s *syntheticSource) Provenance() models.Provenance {
	return models.ProvenanceSynthetic
}

func (s *syntheticSource) Fetch(_ context.Context, profile *models.StockProfile) ([]models.PeerMetrics, error) {
	return GenerateSyntheticPeers(profile.Sector, s.count, SeedForTicker(profile.Ticker)), nil
}
