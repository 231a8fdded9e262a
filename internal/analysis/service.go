package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
	"github.com/bobmcallan/stockperf/internal/models"
	"github.com/bobmcallan/stockperf/internal/peers"
)

// Service orchestrates one analysis run: profile lookup, trailing returns,
// DCF inputs, peer resolution, comparison, and scoring. Only a failed
// profile lookup aborts a run; every other missing input degrades to an
// excluded score component.
type Service struct {
	fmp      interfaces.FMPClient
	yahoo    interfaces.YahooClient
	resolver interfaces.PeerResolver
	scorer   *Scorer
	cfg      common.AnalysisConfig
	logger   *common.Logger
}

// NewService creates an analysis service
func NewService(
	fmp interfaces.FMPClient,
	yahoo interfaces.YahooClient,
	resolver interfaces.PeerResolver,
	cfg common.AnalysisConfig,
	logger *common.Logger,
) *Service {
	if cfg.ReturnYears < 1 {
		cfg.ReturnYears = 1
	}
	if cfg.BenchmarkSymbol == "" {
		cfg.BenchmarkSymbol = "SPY"
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.RiskFreeRate <= 0 {
		cfg.RiskFreeRate = 0.035
	}
	if cfg.MarketRiskPremium <= 0 {
		cfg.MarketRiskPremium = 0.055
	}

	return &Service{
		fmp:      fmp,
		yahoo:    yahoo,
		resolver: resolver,
		scorer:   NewScorer(cfg.Weights, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Analyze runs the full pipeline for one ticker
func (s *Service) Analyze(ctx context.Context, ticker string) (*models.AnalysisResult, error) {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	started := time.Now()

	profile, err := s.lookupProfile(ctx, ticker)
	if err != nil {
		return nil, err
	}

	estimates := s.lookupEstimates(ctx, ticker)
	if profile.TargetPrice == nil {
		profile.TargetPrice = estimates.TargetPrice
	}

	alpha := s.computeAlpha(ctx, ticker)
	dcf := s.valueDCF(ctx, ticker, estimates, profile.CurrentPrice)

	peerSet := s.resolver.Resolve(ctx, profile)
	comparison := Compare(s.targetMetrics(ctx, profile), peerSet.Peers)

	inputs := ScoreInputs{
		Alpha:        alpha,
		Comparison:   comparison,
		CurrentPrice: profile.CurrentPrice,
		TargetPrice:  profile.TargetPrice,
	}
	if dcf != nil {
		inputs.FairValue = &dcf.FairValue
	}
	breakdown := s.scorer.Score(inputs)

	result := &models.AnalysisResult{
		RunID:          uuid.NewString(),
		Profile:        *profile,
		PeerSet:        peerSet,
		Comparison:     comparison,
		Breakdown:      breakdown,
		Alpha:          alpha,
		DCF:            dcf,
		Score:          breakdown.Total,
		Classification: Classify(breakdown.Total),
		Recommendation: Recommend(breakdown.Total),
		GeneratedAt:    time.Now().UTC(),
	}

	s.logger.Info().
		Str("ticker", ticker).
		Str("run_id", result.RunID).
		Float64("score", result.Score).
		Str("classification", result.Classification).
		Str("peer_source", string(peerSet.Provenance)).
		Dur("elapsed", time.Since(started)).
		Msg("Analysis complete")

	return result, nil
}

// AnalyzePortfolio analyzes many tickers concurrently with a bounded worker
// count. Each ticker's provider chain stays sequential; rate limits are
// enforced by the shared clients. Failed tickers are logged and skipped;
// results keep the input order.
func (s *Service) AnalyzePortfolio(ctx context.Context, tickers []string) ([]*models.AnalysisResult, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers given")
	}

	results := make([]*models.AnalysisResult, len(tickers))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := s.Analyze(ctx, tickers[i])
				if err != nil {
					s.logger.Error().Err(err).Str("ticker", tickers[i]).Msg("Ticker analysis failed")
					continue
				}
				results[i] = result
			}
		}()
	}

	for i := range tickers {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	completed := make([]*models.AnalysisResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			completed = append(completed, r)
		}
	}
	if len(completed) == 0 {
		return nil, fmt.Errorf("all %d tickers failed", len(tickers))
	}

	return completed, nil
}

// lookupProfile resolves the target profile from the primary provider with
// a Yahoo fallback. Failure here is the only fatal error in a run.
func (s *Service) lookupProfile(ctx context.Context, ticker string) (*models.StockProfile, error) {
	profile, fmpErr := s.fmp.GetProfile(ctx, ticker)
	if fmpErr == nil {
		return profile, nil
	}
	s.logger.Warn().Err(fmpErr).Str("ticker", ticker).Msg("Primary profile lookup failed, trying fallback")

	profile, yahooErr := s.yahoo.GetProfile(ctx, ticker)
	if yahooErr == nil {
		return profile, nil
	}

	return nil, &models.ProfileUnavailableError{
		Ticker: ticker,
		Err:    errors.Join(fmpErr, yahooErr),
	}
}

func (s *Service) lookupEstimates(ctx context.Context, ticker string) *models.AnalystEstimates {
	estimates, err := s.fmp.GetEstimates(ctx, ticker)
	if err != nil {
		s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Analyst estimates unavailable")
		return &models.AnalystEstimates{GrowthRate: 0.05}
	}
	return estimates
}

func (s *Service) computeAlpha(ctx context.Context, ticker string) *float64 {
	targetReturns, err := s.fmp.GetAnnualReturns(ctx, ticker, s.cfg.ReturnYears)
	if err != nil {
		s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Target return history unavailable")
		return nil
	}

	benchReturns, err := s.fmp.GetAnnualReturns(ctx, s.cfg.BenchmarkSymbol, s.cfg.ReturnYears)
	if err != nil {
		s.logger.Debug().Err(err).Str("benchmark", s.cfg.BenchmarkSymbol).Msg("Benchmark return history unavailable")
		return nil
	}

	return ComputeAlpha(targetReturns, benchReturns)
}

func (s *Service) valueDCF(ctx context.Context, ticker string, estimates *models.AnalystEstimates, currentPrice float64) *models.DCFValuation {
	financials, err := s.fmp.GetFinancials(ctx, ticker)
	if err != nil {
		s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Financial statements unavailable, DCF excluded")
		return nil
	}

	bench := &models.Benchmark{
		Symbol:            s.cfg.BenchmarkSymbol,
		RiskFreeRate:      s.cfg.RiskFreeRate,
		MarketRiskPremium: s.cfg.MarketRiskPremium,
	}

	valuation, err := ValueDCF(financials, estimates, bench, currentPrice)
	if err != nil {
		s.logger.Info().Err(err).Str("ticker", ticker).Msg("DCF excluded")
		return nil
	}
	return valuation
}

// targetMetrics builds the target's own canonical metrics, preferring FMP
// ratios and filling gaps from the Yahoo quote summary.
func (s *Service) targetMetrics(ctx context.Context, profile *models.StockProfile) map[string]float64 {
	metrics := make(map[string]float64)

	if ratios, err := s.fmp.GetRatiosTTM(ctx, profile.Ticker); err == nil {
		payload := make(map[string]any, len(ratios)+2)
		for k, v := range ratios {
			payload[k] = v
		}
		payload["symbol"] = profile.Ticker
		payload["companyName"] = profile.Name

		if pm, err := peers.Normalize("fmp", payload); err == nil {
			for k, v := range pm.Metrics {
				metrics[k] = v
			}
		}
	} else {
		s.logger.Debug().Err(err).Str("ticker", profile.Ticker).Msg("Target ratios unavailable from primary provider")
	}

	missing := false
	for _, metric := range models.CanonicalMetrics() {
		if _, ok := metrics[metric]; !ok {
			missing = true
			break
		}
	}
	if !missing {
		return metrics
	}

	if payload, err := s.yahoo.GetQuoteSummary(ctx, profile.Ticker); err == nil {
		if _, ok := payload["longName"]; !ok {
			payload["longName"] = profile.Name
		}
		if pm, err := peers.Normalize("yahoo", payload); err == nil {
			for k, v := range pm.Metrics {
				if _, ok := metrics[k]; !ok {
					metrics[k] = v
				}
			}
		}
	}

	return metrics
}

var _ interfaces.AnalysisService = (*Service)(nil)
