package report

import (
	"context"
	"sync"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
	"github.com/bobmcallan/stockperf/internal/models"
)

// Service serves reports from stored analysis results. Results are never
// mutated here; a missing or explicitly refreshed result triggers a new
// analysis run.
type Service struct {
	analysis interfaces.AnalysisService
	logger   *common.Logger

	mu      sync.RWMutex
	results map[string]*models.AnalysisResult
}

// NewService creates a report service
func NewService(analysis interfaces.AnalysisService, logger *common.Logger) *Service {
	return &Service{
		analysis: analysis,
		logger:   logger,
		results:  make(map[string]*models.AnalysisResult),
	}
}

// GetResult returns the stored result for a ticker, running an analysis
// when none exists or refresh is requested.
func (s *Service) GetResult(ctx context.Context, ticker string, refresh bool) (*models.AnalysisResult, error) {
	ticker = models.NormalizeTicker(ticker)

	if !refresh {
		s.mu.RLock()
		result, ok := s.results[ticker]
		s.mu.RUnlock()
		if ok {
			return result, nil
		}
	}

	result, err := s.analysis.Analyze(ctx, ticker)
	if err != nil {
		return nil, err
	}

	s.Store(result)
	return result, nil
}

// Store records a completed result, replacing any previous run for the
// same ticker. Used by the server's watchlist refresh.
func (s *Service) Store(result *models.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Profile.Ticker] = result
}

// List returns all stored results
func (s *Service) List() []*models.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.AnalysisResult, 0, len(s.results))
	for _, r := range s.results {
		list = append(list, r)
	}
	return list
}

// FormatReport renders the markdown report for a ticker
func (s *Service) FormatReport(ctx context.Context, ticker string) (string, error) {
	result, err := s.GetResult(ctx, ticker, false)
	if err != nil {
		return "", err
	}
	return FormatAnalysis(result), nil
}

// RenderChart renders the PNG score chart for a ticker
func (s *Service) RenderChart(ctx context.Context, ticker string) ([]byte, error) {
	result, err := s.GetResult(ctx, ticker, false)
	if err != nil {
		return nil, err
	}
	return RenderAnalysisChart(result)
}

var _ interfaces.ReportService = (*Service)(nil)
