package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/models"
)

type fakeAnalysis struct {
	calls int
	fail  bool
}

func (f *fakeAnalysis) Analyze(_ context.Context, ticker string) (*models.AnalysisResult, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("provider down")
	}
	result := sampleResult()
	result.Profile.Ticker = models.NormalizeTicker(ticker)
	return result, nil
}

func (f *fakeAnalysis) AnalyzePortfolio(ctx context.Context, tickers []string) ([]*models.AnalysisResult, error) {
	results := make([]*models.AnalysisResult, 0, len(tickers))
	for _, t := range tickers {
		r, err := f.Analyze(ctx, t)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func TestGetResultRunsOnceAndCaches(t *testing.T) {
	fake := &fakeAnalysis{}
	svc := NewService(fake, common.NewSilentLogger())

	first, err := svc.GetResult(context.Background(), "aapl", false)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", first.Profile.Ticker)
	assert.Equal(t, 1, fake.calls)

	second, err := svc.GetResult(context.Background(), "AAPL", false)
	require.NoError(t, err)
	assert.Same(t, first, second, "stored result is reused, not recomputed")
	assert.Equal(t, 1, fake.calls)
}

func TestGetResultRefreshForcesRun(t *testing.T) {
	fake := &fakeAnalysis{}
	svc := NewService(fake, common.NewSilentLogger())

	_, err := svc.GetResult(context.Background(), "AAPL", false)
	require.NoError(t, err)

	_, err = svc.GetResult(context.Background(), "AAPL", true)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestGetResultPropagatesAnalysisFailure(t *testing.T) {
	svc := NewService(&fakeAnalysis{fail: true}, common.NewSilentLogger())

	_, err := svc.GetResult(context.Background(), "AAPL", false)
	require.Error(t, err)
	assert.Empty(t, svc.List())
}

func TestFormatReportRendersMarkdown(t *testing.T) {
	svc := NewService(&fakeAnalysis{}, common.NewSilentLogger())

	md, err := svc.FormatReport(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Contains(t, md, "# AAPL")
}

func TestStoreAndList(t *testing.T) {
	svc := NewService(&fakeAnalysis{}, common.NewSilentLogger())

	result := sampleResult()
	svc.Store(result)

	list := svc.List()
	require.Len(t, list, 1)
	assert.Same(t, result, list[0])

	// Storing again for the same ticker replaces the previous run
	replacement := sampleResult()
	svc.Store(replacement)
	list = svc.List()
	require.Len(t, list, 1)
	assert.Same(t, replacement, list[0])
}
