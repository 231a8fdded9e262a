package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/models"
)

func newTestScorer() *Scorer {
	return NewScorer(DefaultWeights(), common.NewSilentLogger())
}

func floatPtr(v float64) *float64 { return &v }

func comparisonWith(devs map[string]float64) models.ComparisonResult {
	result := make(models.ComparisonResult, len(devs))
	for metric, dev := range devs {
		d := dev
		result[metric] = models.MetricComparison{Metric: metric, PeerMedian: 1, Deviation: &d}
	}
	return result
}

func TestScoreAllComponents(t *testing.T) {
	breakdown := newTestScorer().Score(ScoreInputs{
		Alpha: floatPtr(0.05), // outperformed the market by 5 points
		Comparison: comparisonWith(map[string]float64{
			models.MetricPERatio:        0.30,
			models.MetricPriceToSales:   0.10,
			models.MetricReturnOnEquity: -0.20,
			models.MetricRevenueGrowth:  -0.10,
		}),
		FairValue:    floatPtr(100),
		CurrentPrice: 110,
		TargetPrice:  floatPtr(120),
	})

	require.Len(t, breakdown.Components, 6)
	assert.Empty(t, breakdown.Excluded)

	byName := make(map[string]models.ScoreComponent)
	for _, c := range breakdown.Components {
		byName[c.Name] = c
	}

	assert.InDelta(t, -0.05, byName[models.ComponentReturnsVsMarket].Raw, 1e-9)
	assert.InDelta(t, 0.20, byName[models.ComponentValuationVsPeers].Raw, 1e-9)     // mean(0.30, 0.10)
	assert.InDelta(t, 0.20, byName[models.ComponentProfitabilityVsPeers].Raw, 1e-9) // -(-0.20)
	assert.InDelta(t, 0.10, byName[models.ComponentGrowthVsPeers].Raw, 1e-9)
	assert.InDelta(t, 0.10, byName[models.ComponentDCFVsPrice].Raw, 1e-9)            // (110-100)/100
	assert.InDelta(t, -1.0/12.0, byName[models.ComponentPriceVsTarget].Raw, 1e-9)    // (110-120)/120

	// Total is the weighted sum
	expected := 0.0
	for _, c := range breakdown.Components {
		expected += c.Weighted
	}
	assert.InDelta(t, expected, breakdown.Total, 1e-9)

	assert.Equal(t, DefaultWeights(), breakdown.WeightsUsed)
}

func TestScoreExcludesUnknownInputs(t *testing.T) {
	breakdown := newTestScorer().Score(ScoreInputs{
		CurrentPrice: 50,
		Comparison:   models.ComparisonResult{},
	})

	assert.Empty(t, breakdown.Components)
	assert.Zero(t, breakdown.Total)
	require.Len(t, breakdown.Excluded, 6)

	reasons := make(map[string]string)
	for _, ex := range breakdown.Excluded {
		reasons[ex.Name] = ex.Reason
	}
	assert.Contains(t, reasons[models.ComponentReturnsVsMarket], "unavailable")
	assert.Contains(t, reasons[models.ComponentPriceVsTarget], "target")
}

func TestScoreMissingTargetPriceOmitsComponentOnly(t *testing.T) {
	breakdown := newTestScorer().Score(ScoreInputs{
		Alpha:        floatPtr(-0.10),
		CurrentPrice: 50,
		Comparison:   models.ComparisonResult{},
	})

	require.Len(t, breakdown.Components, 1)
	assert.Equal(t, models.ComponentReturnsVsMarket, breakdown.Components[0].Name)
	// -alpha * weight = 0.10 * 2.0
	assert.InDelta(t, 0.20, breakdown.Total, 1e-9)

	for _, ex := range breakdown.Excluded {
		assert.NotEqual(t, models.ComponentReturnsVsMarket, ex.Name)
	}
}

func TestScorerZeroWeightsFallBackToDefaults(t *testing.T) {
	s := NewScorer(models.ScoringWeights{}, common.NewSilentLogger())
	breakdown := s.Score(ScoreInputs{Alpha: floatPtr(-1), CurrentPrice: 1})
	assert.Equal(t, DefaultWeights(), breakdown.WeightsUsed)
}

func TestClassificationAndRecommendationLabels(t *testing.T) {
	// Labels are part of the output contract; consumers match on the
	// literal strings.
	assert.Equal(t, "Outperforming expectations", Classify(-3))
	assert.Equal(t, "Performing in line with expectations", Classify(-2))
	assert.Equal(t, "Slightly underperforming", Classify(0))
	assert.Equal(t, "Moderately underperforming", Classify(2))
	assert.Equal(t, "Significantly underperforming", Classify(4))

	assert.Equal(t, "BUY", Recommend(-3))
	assert.Equal(t, "HOLD/ACCUMULATE", Recommend(-2))
	assert.Equal(t, "HOLD/WATCH", Recommend(0))
	assert.Equal(t, "REDUCE", Recommend(2))
	assert.Equal(t, "SELL/AVOID", Recommend(5))
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score          float64
		classification string
		recommendation string
	}{
		{-5, ClassOutperforming, RecommendBuy},
		{-2.0001, ClassOutperforming, RecommendBuy},
		{-2, ClassInLine, RecommendAccumulate}, // boundaries are lower-inclusive
		{-0.5, ClassInLine, RecommendAccumulate},
		{0, ClassSlightlyUnder, RecommendWatch},
		{1.99, ClassSlightlyUnder, RecommendWatch},
		{2, ClassModeratelyUnder, RecommendReduce},
		{3.5, ClassModeratelyUnder, RecommendReduce},
		{4, ClassSignificantlyUnder, RecommendAvoid},
		{10, ClassSignificantlyUnder, RecommendAvoid},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.classification, Classify(tc.score), "score %.4f", tc.score)
		assert.Equal(t, tc.recommendation, Recommend(tc.score), "score %.4f", tc.score)
	}
}
