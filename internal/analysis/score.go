package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/models"
)

// Classification and recommendation buckets. Boundaries are lower-inclusive:
// a score of exactly 0 is already "slightly underperforming".
const (
	ClassOutperforming      = "Outperforming expectations"
	ClassInLine             = "Performing in line with expectations"
	ClassSlightlyUnder      = "Slightly underperforming"
	ClassModeratelyUnder    = "Moderately underperforming"
	ClassSignificantlyUnder = "Significantly underperforming"

	RecommendBuy        = "BUY"
	RecommendAccumulate = "HOLD/ACCUMULATE"
	RecommendWatch      = "HOLD/WATCH"
	RecommendReduce     = "REDUCE"
	RecommendAvoid      = "SELL/AVOID"
)

// DefaultWeights returns the documented default component weights
func DefaultWeights() models.ScoringWeights {
	return models.ScoringWeights{
		Returns:       2.0,
		Valuation:     1.0,
		Profitability: 1.5,
		Growth:        1.0,
		DCF:           2.0,
		Target:        1.0,
	}
}

// ScoreInputs carries everything the scorer may use. Nil pointers mark
// unknown inputs; their components are excluded, never zero-counted.
type ScoreInputs struct {
	Alpha        *float64
	Comparison   models.ComparisonResult
	FairValue    *float64
	CurrentPrice float64
	TargetPrice  *float64
}

// Scorer combines signed components into the composite underperformance
// score. Positive contributions indicate underperformance.
type Scorer struct {
	weights models.ScoringWeights
	logger  *common.Logger
}

// NewScorer creates a scorer. A zero-valued weight set falls back to the
// documented defaults.
func NewScorer(weights models.ScoringWeights, logger *common.Logger) *Scorer {
	if weights == (models.ScoringWeights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights, logger: logger}
}

// Score evaluates every component against the inputs and returns the full
// breakdown, recording the weight set used and the exclusions.
func (s *Scorer) Score(in ScoreInputs) models.ScoreBreakdown {
	breakdown := models.ScoreBreakdown{WeightsUsed: s.weights}

	include := func(name string, raw, weight float64) {
		weighted := raw * weight
		breakdown.Components = append(breakdown.Components, models.ScoreComponent{
			Name:     name,
			Raw:      raw,
			Weight:   weight,
			Weighted: weighted,
		})
		breakdown.Total += weighted
	}
	exclude := func(name, reason string) {
		breakdown.Excluded = append(breakdown.Excluded, models.ExcludedComponent{
			Name:   name,
			Reason: reason,
		})
		s.logger.Debug().Str("component", name).Str("reason", reason).Msg("Score component excluded")
	}

	// Trailing return vs market: positive alpha is outperformance
	if in.Alpha != nil {
		include(models.ComponentReturnsVsMarket, -*in.Alpha, s.weights.Returns)
	} else {
		exclude(models.ComponentReturnsVsMarket, "trailing returns unavailable")
	}

	// Valuation vs peers: above-median multiples read as expensive
	if devs := knownDeviations(in.Comparison, models.ValuationMetrics()); len(devs) > 0 {
		include(models.ComponentValuationVsPeers, stat.Mean(devs, nil), s.weights.Valuation)
	} else {
		exclude(models.ComponentValuationVsPeers, "no valuation metric comparable to peers")
	}

	// Profitability vs peers: below-median profitability is underperformance
	if devs := knownDeviations(in.Comparison, models.ProfitabilityMetrics()); len(devs) > 0 {
		include(models.ComponentProfitabilityVsPeers, -stat.Mean(devs, nil), s.weights.Profitability)
	} else {
		exclude(models.ComponentProfitabilityVsPeers, "no profitability metric comparable to peers")
	}

	// Revenue growth vs peers
	if dev, ok := in.Comparison.Deviation(models.MetricRevenueGrowth); ok {
		include(models.ComponentGrowthVsPeers, -dev, s.weights.Growth)
	} else {
		exclude(models.ComponentGrowthVsPeers, "revenue growth not comparable to peers")
	}

	// Price vs DCF fair value
	if in.FairValue != nil && *in.FairValue > 0 && in.CurrentPrice > 0 {
		raw := (in.CurrentPrice - *in.FairValue) / *in.FairValue
		include(models.ComponentDCFVsPrice, raw, s.weights.DCF)
	} else {
		exclude(models.ComponentDCFVsPrice, "fair value unavailable")
	}

	// Price vs analyst target
	if in.TargetPrice != nil && *in.TargetPrice > 0 && in.CurrentPrice > 0 {
		raw := (in.CurrentPrice - *in.TargetPrice) / *in.TargetPrice
		include(models.ComponentPriceVsTarget, raw, s.weights.Target)
	} else {
		exclude(models.ComponentPriceVsTarget, "analyst price target unavailable")
	}

	return breakdown
}

func knownDeviations(comparison models.ComparisonResult, metrics []string) []float64 {
	devs := make([]float64, 0, len(metrics))
	for _, metric := range metrics {
		if dev, ok := comparison.Deviation(metric); ok {
			devs = append(devs, dev)
		}
	}
	return devs
}

// Classify maps a composite score to its performance bucket
func Classify(score float64) string {
	switch {
	case score < -2:
		return ClassOutperforming
	case score < 0:
		return ClassInLine
	case score < 2:
		return ClassSlightlyUnder
	case score < 4:
		return ClassModeratelyUnder
	default:
		return ClassSignificantlyUnder
	}
}

// Recommend maps a composite score to an action on the same boundaries
func Recommend(score float64) string {
	switch {
	case score < -2:
		return RecommendBuy
	case score < 0:
		return RecommendAccumulate
	case score < 2:
		return RecommendWatch
	case score < 4:
		return RecommendReduce
	default:
		return RecommendAvoid
	}
}
