// Package analysis implements the evaluation pipeline: peer comparison,
// composite underperformance scoring, DCF valuation, and trailing-return
// alpha.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/stockperf/internal/models"
)

// Compare computes the peer median and the target's signed relative
// deviation for every canonical metric. Only known peer values enter the
// median; a metric with no known peer values is excluded entirely. The
// deviation stays unknown when the median is zero or the target value is
// unknown.
func Compare(targetMetrics map[string]float64, peers []models.PeerMetrics) models.ComparisonResult {
	result := make(models.ComparisonResult)

	for _, metric := range models.CanonicalMetrics() {
		values := make([]float64, 0, len(peers))
		for _, peer := range peers {
			if v, ok := peer.Metric(metric); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		sort.Float64s(values)
		median := stat.Quantile(0.5, stat.LinInterp, values, nil)

		mc := models.MetricComparison{
			Metric:     metric,
			PeerMedian: median,
		}

		if tv, ok := targetMetrics[metric]; ok {
			target := tv
			mc.TargetValue = &target
			if median != 0 {
				dev := (tv - median) / math.Abs(median)
				mc.Deviation = &dev
			}
		}

		result[metric] = mc
	}

	return result
}
