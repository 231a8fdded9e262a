package analysis

import "github.com/bobmcallan/stockperf/internal/models"

// ComputeAlpha returns target return minus benchmark return for the most
// recent year present in both series, or nil when no year overlaps.
// Series are expected most recent first, as the clients return them.
func ComputeAlpha(target, benchmark []models.PeriodReturn) *float64 {
	benchByYear := make(map[int]float64, len(benchmark))
	for _, br := range benchmark {
		benchByYear[br.Year] = br.Return
	}

	for _, tr := range target {
		if br, ok := benchByYear[tr.Year]; ok {
			alpha := tr.Return - br
			return &alpha
		}
	}

	return nil
}
