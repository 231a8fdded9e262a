package peers

import (
	"strings"

	"github.com/bobmcallan/stockperf/internal/models"
)

// Large-cap candidates per sector, used by sources whose provider has no
// peer endpoint of its own.
var sectorCandidates = map[string][]string{
	"technology":         {"AAPL", "MSFT", "GOOGL", "META", "NVDA", "ORCL", "CRM", "ADBE"},
	"healthcare":         {"JNJ", "PFE", "UNH", "MRK", "ABBV", "LLY", "TMO"},
	"financial services": {"JPM", "BAC", "WFC", "GS", "MS", "C"},
	"energy":             {"XOM", "CVX", "COP", "SLB", "EOG"},
	"default":            {"AAPL", "MSFT", "JNJ", "JPM", "XOM", "PG", "KO"},
}

// candidatesForSector returns sector candidates with the target excluded.
func candidatesForSector(sector, targetTicker string) []string {
	key := strings.ToLower(strings.TrimSpace(sector))
	candidates, ok := sectorCandidates[key]
	if !ok {
		candidates = sectorCandidates["default"]
	}

	target := models.NormalizeTicker(targetTicker)
	filtered := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != target {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
