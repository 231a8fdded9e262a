package peers

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/bobmcallan/stockperf/internal/models"
)

// Sector baseline metrics for synthetic peers. The default row approximates
// a broad-market average.
var sectorBaselines = map[string]map[string]float64{
	"technology": {
		models.MetricPERatio:        25.0,
		models.MetricPriceToSales:   5.2,
		models.MetricPriceToBook:    6.8,
		models.MetricEVToEBITDA:     18.5,
		models.MetricDebtToEquity:   0.3,
		models.MetricReturnOnEquity: 0.22,
		models.MetricReturnOnAssets: 0.14,
		models.MetricNetMargin:      0.18,
		models.MetricRevenueGrowth:  0.15,
	},
	"healthcare": {
		models.MetricPERatio:        22.0,
		models.MetricPriceToSales:   4.0,
		models.MetricPriceToBook:    4.5,
		models.MetricEVToEBITDA:     15.0,
		models.MetricDebtToEquity:   0.5,
		models.MetricReturnOnEquity: 0.15,
		models.MetricReturnOnAssets: 0.08,
		models.MetricNetMargin:      0.12,
		models.MetricRevenueGrowth:  0.08,
	},
	"financial services": {
		models.MetricPERatio:        12.0,
		models.MetricPriceToSales:   3.0,
		models.MetricPriceToBook:    1.5,
		models.MetricEVToEBITDA:     10.0,
		models.MetricDebtToEquity:   1.2,
		models.MetricReturnOnEquity: 0.10,
		models.MetricReturnOnAssets: 0.01,
		models.MetricNetMargin:      0.20,
		models.MetricRevenueGrowth:  0.05,
	},
	"energy": {
		models.MetricPERatio:        15.0,
		models.MetricPriceToSales:   1.2,
		models.MetricPriceToBook:    1.8,
		models.MetricEVToEBITDA:     8.0,
		models.MetricDebtToEquity:   0.8,
		models.MetricReturnOnEquity: 0.12,
		models.MetricReturnOnAssets: 0.06,
		models.MetricNetMargin:      0.10,
		models.MetricRevenueGrowth:  0.03,
	},
	"default": {
		models.MetricPERatio:        18.0,
		models.MetricPriceToSales:   2.5,
		models.MetricPriceToBook:    3.0,
		models.MetricEVToEBITDA:     12.0,
		models.MetricDebtToEquity:   0.6,
		models.MetricReturnOnEquity: 0.15,
		models.MetricReturnOnAssets: 0.07,
		models.MetricNetMargin:      0.12,
		models.MetricRevenueGrowth:  0.08,
	},
}

var sectorNameFragments = map[string][]string{
	"technology":         {"Apex Software", "Nimbus Systems", "Vertex Digital", "Quantum Compute", "Helix Data"},
	"healthcare":         {"Meridian Health", "Cardinal Biotech", "Summit Therapeutics", "Atlas Medical", "Beacon Pharma"},
	"financial services": {"Sterling Capital", "Granite Financial", "Harbor Trust", "Pinnacle Holdings", "Crestline Bancorp"},
	"energy":             {"Basin Resources", "Frontier Energy", "Ridgeline Petroleum", "Windward Power", "Cascade Drilling"},
	"default":            {"Standard Industries", "National Group", "Consolidated Corp", "Premier Enterprises", "Unified Holdings"},
}

func sectorKey(sector string) string {
	key := strings.ToLower(strings.TrimSpace(sector))
	if _, ok := sectorBaselines[key]; ok {
		return key
	}
	return "default"
}

func tickerPrefix(key string) string {
	if key == "default" {
		return "PEER"
	}
	word := strings.Fields(key)[0]
	if len(word) > 4 {
		word = word[:4]
	}
	return strings.ToUpper(word)
}

// SeedForTicker derives a stable generator seed from the target ticker so
// that repeated runs produce the same synthetic peers.
func SeedForTicker(ticker string) int64 {
	h := fnv.New64a()
	h.Write([]byte(models.NormalizeTicker(ticker)))
	return int64(h.Sum64())
}

// GenerateSyntheticPeers produces count synthetic peers for a sector.
// Each metric is the sector baseline scaled by an independent uniform
// factor in [0.7, 1.3]. Pure function of (sector, count, seed).
func GenerateSyntheticPeers(sector string, count int, seed int64) []models.PeerMetrics {
	if count < 1 {
		count = 1
	}

	key := sectorKey(sector)
	baselines := sectorBaselines[key]
	names := sectorNameFragments[key]
	prefix := tickerPrefix(key)
	rng := rand.New(rand.NewSource(seed))

	generated := make([]models.PeerMetrics, 0, count)
	for i := 0; i < count; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}

		metrics := make(map[string]float64, len(baselines))
		// Fixed iteration order keeps the generator deterministic
		for _, metric := range models.CanonicalMetrics() {
			base, ok := baselines[metric]
			if !ok {
				continue
			}
			u := rng.Float64()*0.6 - 0.3
			metrics[metric] = base * (1 + u)
		}

		generated = append(generated, models.PeerMetrics{
			Ticker:  fmt.Sprintf("%s%d", prefix, i+1),
			Name:    name,
			Metrics: metrics,
		})
	}

	return generated
}
