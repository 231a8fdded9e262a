package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockperf/internal/models"
)

func peersWithPE(values ...float64) []models.PeerMetrics {
	peers := make([]models.PeerMetrics, len(values))
	for i, v := range values {
		peers[i] = models.PeerMetrics{
			Ticker:  string(rune('A' + i)),
			Name:    "Peer",
			Metrics: map[string]float64{models.MetricPERatio: v},
		}
	}
	return peers
}

func TestCompareMedianAndDeviation(t *testing.T) {
	target := map[string]float64{models.MetricPERatio: 40}
	result := Compare(target, peersWithPE(25, 30, 35))

	mc, ok := result[models.MetricPERatio]
	require.True(t, ok)
	assert.InDelta(t, 30.0, mc.PeerMedian, 1e-9)
	require.NotNil(t, mc.TargetValue)
	assert.InDelta(t, 40.0, *mc.TargetValue, 1e-9)
	require.NotNil(t, mc.Deviation)
	assert.InDelta(t, 1.0/3.0, *mc.Deviation, 1e-9)
}

func TestCompareEvenCountAveragesMiddleValues(t *testing.T) {
	result := Compare(nil, peersWithPE(10, 20, 30, 40))

	mc := result[models.MetricPERatio]
	assert.InDelta(t, 25.0, mc.PeerMedian, 1e-9)
}

func TestCompareIgnoresUnknownPeerValues(t *testing.T) {
	peers := append(peersWithPE(25, 30, 35),
		models.PeerMetrics{Ticker: "X", Name: "No PE", Metrics: map[string]float64{}})

	result := Compare(nil, peers)
	assert.InDelta(t, 30.0, result[models.MetricPERatio].PeerMedian, 1e-9)
}

func TestCompareZeroMedianLeavesDeviationUnknown(t *testing.T) {
	target := map[string]float64{models.MetricRevenueGrowth: 0.1}
	peers := []models.PeerMetrics{
		{Ticker: "A", Name: "A", Metrics: map[string]float64{models.MetricRevenueGrowth: -0.1}},
		{Ticker: "B", Name: "B", Metrics: map[string]float64{models.MetricRevenueGrowth: 0.0}},
		{Ticker: "C", Name: "C", Metrics: map[string]float64{models.MetricRevenueGrowth: 0.1}},
	}

	result := Compare(target, peers)
	mc, ok := result[models.MetricRevenueGrowth]
	require.True(t, ok)
	assert.Zero(t, mc.PeerMedian)
	assert.Nil(t, mc.Deviation, "deviation undefined when the median is zero")
}

func TestCompareUnknownTargetLeavesDeviationUnknown(t *testing.T) {
	result := Compare(map[string]float64{}, peersWithPE(25, 30, 35))

	mc := result[models.MetricPERatio]
	assert.Nil(t, mc.TargetValue)
	assert.Nil(t, mc.Deviation)
}

func TestCompareNegativeMedianUsesAbsoluteValue(t *testing.T) {
	target := map[string]float64{models.MetricNetMargin: -0.05}
	peers := []models.PeerMetrics{
		{Ticker: "A", Name: "A", Metrics: map[string]float64{models.MetricNetMargin: -0.10}},
	}

	result := Compare(target, peers)
	mc := result[models.MetricNetMargin]
	require.NotNil(t, mc.Deviation)
	// (-0.05 - -0.10) / |-0.10| = +0.5: less negative margin reads as above median
	assert.InDelta(t, 0.5, *mc.Deviation, 1e-9)
}

func TestCompareMetricWithNoKnownPeersExcluded(t *testing.T) {
	result := Compare(nil, peersWithPE(25, 30))
	_, ok := result[models.MetricDebtToEquity]
	assert.False(t, ok)
}
