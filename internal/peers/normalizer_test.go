package peers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockperf/internal/models"
)

func TestNormalizeFMP(t *testing.T) {
	payload := map[string]any{
		"symbol":                "msft",
		"companyName":           "Microsoft Corporation",
		"priceEarningsRatioTTM": 35.2,
		"priceToSalesRatioTTM":  12.1,
		"returnOnEquityTTM":     0.43,
		"netProfitMarginTTM":    0.36,
	}

	pm, err := Normalize("fmp", payload)
	require.NoError(t, err)

	assert.Equal(t, "MSFT", pm.Ticker)
	assert.Equal(t, "Microsoft Corporation", pm.Name)

	pe, ok := pm.Metric(models.MetricPERatio)
	require.True(t, ok)
	assert.InDelta(t, 35.2, pe, 1e-9)

	// Absent fields stay unknown, never zero
	_, ok = pm.Metric(models.MetricDebtToEquity)
	assert.False(t, ok)
	_, ok = pm.Metric(models.MetricRevenueGrowth)
	assert.False(t, ok)
}

func TestNormalizeMissingIdentity(t *testing.T) {
	_, err := Normalize("fmp", map[string]any{"priceEarningsRatioTTM": 20.0})
	require.Error(t, err)

	var normErr *models.NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "fmp", normErr.Provider)
}

func TestNormalizeUnknownProvider(t *testing.T) {
	_, err := Normalize("bloomberg", map[string]any{"symbol": "X", "name": "X"})
	var normErr *models.NormalizationError
	require.ErrorAs(t, err, &normErr)
}

func TestNormalizeAlphaVantageStrings(t *testing.T) {
	payload := map[string]any{
		"Symbol":                    "JNJ",
		"Name":                      "Johnson & Johnson",
		"PERatio":                   "15.3",
		"EVToEBITDA":                "12.8",
		"ProfitMargin":              "0.186",
		"QuarterlyRevenueGrowthYOY": "0.065",
		"PriceToBookRatio":          "None",
		"ReturnOnAssetsTTM":         "-",
	}

	pm, err := Normalize("alphavantage", payload)
	require.NoError(t, err)

	pe, ok := pm.Metric(models.MetricPERatio)
	require.True(t, ok)
	assert.InDelta(t, 15.3, pe, 1e-9)

	growth, ok := pm.Metric(models.MetricRevenueGrowth)
	require.True(t, ok)
	assert.InDelta(t, 0.065, growth, 1e-9)

	// Placeholder strings count as absent
	_, ok = pm.Metric(models.MetricPriceToBook)
	assert.False(t, ok)
	_, ok = pm.Metric(models.MetricReturnOnAssets)
	assert.False(t, ok)
}

func TestNormalizeYahooScalesDebtToEquity(t *testing.T) {
	payload := map[string]any{
		"symbol":       "AAPL",
		"longName":     "Apple Inc.",
		"trailingPE":   29.5,
		"debtToEquity": 152.0, // Yahoo reports a percentage
	}

	pm, err := Normalize("yahoo", payload)
	require.NoError(t, err)

	de, ok := pm.Metric(models.MetricDebtToEquity)
	require.True(t, ok)
	assert.InDelta(t, 1.52, de, 1e-9)
}

func TestNormalizeFinnhubScalesPercentages(t *testing.T) {
	payload := map[string]any{
		"symbol":              "NVDA",
		"name":                "NVDA",
		"roeTTM":              91.5,
		"netProfitMarginTTM":  48.8,
		"revenueGrowthTTMYoy": 114.2,
		"pb":                  45.1,
	}

	pm, err := Normalize("finnhub", payload)
	require.NoError(t, err)

	roe, ok := pm.Metric(models.MetricReturnOnEquity)
	require.True(t, ok)
	assert.InDelta(t, 0.915, roe, 1e-9)

	pb, ok := pm.Metric(models.MetricPriceToBook)
	require.True(t, ok)
	assert.InDelta(t, 45.1, pb, 1e-9)
}

func TestNormalizeZeroIsKnown(t *testing.T) {
	payload := map[string]any{
		"symbol":             "CASH",
		"companyName":        "Cash Rich Corp",
		"debtEquityRatioTTM": 0.0,
	}

	pm, err := Normalize("fmp", payload)
	require.NoError(t, err)

	de, ok := pm.Metric(models.MetricDebtToEquity)
	require.True(t, ok, "an explicit zero is a known value")
	assert.Zero(t, de)
}
