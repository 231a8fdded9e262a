// Package peers acquires comparable companies for a target stock: a chain
// of provider-backed sources with a synthetic generator as the terminal
// step, plus the normalizer that maps provider payloads onto canonical
// metrics.
package peers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bobmcallan/stockperf/internal/models"
)

// fieldMapping describes how one provider's payload maps onto the canonical
// metric set. All provider-specific field names and unit fixes live here.
type fieldMapping struct {
	tickerField string
	nameField   string
	metrics     map[string]string  // canonical metric -> provider field
	scales      map[string]float64 // canonical metric -> multiplier
}

var providerMappings = map[string]fieldMapping{
	"fmp": {
		tickerField: "symbol",
		nameField:   "companyName",
		metrics: map[string]string{
			models.MetricPERatio:        "priceEarningsRatioTTM",
			models.MetricPriceToSales:   "priceToSalesRatioTTM",
			models.MetricPriceToBook:    "priceToBookRatioTTM",
			models.MetricEVToEBITDA:     "enterpriseValueMultipleTTM",
			models.MetricDebtToEquity:   "debtEquityRatioTTM",
			models.MetricReturnOnEquity: "returnOnEquityTTM",
			models.MetricReturnOnAssets: "returnOnAssetsTTM",
			models.MetricNetMargin:      "netProfitMarginTTM",
		},
	},
	"alphavantage": {
		tickerField: "Symbol",
		nameField:   "Name",
		metrics: map[string]string{
			models.MetricPERatio:        "PERatio",
			models.MetricPriceToSales:   "PriceToSalesRatioTTM",
			models.MetricPriceToBook:    "PriceToBookRatio",
			models.MetricEVToEBITDA:     "EVToEBITDA",
			models.MetricReturnOnEquity: "ReturnOnEquityTTM",
			models.MetricReturnOnAssets: "ReturnOnAssetsTTM",
			models.MetricNetMargin:      "ProfitMargin",
			models.MetricRevenueGrowth:  "QuarterlyRevenueGrowthYOY",
		},
	},
	"yahoo": {
		tickerField: "symbol",
		nameField:   "longName",
		metrics: map[string]string{
			models.MetricPERatio:        "trailingPE",
			models.MetricPriceToSales:   "priceToSalesTrailing12Months",
			models.MetricPriceToBook:    "priceToBook",
			models.MetricEVToEBITDA:     "enterpriseToEbitda",
			models.MetricDebtToEquity:   "debtToEquity",
			models.MetricReturnOnEquity: "returnOnEquity",
			models.MetricReturnOnAssets: "returnOnAssets",
			models.MetricNetMargin:      "profitMargins",
			models.MetricRevenueGrowth:  "revenueGrowth",
		},
		scales: map[string]float64{
			models.MetricDebtToEquity: 0.01, // Yahoo reports D/E as a percentage
		},
	},
	"finnhub": {
		tickerField: "symbol",
		nameField:   "name",
		metrics: map[string]string{
			models.MetricPERatio:        "peTTM",
			models.MetricPriceToSales:   "psTTM",
			models.MetricPriceToBook:    "pb",
			models.MetricDebtToEquity:   "totalDebt/totalEquityQuarterly",
			models.MetricReturnOnEquity: "roeTTM",
			models.MetricReturnOnAssets: "roaTTM",
			models.MetricNetMargin:      "netProfitMarginTTM",
			models.MetricRevenueGrowth:  "revenueGrowthTTMYoy",
		},
		scales: map[string]float64{
			// Finnhub reports profitability and growth as percentages
			models.MetricReturnOnEquity: 0.01,
			models.MetricReturnOnAssets: 0.01,
			models.MetricNetMargin:      0.01,
			models.MetricRevenueGrowth:  0.01,
		},
	},
}

// Normalize maps a raw provider payload onto canonical peer metrics.
// Missing identity fields fail; missing metric fields stay absent so that
// unknown is never conflated with zero.
func Normalize(provider string, payload map[string]any) (*models.PeerMetrics, error) {
	mapping, ok := providerMappings[provider]
	if !ok {
		return nil, &models.NormalizationError{
			Provider: provider,
			Reason:   "no field mapping for provider",
		}
	}

	ticker := toString(payload[mapping.tickerField])
	if ticker == "" {
		return nil, &models.NormalizationError{
			Provider: provider,
			Reason:   fmt.Sprintf("missing identity field %q", mapping.tickerField),
		}
	}
	name := toString(payload[mapping.nameField])
	if name == "" {
		return nil, &models.NormalizationError{
			Provider: provider,
			Reason:   fmt.Sprintf("missing identity field %q", mapping.nameField),
		}
	}

	metrics := make(map[string]float64)
	for canonical, field := range mapping.metrics {
		raw, present := payload[field]
		if !present {
			continue
		}
		v, ok := toFloat(raw)
		if !ok {
			continue
		}
		if scale, scaled := mapping.scales[canonical]; scaled {
			v *= scale
		}
		metrics[canonical] = v
	}

	return &models.PeerMetrics{
		Ticker:  models.NormalizeTicker(ticker),
		Name:    name,
		Metrics: metrics,
	}, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// toFloat converts numeric payload values that may arrive as floats,
// json.Number, or strings. Placeholder strings count as absent.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(t)
		switch s {
		case "", "-", "None", "N/A", "null":
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
