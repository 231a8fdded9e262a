// Package models defines data structures for stockperf
package models

import "strings"

// Provenance identifies which data source produced a PeerSet.
type Provenance string

const (
	ProvenanceFMPPeers             Provenance = "fmp_peers"
	ProvenanceFMPScreener          Provenance = "fmp_screener"
	ProvenanceAlphaVantage         Provenance = "alpha_vantage"
	ProvenanceYahooRecommendations Provenance = "yahoo_recommendations"
	ProvenanceFinnhub              Provenance = "finnhub"
	ProvenanceSynthetic            Provenance = "synthetic"
)

// Canonical metric names. Every provider payload is normalized onto these
// keys; downstream code never sees provider-specific field names.
const (
	MetricPERatio        = "pe_ratio"
	MetricPriceToSales   = "price_to_sales"
	MetricPriceToBook    = "price_to_book"
	MetricEVToEBITDA     = "ev_to_ebitda"
	MetricDebtToEquity   = "debt_to_equity"
	MetricReturnOnEquity = "return_on_equity"
	MetricReturnOnAssets = "return_on_assets"
	MetricNetMargin      = "net_margin"
	MetricRevenueGrowth  = "revenue_growth"
)

// CanonicalMetrics returns all canonical metric names in display order.
func CanonicalMetrics() []string {
	return []string{
		MetricPERatio,
		MetricPriceToSales,
		MetricPriceToBook,
		MetricEVToEBITDA,
		MetricDebtToEquity,
		MetricReturnOnEquity,
		MetricReturnOnAssets,
		MetricNetMargin,
		MetricRevenueGrowth,
	}
}

// ValuationMetrics are the multiples compared against peers for the
// valuation score component.
func ValuationMetrics() []string {
	return []string{MetricPERatio, MetricPriceToSales, MetricPriceToBook, MetricEVToEBITDA}
}

// ProfitabilityMetrics are the metrics compared against peers for the
// profitability score component.
func ProfitabilityMetrics() []string {
	return []string{MetricReturnOnEquity, MetricReturnOnAssets, MetricNetMargin}
}

// StockProfile holds the target company's identity and pricing context.
// It is created once per analysis run and immutable afterwards.
type StockProfile struct {
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name"`
	Sector       string   `json:"sector"`
	Industry     string   `json:"industry"`
	CurrentPrice float64  `json:"current_price"`
	TargetPrice  *float64 `json:"target_price,omitempty"` // analyst target; nil when unknown
}

// NormalizeTicker canonicalizes a ticker symbol to uppercase.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// PeerMetrics holds one peer company's normalized metrics. A metric absent
// from the map is unknown, never zero.
type PeerMetrics struct {
	Ticker  string             `json:"ticker"`
	Name    string             `json:"name"`
	Metrics map[string]float64 `json:"metrics"`
}

// Metric returns the named metric value and whether it is known.
func (p *PeerMetrics) Metric(name string) (float64, bool) {
	v, ok := p.Metrics[name]
	return v, ok
}

// HasAnyMetric reports whether at least one metric is known. A peer without
// any known metric is unusable for comparison.
func (p *PeerMetrics) HasAnyMetric() bool {
	return len(p.Metrics) > 0
}

// SourceFailure records one failed step of the peer source chain.
type SourceFailure struct {
	Provider Provenance `json:"provider"`
	Cause    string     `json:"cause"`
}

// PeerSet is the outcome of peer acquisition for one target: an ordered,
// deduplicated set of peers plus the provenance of the source that produced
// them and the failures encountered on the way there.
type PeerSet struct {
	Target     StockProfile    `json:"target"`
	Peers      []PeerMetrics   `json:"peers"`
	Provenance Provenance      `json:"provenance"`
	Failures   []SourceFailure `json:"failures,omitempty"`
}

// IsSynthetic reports whether the peer set was generated rather than fetched.
func (ps *PeerSet) IsSynthetic() bool {
	return ps.Provenance == ProvenanceSynthetic
}
