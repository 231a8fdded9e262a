package models

import "time"

// Score component names. Positive contribution = underperformance.
const (
	ComponentReturnsVsMarket      = "returns_vs_market"
	ComponentValuationVsPeers     = "valuation_vs_peers"
	ComponentProfitabilityVsPeers = "profitability_vs_peers"
	ComponentGrowthVsPeers        = "growth_vs_peers"
	ComponentDCFVsPrice           = "dcf_vs_price"
	ComponentPriceVsTarget        = "price_vs_target"
)

// MetricComparison holds one canonical metric compared against the peer
// median. TargetValue and Deviation are nil when unknown.
type MetricComparison struct {
	Metric      string   `json:"metric"`
	PeerMedian  float64  `json:"peer_median"`
	TargetValue *float64 `json:"target_value,omitempty"`
	Deviation   *float64 `json:"deviation,omitempty"`
}

// ComparisonResult maps canonical metric names to their peer comparison.
// Metrics with no known peer values are absent entirely.
type ComparisonResult map[string]MetricComparison

// Deviation returns the signed relative deviation for a metric, if known.
func (c ComparisonResult) Deviation(metric string) (float64, bool) {
	mc, ok := c[metric]
	if !ok || mc.Deviation == nil {
		return 0, false
	}
	return *mc.Deviation, true
}

// ScoringWeights controls the relative importance of each score component.
type ScoringWeights struct {
	Returns       float64 `toml:"returns" json:"returns"`
	Valuation     float64 `toml:"valuation" json:"valuation"`
	Profitability float64 `toml:"profitability" json:"profitability"`
	Growth        float64 `toml:"growth" json:"growth"`
	DCF           float64 `toml:"dcf" json:"dcf"`
	Target        float64 `toml:"target" json:"target"`
}

// ScoreComponent is one signed, weighted contribution to the final score.
type ScoreComponent struct {
	Name     string  `json:"name"`
	Raw      float64 `json:"raw"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// ExcludedComponent records a component left out of the score and why.
type ExcludedComponent struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ScoreBreakdown is the full scoring outcome: included components, excluded
// components with reasons, the weight set used, and the composite total.
type ScoreBreakdown struct {
	Components  []ScoreComponent    `json:"components"`
	Excluded    []ExcludedComponent `json:"excluded,omitempty"`
	WeightsUsed ScoringWeights      `json:"weights_used"`
	Total       float64             `json:"total"`
}

// DCFValuation is the output of the discounted cash flow calculator.
type DCFValuation struct {
	WACC               float64   `json:"wacc"`
	GrowthRate         float64   `json:"growth_rate"`
	ProjectedCashFlows []float64 `json:"projected_cash_flows"`
	TerminalValue      float64   `json:"terminal_value"`
	EnterpriseValue    float64   `json:"enterprise_value"`
	EquityValue        float64   `json:"equity_value"`
	FairValue          float64   `json:"fair_value"` // per share
	Upside             float64   `json:"upside"`     // (fair - price) / price
}

// AnalysisResult is the immutable outcome of one analysis run.
type AnalysisResult struct {
	RunID          string           `json:"run_id"`
	Profile        StockProfile     `json:"profile"`
	PeerSet        *PeerSet         `json:"peer_set"`
	Comparison     ComparisonResult `json:"comparison"`
	Breakdown      ScoreBreakdown   `json:"breakdown"`
	Alpha          *float64         `json:"alpha,omitempty"`
	DCF            *DCFValuation    `json:"dcf,omitempty"`
	Score          float64          `json:"score"`
	Classification string           `json:"classification"`
	Recommendation string           `json:"recommendation"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
