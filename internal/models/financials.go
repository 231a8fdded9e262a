package models

// Financials holds the fundamentals needed by the DCF calculator, taken
// from the latest annual statements.
type Financials struct {
	Ticker            string  `json:"ticker"`
	Revenue           float64 `json:"revenue"`
	NetIncome         float64 `json:"net_income"`
	OperatingCashFlow float64 `json:"operating_cash_flow"`
	TotalDebt         float64 `json:"total_debt"`
	TotalEquity       float64 `json:"total_equity"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	Beta              float64 `json:"beta"` // 0 = unknown
}

// AnalystEstimates holds forward-looking analyst consensus figures.
type AnalystEstimates struct {
	GrowthRate  float64  `json:"growth_rate"` // projected annual growth, fraction
	TargetPrice *float64 `json:"target_price,omitempty"`
}

// PeriodReturn is one calendar year's total return as a fraction.
type PeriodReturn struct {
	Year   int     `json:"year"`
	Return float64 `json:"return"`
}

// Benchmark bundles market context used for CAPM and alpha.
type Benchmark struct {
	Symbol            string         `json:"symbol"`
	Returns           []PeriodReturn `json:"returns"`
	RiskFreeRate      float64        `json:"risk_free_rate"`
	MarketRiskPremium float64        `json:"market_risk_premium"`
}

// ScreenerHit is one row from a sector screener query.
type ScreenerHit struct {
	Symbol string `json:"symbol"`
	Name   string `json:"companyName"`
}
