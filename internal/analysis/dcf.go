package analysis

import (
	"math"

	"github.com/bobmcallan/stockperf/internal/models"
)

const (
	defaultBeta      = 1.2
	costOfDebt       = 0.05 // pre-tax
	taxRate          = 0.25
	terminalGrowth   = 0.03
	projectionYears  = 5
	terminalMultiple = 20.0 // fallback when WACC does not exceed terminal growth
)

// ValueDCF estimates fair value per share with a five-year discounted cash
// flow model. WACC comes from CAPM with the benchmark's risk-free rate and
// market risk premium; the analyst growth rate decays 10% per projection
// year; the Gordon terminal value applies when WACC exceeds terminal growth.
func ValueDCF(fin *models.Financials, est *models.AnalystEstimates, bench *models.Benchmark, currentPrice float64) (*models.DCFValuation, error) {
	if fin == nil {
		return nil, &models.InsufficientDataError{
			Component: models.ComponentDCFVsPrice,
			Reason:    "financial statements unavailable",
		}
	}

	// Base cash flow with fallbacks for companies reporting negative
	// operating cash flow
	base := fin.OperatingCashFlow
	if base <= 0 {
		switch {
		case fin.NetIncome > 0:
			base = 1.1 * fin.NetIncome
		case fin.Revenue > 0:
			base = 0.1 * fin.Revenue
		default:
			return nil, &models.InsufficientDataError{
				Component: models.ComponentDCFVsPrice,
				Reason:    "no positive cash flow basis",
			}
		}
	}

	if fin.SharesOutstanding <= 0 {
		return nil, &models.InsufficientDataError{
			Component: models.ComponentDCFVsPrice,
			Reason:    "shares outstanding unknown",
		}
	}

	beta := fin.Beta
	if beta <= 0 {
		beta = defaultBeta
	}

	costOfEquity := bench.RiskFreeRate + beta*bench.MarketRiskPremium

	// Capital-structure weighted WACC; all-equity when the balance sheet
	// gives no usable split
	wacc := costOfEquity
	if fin.TotalEquity > 0 && fin.TotalDebt >= 0 {
		total := fin.TotalEquity + fin.TotalDebt
		wacc = (fin.TotalEquity/total)*costOfEquity + (fin.TotalDebt/total)*costOfDebt*(1-taxRate)
	}

	growth := est.GrowthRate
	if growth > 0.25 {
		growth = 0.25
	} else if growth < -0.2 {
		growth = -0.2
	}

	// Project cash flows with decaying growth and discount them
	projected := make([]float64, 0, projectionYears)
	presentValue := 0.0
	cf := base
	for year := 1; year <= projectionYears; year++ {
		g := growth * (1 - 0.1*float64(year-1))
		cf *= 1 + g
		projected = append(projected, cf)
		presentValue += cf / math.Pow(1+wacc, float64(year))
	}

	final := projected[len(projected)-1]
	terminal := terminalMultiple * final
	if wacc > terminalGrowth {
		terminal = final * (1 + terminalGrowth) / (wacc - terminalGrowth)
	}
	presentTerminal := terminal / math.Pow(1+wacc, projectionYears)

	enterprise := presentValue + presentTerminal
	equity := enterprise - fin.TotalDebt
	fairValue := equity / fin.SharesOutstanding

	if fairValue <= 0 {
		return nil, &models.InsufficientDataError{
			Component: models.ComponentDCFVsPrice,
			Reason:    "model produced non-positive fair value",
		}
	}

	valuation := &models.DCFValuation{
		WACC:               wacc,
		GrowthRate:         growth,
		ProjectedCashFlows: projected,
		TerminalValue:      terminal,
		EnterpriseValue:    enterprise,
		EquityValue:        equity,
		FairValue:          fairValue,
	}
	if currentPrice > 0 {
		valuation.Upside = (fairValue - currentPrice) / currentPrice
	}

	return valuation, nil
}
