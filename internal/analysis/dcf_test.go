package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockperf/internal/models"
)

func testBenchmark() *models.Benchmark {
	return &models.Benchmark{
		Symbol:            "SPY",
		RiskFreeRate:      0.035,
		MarketRiskPremium: 0.055,
	}
}

func TestValueDCFHappyPath(t *testing.T) {
	fin := &models.Financials{
		Ticker:            "ACME",
		Revenue:           1000,
		NetIncome:         150,
		OperatingCashFlow: 200,
		TotalDebt:         100,
		TotalEquity:       400,
		SharesOutstanding: 50,
		Beta:              1.0,
	}
	est := &models.AnalystEstimates{GrowthRate: 0.10}

	v, err := ValueDCF(fin, est, testBenchmark(), 40)
	require.NoError(t, err)

	// WACC = 0.8*(0.035+1.0*0.055) + 0.2*0.05*0.75 = 0.0795
	assert.InDelta(t, 0.0795, v.WACC, 1e-9)
	require.Len(t, v.ProjectedCashFlows, 5)

	// Year 1 grows at the full analyst rate, later years decay 10% per year
	assert.InDelta(t, 220.0, v.ProjectedCashFlows[0], 1e-9)
	assert.InDelta(t, 220.0*1.09, v.ProjectedCashFlows[1], 1e-9)

	assert.Greater(t, v.FairValue, 0.0)
	assert.InDelta(t, (v.FairValue-40)/40, v.Upside, 1e-9)
	assert.InDelta(t, v.EquityValue, v.EnterpriseValue-fin.TotalDebt, 1e-9)
}

func TestValueDCFNetIncomeFallback(t *testing.T) {
	fin := &models.Financials{
		Ticker:            "LOSS",
		Revenue:           1000,
		NetIncome:         100,
		OperatingCashFlow: -50,
		TotalEquity:       300,
		SharesOutstanding: 10,
	}

	v, err := ValueDCF(fin, &models.AnalystEstimates{GrowthRate: 0}, testBenchmark(), 20)
	require.NoError(t, err)

	// Base cash flow = 1.1 * net income; zero growth carries it flat
	assert.InDelta(t, 110.0, v.ProjectedCashFlows[0], 1e-9)
}

func TestValueDCFRevenueFallback(t *testing.T) {
	fin := &models.Financials{
		Ticker:            "BURN",
		Revenue:           500,
		NetIncome:         -80,
		OperatingCashFlow: -50,
		TotalEquity:       300,
		SharesOutstanding: 10,
	}

	v, err := ValueDCF(fin, &models.AnalystEstimates{GrowthRate: 0}, testBenchmark(), 20)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, v.ProjectedCashFlows[0], 1e-9)
}

func TestValueDCFNoCashFlowBasis(t *testing.T) {
	fin := &models.Financials{
		Ticker:            "ZOMBIE",
		Revenue:           0,
		NetIncome:         -80,
		OperatingCashFlow: -50,
		SharesOutstanding: 10,
	}

	_, err := ValueDCF(fin, &models.AnalystEstimates{}, testBenchmark(), 20)
	var insufficientErr *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, models.ComponentDCFVsPrice, insufficientErr.Component)
}

func TestValueDCFSharesUnknown(t *testing.T) {
	fin := &models.Financials{
		Ticker:            "ACME",
		OperatingCashFlow: 100,
	}

	_, err := ValueDCF(fin, &models.AnalystEstimates{}, testBenchmark(), 20)
	var insufficientErr *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
}

func TestValueDCFTerminalMultipleWhenWACCBelowGrowth(t *testing.T) {
	fin := &models.Financials{
		Ticker:            "LOWR",
		OperatingCashFlow: 100,
		TotalEquity:       500,
		SharesOutstanding: 10,
		Beta:              0.1,
	}
	// Cost of equity 0.01 + 0.1*0.01 = 0.011, below the 3% terminal growth
	bench := &models.Benchmark{RiskFreeRate: 0.01, MarketRiskPremium: 0.01}

	v, err := ValueDCF(fin, &models.AnalystEstimates{GrowthRate: 0}, bench, 20)
	require.NoError(t, err)

	final := v.ProjectedCashFlows[len(v.ProjectedCashFlows)-1]
	assert.InDelta(t, 20*final, v.TerminalValue, 1e-9)
}

func TestValueDCFClampsGrowth(t *testing.T) {
	fin := &models.Financials{
		Ticker:            "HYPE",
		OperatingCashFlow: 100,
		TotalEquity:       500,
		SharesOutstanding: 10,
	}

	v, err := ValueDCF(fin, &models.AnalystEstimates{GrowthRate: 3.0}, testBenchmark(), 20)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v.GrowthRate, 1e-9)
}

func TestValueDCFNilFinancials(t *testing.T) {
	_, err := ValueDCF(nil, &models.AnalystEstimates{}, testBenchmark(), 20)
	var insufficientErr *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
}
