// Package report renders analysis results as markdown text and PNG charts.
package report

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/stockperf/internal/models"
)

// FormatAnalysis renders one analysis result as a markdown report.
func FormatAnalysis(result *models.AnalysisResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s - %s\n\n", result.Profile.Ticker, result.Profile.Name))
	sb.WriteString(fmt.Sprintf("**Sector:** %s  \n", orNA(result.Profile.Sector)))
	sb.WriteString(fmt.Sprintf("**Industry:** %s  \n", orNA(result.Profile.Industry)))
	sb.WriteString(fmt.Sprintf("**Price:** $%.2f  \n", result.Profile.CurrentPrice))
	if result.Profile.TargetPrice != nil {
		sb.WriteString(fmt.Sprintf("**Analyst Target:** $%.2f  \n", *result.Profile.TargetPrice))
	}
	sb.WriteString(fmt.Sprintf("**Generated:** %s (run %s)\n\n", result.GeneratedAt.Format("2006-01-02 15:04 UTC"), result.RunID))

	sb.WriteString("## Verdict\n\n")
	sb.WriteString(fmt.Sprintf("- **Score:** %.2f (positive = underperformance)\n", result.Score))
	sb.WriteString(fmt.Sprintf("- **Classification:** %s\n", result.Classification))
	sb.WriteString(fmt.Sprintf("- **Recommendation:** %s\n", result.Recommendation))
	if result.Alpha != nil {
		sb.WriteString(fmt.Sprintf("- **Alpha vs market:** %+.1f%%\n", *result.Alpha*100))
	}
	if result.DCF != nil {
		sb.WriteString(fmt.Sprintf("- **DCF fair value:** $%.2f (%+.1f%% vs price, WACC %.1f%%)\n",
			result.DCF.FairValue, result.DCF.Upside*100, result.DCF.WACC*100))
	}
	sb.WriteString("\n")

	writePeerSection(&sb, result)
	writeComparisonTable(&sb, result)
	writeScoreTable(&sb, result)

	return sb.String()
}

func writePeerSection(sb *strings.Builder, result *models.AnalysisResult) {
	ps := result.PeerSet
	if ps == nil || len(ps.Peers) == 0 {
		sb.WriteString("## Peers\n\nNo peer set available.\n\n")
		return
	}

	sb.WriteString("## Peers\n\n")
	tickers := make([]string, 0, len(ps.Peers))
	for _, p := range ps.Peers {
		tickers = append(tickers, p.Ticker)
	}
	sb.WriteString(fmt.Sprintf("%s (source: `%s`)\n\n", strings.Join(tickers, ", "), ps.Provenance))

	if ps.IsSynthetic() {
		sb.WriteString("> Peer data is **synthetic**, generated from sector baselines after every live source failed. Treat peer-relative signals as indicative only.\n\n")
	}

	if len(ps.Failures) > 0 {
		sb.WriteString("Sources tried before this one:\n\n")
		for _, f := range ps.Failures {
			sb.WriteString(fmt.Sprintf("- `%s`: %s\n", f.Provider, f.Cause))
		}
		sb.WriteString("\n")
	}
}

func writeComparisonTable(sb *strings.Builder, result *models.AnalysisResult) {
	if len(result.Comparison) == 0 {
		return
	}

	sb.WriteString("## Peer Comparison\n\n")
	sb.WriteString("| Metric | Peer Median | Target | Deviation |\n")
	sb.WriteString("|--------|------------:|-------:|----------:|\n")

	for _, metric := range models.CanonicalMetrics() {
		mc, ok := result.Comparison[metric]
		if !ok {
			continue
		}

		target := "n/a"
		if mc.TargetValue != nil {
			target = fmt.Sprintf("%.2f", *mc.TargetValue)
		}
		deviation := "n/a"
		if mc.Deviation != nil {
			deviation = fmt.Sprintf("%+.1f%%", *mc.Deviation*100)
		}

		sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %s |\n",
			metricLabel(metric), mc.PeerMedian, target, deviation))
	}
	sb.WriteString("\n")
}

func writeScoreTable(sb *strings.Builder, result *models.AnalysisResult) {
	sb.WriteString("## Score Components\n\n")

	if len(result.Breakdown.Components) > 0 {
		sb.WriteString("| Component | Raw | Weight | Contribution |\n")
		sb.WriteString("|-----------|----:|-------:|-------------:|\n")
		for _, c := range result.Breakdown.Components {
			sb.WriteString(fmt.Sprintf("| %s | %+.3f | %.1f | %+.3f |\n",
				componentLabel(c.Name), c.Raw, c.Weight, c.Weighted))
		}
		sb.WriteString(fmt.Sprintf("| **Total** | | | **%+.3f** |\n\n", result.Breakdown.Total))
	}

	if len(result.Breakdown.Excluded) > 0 {
		sb.WriteString("Excluded components:\n\n")
		for _, ex := range result.Breakdown.Excluded {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", componentLabel(ex.Name), ex.Reason))
		}
		sb.WriteString("\n")
	}

	w := result.Breakdown.WeightsUsed
	sb.WriteString(fmt.Sprintf("Weights used: returns %.1f, valuation %.1f, profitability %.1f, growth %.1f, dcf %.1f, target %.1f\n",
		w.Returns, w.Valuation, w.Profitability, w.Growth, w.DCF, w.Target))
}

func metricLabel(metric string) string {
	switch metric {
	case models.MetricPERatio:
		return "P/E"
	case models.MetricPriceToSales:
		return "P/S"
	case models.MetricPriceToBook:
		return "P/B"
	case models.MetricEVToEBITDA:
		return "EV/EBITDA"
	case models.MetricDebtToEquity:
		return "Debt/Equity"
	case models.MetricReturnOnEquity:
		return "ROE"
	case models.MetricReturnOnAssets:
		return "ROA"
	case models.MetricNetMargin:
		return "Net Margin"
	case models.MetricRevenueGrowth:
		return "Revenue Growth"
	default:
		return metric
	}
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
