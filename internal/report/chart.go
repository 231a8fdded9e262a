package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockperf/internal/models"
)

// RenderAnalysisChart renders a PNG bar chart of the weighted score
// components. Positive bars (underperformance signals) draw red, negative
// bars green. Returns raw PNG bytes.
func RenderAnalysisChart(result *models.AnalysisResult) ([]byte, error) {
	components := result.Breakdown.Components
	if len(components) == 0 {
		return nil, fmt.Errorf("no score components to chart for %s", result.Profile.Ticker)
	}

	red := drawing.ColorFromHex("dc2626")   // red-600
	green := drawing.ColorFromHex("16a34a") // green-600

	bars := make([]chart.Value, 0, len(components))
	for _, c := range components {
		color := green
		if c.Weighted >= 0 {
			color = red
		}
		bars = append(bars, chart.Value{
			Label: componentLabel(c.Name),
			Value: c.Weighted,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
			},
		})
	}

	graph := chart.BarChart{
		Title: fmt.Sprintf("%s - Underperformance Score %.2f (%s)",
			result.Profile.Ticker, result.Score, result.Classification),
		Width:    900,
		Height:   420,
		BarWidth: 80,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

func componentLabel(name string) string {
	switch name {
	case models.ComponentReturnsVsMarket:
		return "Returns"
	case models.ComponentValuationVsPeers:
		return "Valuation"
	case models.ComponentProfitabilityVsPeers:
		return "Profitability"
	case models.ComponentGrowthVsPeers:
		return "Growth"
	case models.ComponentDCFVsPrice:
		return "DCF"
	case models.ComponentPriceVsTarget:
		return "Target"
	default:
		return name
	}
}
