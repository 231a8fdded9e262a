// StockPerf CLI: analyze one or more tickers and print markdown reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/stockperf/internal/app"
	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/models"
	"github.com/bobmcallan/stockperf/internal/report"
	"github.com/bobmcallan/stockperf/internal/storage"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to TOML config file")
	chartDir := flag.String("chart", "", "write a PNG score chart per ticker into this directory")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] TICKER [TICKER...]\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	common.LoadVersionFromFile()
	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	tickers := flag.Args()
	if len(tickers) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := common.LoadConfig("stockperf.toml", *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	// CLI runs use a run-scoped cache so a portfolio never refetches a payload
	a := app.New(cfg, storage.NewMemoryCache(), logger)
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := a.Analysis.AnalyzePortfolio(ctx, tickers)
	if err != nil {
		logger.Error().Err(err).Msg("Analysis failed")
		os.Exit(1)
	}

	for _, result := range results {
		fmt.Println(report.FormatAnalysis(result))
		fmt.Println("---")

		if *chartDir != "" {
			if err := writeChart(*chartDir, result); err != nil {
				logger.Error().Err(err).Str("ticker", result.Profile.Ticker).Msg("Chart render failed")
			}
		}
	}

	if len(results) > 1 {
		printSummary(results)
	}

	if len(results) < len(tickers) {
		os.Exit(1)
	}
}

func writeChart(dir string, result *models.AnalysisResult) error {
	png, err := report.RenderAnalysisChart(result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, result.Profile.Ticker+".png"), png, 0644)
}

// printSummary writes a compact portfolio table, worst score first
func printSummary(results []*models.AnalysisResult) {
	sorted := make([]*models.AnalysisResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	fmt.Println("\n## Portfolio Summary")
	fmt.Println()
	fmt.Printf("%-8s %8s  %-30s %s\n", "TICKER", "SCORE", "CLASSIFICATION", "RECOMMENDATION")
	for _, r := range sorted {
		fmt.Printf("%-8s %8.2f  %-30s %s\n",
			r.Profile.Ticker, r.Score, r.Classification, r.Recommendation)
	}
}
