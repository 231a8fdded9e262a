// StockPerf server: HTTP API over the analysis pipeline with scheduled
// watchlist refreshes and a persistent response cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/stockperf/internal/app"
	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/server"
	"github.com/bobmcallan/stockperf/internal/storage/badger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to TOML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	common.LoadVersionFromFile()
	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	cfg, err := common.LoadConfig("stockperf.toml", *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	common.PrintBanner(cfg, logger)

	cache, err := badger.NewCache(logger, cfg.Storage.Path, cfg.Storage.GetCacheTTL())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open response cache")
		os.Exit(1)
	}

	a := app.New(cfg, cache, logger)
	defer a.Close()

	srv := server.New(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}

	common.PrintShutdownBanner(logger)
}
