// Package server exposes the analysis pipeline over HTTP and schedules
// watchlist refreshes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/stockperf/internal/app"
	"github.com/bobmcallan/stockperf/internal/common"
)

// Server wraps the HTTP listener and the watchlist refresh scheduler.
type Server struct {
	app        *app.App
	logger     *common.Logger
	httpServer *http.Server
	scheduler  *cron.Cron
}

// New creates a server for the assembled application
func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/chart", s.handleChart)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // analysis runs fan out to slow providers
	}

	return s
}

// Start begins serving and schedules the watchlist refresh. Blocks until
// the listener stops.
func (s *Server) Start() error {
	s.startScheduler()

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the scheduler and drains the HTTP listener
func (s *Server) Shutdown(ctx context.Context) error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) startScheduler() {
	schedule := s.app.Config.Server.RefreshSchedule
	watchlist := s.app.Config.Watchlist
	if schedule == "" || len(watchlist) == 0 {
		s.logger.Info().Msg("Watchlist refresh disabled")
		return
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(schedule, func() {
		s.refreshWatchlist(context.Background())
	})
	if err != nil {
		s.logger.Error().Err(err).Str("schedule", schedule).Msg("Invalid refresh schedule")
		s.scheduler = nil
		return
	}

	s.scheduler.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Int("tickers", len(watchlist)).
		Msg("Watchlist refresh scheduled")
}

func (s *Server) refreshWatchlist(ctx context.Context) {
	for _, ticker := range s.app.Config.Watchlist {
		if _, err := s.app.Report.GetResult(ctx, ticker, true); err != nil {
			s.logger.Error().Err(err).Str("ticker", ticker).Msg("Watchlist refresh failed")
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker parameter required")
		return
	}
	refresh := r.URL.Query().Get("refresh") == "1" || r.URL.Query().Get("refresh") == "true"

	result, err := s.app.Report.GetResult(r.Context(), ticker, refresh)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Analysis request failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker parameter required")
		return
	}

	markdown, err := s.app.Report.FormatReport(r.Context(), ticker)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Report request failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(markdown))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker parameter required")
		return
	}

	png, err := s.app.Report.RenderChart(r.Context(), ticker)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Chart request failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
