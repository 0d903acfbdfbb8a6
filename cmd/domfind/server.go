package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/domfind"
	"github.com/hazyhaar/domfind/locator"
)

// debugServer exposes the finder's health and ledger state over HTTP so
// a long -serve run can be inspected while it sits on a page.
type debugServer struct {
	finder *domfind.Finder
	chains map[string]*locator.Chain
	logger *slog.Logger
}

func newDebugServer(f *domfind.Finder, chains []*locator.Chain, logger *slog.Logger) *debugServer {
	byID := make(map[string]*locator.Chain, len(chains))
	for _, c := range chains {
		byID[c.ID()] = c
	}
	return &debugServer{finder: f, chains: byID, logger: logger}
}

func (d *debugServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/report", d.handleReport)
	r.Get("/ledger/{chain}", d.handleLedger)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (d *debugServer) handleReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"degraded_chains": d.finder.HealthReport(),
	})
}

func (d *debugServer) handleLedger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chain")
	chain, ok := d.chains[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown chain: " + id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chain":      id,
		"candidates": d.finder.MetricsReport(chain),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("domfind: write response", "error", err)
	}
}

// serveDebug runs the debug server until ctx is cancelled, then shuts
// it down gracefully.
func serveDebug(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("domfind: debug server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("domfind: debug server", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("domfind: debug server shutdown", "error", err)
	}
}
