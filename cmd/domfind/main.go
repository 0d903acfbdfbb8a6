// Command domfind runs locator-chain catalogs against a live page.
//
// Usage:
//
//	domfind -config checkout.yaml                      # run a catalog
//	domfind -config checkout.yaml -url https://staging # override the target
//	domfind -config checkout.yaml -serve :8089         # keep the debug server up
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/hazyhaar/domfind"
	"github.com/hazyhaar/domfind/capture"
	"github.com/hazyhaar/domfind/driver/roddriver"
	"github.com/hazyhaar/domfind/healing"
	"github.com/hazyhaar/domfind/locator"
)

func main() {
	configPath := flag.String("config", "", "path to the catalog YAML file")
	urlOverride := flag.String("url", "", "override the catalog's target URL")
	serveAddr := flag.String("serve", "", "keep a debug HTTP server on this address")
	logFormat := flag.String("log-format", "text", "log output: text or json")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	switch *logFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.RFC3339})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: domfind -config <catalog.yaml> [-url <target>] [-serve <addr>]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *urlOverride, *serveAddr); err != nil {
		logger.Error("domfind: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, urlOverride, serveAddr string) error {
	cat, err := LoadCatalog(configPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if urlOverride != "" {
		cat.TargetURL = urlOverride
	}

	session := roddriver.NewSession(roddriver.SessionConfig{
		RemoteURL:  cat.Browser.RemoteURL,
		Headful:    cat.Browser.Headful,
		Stealth:    cat.Browser.Stealth,
		NavTimeout: cat.Browser.NavTimeout,
		Logger:     logger,
	})
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Close()

	if err := session.Navigate(ctx, cat.TargetURL); err != nil {
		return err
	}
	drv, err := session.Driver()
	if err != nil {
		return err
	}

	opts := []domfind.Option{domfind.WithLogger(logger)}

	// Failure evidence: page screenshots when a directory is configured,
	// otherwise the SQLite diagnostic store.
	switch {
	case cat.ScreenshotDir != "":
		page, err := session.Page()
		if err != nil {
			return err
		}
		shots, err := roddriver.NewScreenshotCapture(page, cat.ScreenshotDir, logger)
		if err != nil {
			return err
		}
		opts = append(opts, domfind.WithCapture(shots))
	case cat.CaptureDB != "":
		store, err := capture.Open(cat.CaptureDB, capture.WithLogger(logger))
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, domfind.WithCapture(store))
	}

	if cat.Pacing > 0 {
		pause := func() { time.Sleep(cat.Pacing) }
		opts = append(opts, domfind.WithHooks(domfind.ActionHooks{PreAction: pause, PostAction: pause}))
	}

	f := domfind.New(drv, &cat.Finder, opts...)
	for _, s := range []healing.Strategy{
		healing.TestIDContains(),
		healing.AriaLabelContains(),
		healing.NameContains(),
		healing.TextContains(),
	} {
		f.RegisterStrategy(s)
	}

	chains := make([]*locator.Chain, 0, len(cat.Steps))
	for _, step := range cat.Steps {
		if c, err := step.Chain.Chain(); err == nil {
			chains = append(chains, c)
		}
	}

	if serveAddr != "" {
		dbg := newDebugServer(f, chains, logger)
		go serveDebug(ctx, serveAddr, dbg.router(), logger)
	}

	failed := runSteps(ctx, f, cat.Steps, logger)
	logger.Info("domfind: run complete", "steps", len(cat.Steps), "failed", failed)
	logReports(f, chains, logger)

	if serveAddr != "" && ctx.Err() == nil {
		logger.Info("domfind: debug server still serving, interrupt to exit", "addr", serveAddr)
		<-ctx.Done()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(cat.Steps))
	}
	return nil
}

// logReports dumps the health and ledger state at the end of a run.
func logReports(f *domfind.Finder, chains []*locator.Chain, logger *slog.Logger) {
	for _, h := range f.HealthReport() {
		logger.Info("domfind: chain health",
			"chain", h.ChainID,
			"degraded", h.Degraded,
			"failures_in_window", h.Failures,
			"last_message", h.LastMessage)
	}
	for _, chain := range chains {
		for _, row := range f.MetricsReport(chain) {
			logger.Info("domfind: ledger",
				"chain", chain.ID(),
				"candidate", row.Candidate.String(),
				"successes", row.Successes,
				"failures", row.Failures,
				"avg_latency", row.AvgLatency,
				"score", row.Score)
		}
	}
}
