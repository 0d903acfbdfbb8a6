// Package domfind resolves page elements through ordered candidate
// chains and keeps test automation alive while the DOM drifts. A chain
// declares several ways to locate one element; the Finder tries them in
// an order it continuously re-learns from success rates and latency,
// retries staleness in place, tracks failure bursts per chain, and when
// every declared candidate is gone asks registered healing strategies to
// rediscover the element on the live page.
//
// domfind locates and interacts, it does not navigate. Pointing the
// browser somewhere, asserting on page state, and deciding what a test
// means stay with the caller.
package domfind

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/domfind/driver"
	"github.com/hazyhaar/domfind/healing"
	"github.com/hazyhaar/domfind/internal/monitor"
	"github.com/hazyhaar/domfind/internal/ranking"
	"github.com/hazyhaar/domfind/locator"
)

// CandidateStats is one metrics row for a candidate of a chain.
type CandidateStats = ranking.Stats

// ChainHealth is one degradation report row.
type ChainHealth = monitor.ChainHealth

// FailureCapture stores a diagnostic description when a resolution
// exhausts every candidate, returning an opaque reference. The capture
// package provides a SQLite-backed implementation; driver/roddriver
// saves screenshots behind the same contract.
type FailureCapture interface {
	CaptureFailure(ctx context.Context, description string) (string, error)
}

// ActionHooks pace interactions. Both hooks may be nil; the zero value
// performs actions immediately.
type ActionHooks struct {
	PreAction  func()
	PostAction func()
}

// Finder is the top-level resolution engine. Create one per browser
// session; it is safe for concurrent use across goroutines.
type Finder struct {
	cfg     *Config
	drv     driver.Driver
	engine  *ranking.Engine
	mon     *monitor.Monitor
	healer  *healing.Registry
	capture FailureCapture
	hooks   ActionHooks
	logger  *slog.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the logger. Default: slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) { f.logger = logger }
}

// WithCapture installs the failure-diagnostic collaborator. Without one,
// exhausted resolutions are only logged.
func WithCapture(c FailureCapture) Option {
	return func(f *Finder) { f.capture = c }
}

// WithHooks installs pre/post action pacing hooks.
func WithHooks(h ActionHooks) Option {
	return func(f *Finder) { f.hooks = h }
}

// WithHealing replaces the default empty healing registry, letting
// several Finders share one set of strategies and rescues.
func WithHealing(r *healing.Registry) Option {
	return func(f *Finder) { f.healer = r }
}

// New creates a Finder on top of a driver. A nil cfg means DefaultConfig.
func New(drv driver.Driver, cfg *Config, opts ...Option) *Finder {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		c := *cfg
		c.applyDefaults()
		cfg = &c
	}

	f := &Finder{
		cfg:    cfg,
		drv:    drv,
		engine: ranking.New(cfg.DecayAlpha, cfg.LatencyWeight),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.mon = monitor.New(cfg.FailureWindow, cfg.FailureThreshold, monitor.WithLogger(f.logger))
	if f.healer == nil {
		f.healer = healing.NewRegistry(f.logger)
	}
	return f
}

// RegisterStrategy adds a healing strategy. Strategies run in
// registration order when a chain exhausts its declared candidates.
func (f *Finder) RegisterStrategy(s healing.Strategy) {
	f.healer.Register(s)
}

// EffectiveOrder returns the order Resolve would try the chain's
// candidates right now, promoted rescues included.
func (f *Finder) EffectiveOrder(chain *locator.Chain) []locator.Candidate {
	return f.engine.EffectiveOrder(chain)
}

// MetricsReport returns per-candidate counters for the chain, declared
// candidates first, then session rescues. Reading never mutates state.
func (f *Finder) MetricsReport(chain *locator.Chain) []CandidateStats {
	return f.engine.Report(chain)
}

// ResetMetrics clears the chain's counters. Promoted rescues survive.
func (f *Finder) ResetMetrics(chainID string) {
	f.engine.Reset(chainID)
}

// Degraded reports whether the chain is past the failure threshold
// within the trailing window.
func (f *Finder) Degraded(chainID string) bool {
	return f.mon.Degraded(chainID)
}

// HealthReport returns the degradation state of every chain seen so far.
func (f *Finder) HealthReport() []ChainHealth {
	return f.mon.Report()
}

// ResetHealth forgets the chain's failure history.
func (f *Finder) ResetHealth(chainID string) {
	f.mon.Reset(chainID)
}

// InvalidateHealing drops the chain's cached rescue and its promotion in
// the effective order, forcing rediscovery on the next exhaustion.
func (f *Finder) InvalidateHealing(chainID string) {
	f.healer.Invalidate(chainID)
	f.engine.DropRescues(chainID)
}
