// Package monitor tracks resolution failures per chain over a trailing
// time window and flags chains as degraded once failures accumulate past
// a threshold. Degradation clears itself when failures age out of the
// window; there is no background goroutine, entries are evicted lazily
// on record and on query.
package monitor

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	defaultWindow    = 300 * time.Second
	defaultThreshold = 5
)

// ChainHealth is one report row.
type ChainHealth struct {
	ChainID     string    `json:"chain_id"`
	Failures    int       `json:"failures_in_window"`
	LastFailure time.Time `json:"last_failure"`
	LastMessage string    `json:"last_message,omitempty"`
	Degraded    bool      `json:"degraded"`
}

type failure struct {
	at  time.Time
	msg string
}

// Monitor is safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	chains    map[string][]failure
	degraded  map[string]bool // last observed state, for transition logs
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces the time source. Tests use this to age failures out
// of the window without sleeping.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the logger used for state-transition records.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// New creates a Monitor. Non-positive window or threshold fall back to
// the defaults (300s, 5).
func New(window time.Duration, threshold int, opts ...Option) *Monitor {
	if window <= 0 {
		window = defaultWindow
	}
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	m := &Monitor{
		window:    window,
		threshold: threshold,
		chains:    make(map[string][]failure),
		degraded:  make(map[string]bool),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordFailure adds one failure observation for the chain. Timestamps
// are expected to be non-decreasing per chain.
func (m *Monitor) RecordFailure(chainID, msg string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chains[chainID] = append(m.prune(chainID), failure{at: at, msg: msg})
	m.observe(chainID)
}

// Degraded reports whether the chain currently sits at or above the
// failure threshold inside the trailing window.
func (m *Monitor) Degraded(chainID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.chains[chainID]; !ok {
		return false
	}
	m.chains[chainID] = m.prune(chainID)
	return m.observe(chainID)
}

// Reset forgets the chain's failure history.
func (m *Monitor) Reset(chainID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chains, chainID)
	delete(m.degraded, chainID)
}

// Report returns the health of every chain seen so far, sorted by ID.
// Chains whose failures all aged out stay in the report with a zero
// count until Reset.
func (m *Monitor) Report() []ChainHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ChainHealth, 0, len(m.chains))
	for id := range m.chains {
		m.chains[id] = m.prune(id)
		degraded := m.observe(id)

		h := ChainHealth{ChainID: id, Failures: len(m.chains[id]), Degraded: degraded}
		if n := len(m.chains[id]); n > 0 {
			last := m.chains[id][n-1]
			h.LastFailure = last.at
			h.LastMessage = last.msg
		}
		out = append(out, h)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ChainID < out[b].ChainID })
	return out
}

// prune must be called with the lock held. It returns the chain's
// failures still inside the trailing window ending now.
func (m *Monitor) prune(chainID string) []failure {
	cutoff := m.now().Add(-m.window)
	fs := m.chains[chainID]
	keep := 0
	for keep < len(fs) && !fs[keep].at.After(cutoff) {
		keep++
	}
	return fs[keep:]
}

// observe must be called with the lock held. It computes the degraded
// state, logs transitions, and returns the current state.
func (m *Monitor) observe(chainID string) bool {
	now := len(m.chains[chainID]) >= m.threshold
	was := m.degraded[chainID]
	switch {
	case now && !was:
		m.logger.Warn("monitor: chain degraded",
			"chain", chainID, "failures", len(m.chains[chainID]), "window", m.window)
	case !now && was:
		m.logger.Info("monitor: chain recovered", "chain", chainID)
	}
	m.degraded[chainID] = now
	return now
}
