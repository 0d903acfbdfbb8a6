// Package healing discovers replacement candidates for chains whose
// declared candidates all failed. Callers register strategies that
// inspect the live page guided by a semantic hint; the first strategy
// whose proposal survives verification wins, and the rescue is cached
// for the rest of the session under the chain's identity.
package healing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/domfind/driver"
	"github.com/hazyhaar/domfind/locator"
)

// Strategy inspects the live page and proposes a rescue candidate for an
// element matching the semantic hint. Returning ok=false means the
// strategy found nothing; an error means the inspection itself failed.
type Strategy func(ctx context.Context, d driver.Driver, hint string) (locator.Candidate, bool, error)

// Attempt is one strategy outcome during a heal pass. The resolver
// appends these to the attempt trail of an exhausted resolution.
type Attempt struct {
	Candidate locator.Candidate
	Proposed  bool          // the strategy proposed a candidate
	Latency   time.Duration // discovery plus verification time
	Err       error         // inspection or verification failure, nil on success
}

// Registry holds strategies and the per-chain rescue cache. It is safe
// for concurrent use.
type Registry struct {
	mu         sync.Mutex
	strategies []Strategy
	cache      map[string]locator.Candidate
	logger     *slog.Logger
}

// NewRegistry creates an empty Registry. A nil logger means slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cache:  make(map[string]locator.Candidate),
		logger: logger,
	}
}

// Register appends a strategy. Strategies run in registration order.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = append(r.strategies, s)
}

// Cached returns the session rescue for a chain, if any.
func (r *Registry) Cached(chainID string) (locator.Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cache[chainID]
	return c, ok
}

// Invalidate drops the cached rescue for a chain.
func (r *Registry) Invalidate(chainID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, chainID)
}

// Clear drops every cached rescue.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]locator.Candidate)
}

// Heal looks for a rescue candidate for the chain. A cached rescue is
// verified first and returned without re-running discovery when it still
// holds; otherwise strategies run in order and the first proposal that
// verify accepts is cached and returned. The returned attempts cover
// everything tried, the successful proposal included.
func (r *Registry) Heal(ctx context.Context, d driver.Driver, chainID, hint string, verify func(context.Context, locator.Candidate) error) (locator.Candidate, []Attempt, bool) {
	var attempts []Attempt

	if cached, ok := r.Cached(chainID); ok {
		start := time.Now()
		err := verify(ctx, cached)
		if err == nil {
			return cached, []Attempt{{Candidate: cached, Proposed: true, Latency: time.Since(start)}}, true
		}
		attempts = append(attempts, Attempt{
			Candidate: cached,
			Proposed:  true,
			Latency:   time.Since(start),
			Err:       fmt.Errorf("healing: cached rescue: %w", err),
		})
		r.Invalidate(chainID)
	}

	r.mu.Lock()
	strategies := make([]Strategy, len(r.strategies))
	copy(strategies, r.strategies)
	r.mu.Unlock()

	for i, s := range strategies {
		if ctx.Err() != nil {
			return locator.Candidate{}, attempts, false
		}

		start := time.Now()
		cand, ok, err := s(ctx, d, hint)
		if err != nil {
			attempts = append(attempts, Attempt{
				Latency: time.Since(start),
				Err:     fmt.Errorf("healing: strategy %d: %w", i, err),
			})
			continue
		}
		if !ok {
			attempts = append(attempts, Attempt{
				Latency: time.Since(start),
				Err:     fmt.Errorf("healing: strategy %d: no proposal for %q: %w", i, hint, driver.ErrNotFound),
			})
			continue
		}

		if err := verify(ctx, cand); err != nil {
			attempts = append(attempts, Attempt{
				Candidate: cand,
				Proposed:  true,
				Latency:   time.Since(start),
				Err:       fmt.Errorf("healing: verify: %w", err),
			})
			continue
		}

		r.mu.Lock()
		r.cache[chainID] = cand
		r.mu.Unlock()

		r.logger.Info("healing: rescue found",
			"chain", chainID, "hint", hint, "strategy", i, "candidate", cand.String())
		attempts = append(attempts, Attempt{Candidate: cand, Proposed: true, Latency: time.Since(start)})
		return cand, attempts, true
	}

	return locator.Candidate{}, attempts, false
}
