// Package ranking owns the per-chain metrics ledger and computes the
// effective candidate order from it. Scores blend a recency-weighted
// success rate with a normalized latency penalty, so a candidate that
// recently started failing, or that responds slowly, drifts down the
// order within a handful of observations.
package ranking

import (
	"sort"
	"sync"
	"time"

	"github.com/hazyhaar/domfind/locator"
)

const (
	defaultAlpha         = 0.3  // EWMA weight of the newest observation
	defaultLatencyWeight = 0.25 // share of the score a slow candidate can lose
)

// Stats is one report row for a candidate. Rates are raw counters;
// Score is the decayed value that drives ordering.
type Stats struct {
	Candidate   locator.Candidate `json:"candidate"`
	Successes   uint64            `json:"successes"`
	Failures    uint64            `json:"failures"`
	Samples     uint64            `json:"samples"`
	SuccessRate float64           `json:"success_rate"`
	AvgLatency  time.Duration     `json:"avg_latency"`
	LastUsed    time.Time         `json:"last_used"`
	Score       float64           `json:"score"`
}

type entry struct {
	cand      locator.Candidate
	successes uint64
	failures  uint64
	totalLat  time.Duration
	lastUsed  time.Time
	decayed   float64 // EWMA of the success indicator
}

func (e *entry) samples() uint64 { return e.successes + e.failures }

func (e *entry) successRate() float64 {
	if n := e.samples(); n > 0 {
		return float64(e.successes) / float64(n)
	}
	return 0
}

func (e *entry) avgLatency() time.Duration {
	if n := e.samples(); n > 0 {
		return e.totalLat / time.Duration(n)
	}
	return 0
}

type chainState struct {
	entries map[string]*entry   // keyed by Candidate.Key()
	rescues []locator.Candidate // healed candidates, most recent first
}

// Engine is the mutex-guarded ledger plus ordering logic. One Engine
// serves all chains of a Finder and is safe for concurrent use.
type Engine struct {
	mu            sync.Mutex
	alpha         float64
	latencyWeight float64
	chains        map[string]*chainState
}

// New creates an Engine. Out-of-range parameters fall back to defaults.
func New(alpha, latencyWeight float64) *Engine {
	if alpha <= 0 || alpha > 1 {
		alpha = defaultAlpha
	}
	if latencyWeight < 0 || latencyWeight >= 1 {
		latencyWeight = defaultLatencyWeight
	}
	return &Engine{
		alpha:         alpha,
		latencyWeight: latencyWeight,
		chains:        make(map[string]*chainState),
	}
}

func (g *Engine) chain(chainID string) *chainState {
	cs, ok := g.chains[chainID]
	if !ok {
		cs = &chainState{entries: make(map[string]*entry)}
		g.chains[chainID] = cs
	}
	return cs
}

// Record folds one resolution attempt into the ledger.
func (g *Engine) Record(chainID string, cand locator.Candidate, ok bool, latency time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cs := g.chain(chainID)
	e, seen := cs.entries[cand.Key()]
	if !seen {
		e = &entry{cand: cand}
		cs.entries[cand.Key()] = e
	}

	var x float64
	if ok {
		e.successes++
		x = 1
	} else {
		e.failures++
	}
	if e.samples() == 1 {
		e.decayed = x
	} else {
		e.decayed = g.alpha*x + (1-g.alpha)*e.decayed
	}
	e.totalLat += latency
	e.lastUsed = time.Now()
}

// Promote pins a healed candidate to the front of the chain's effective
// order for the rest of the session. The most recent rescue ranks first.
func (g *Engine) Promote(chainID string, cand locator.Candidate) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cs := g.chain(chainID)
	kept := cs.rescues[:0]
	for _, r := range cs.rescues {
		if r.Key() != cand.Key() {
			kept = append(kept, r)
		}
	}
	cs.rescues = append([]locator.Candidate{cand}, kept...)
}

// DropRescues forgets the chain's promoted candidates.
func (g *Engine) DropRescues(chainID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cs, ok := g.chains[chainID]; ok {
		cs.rescues = nil
	}
}

// Reset clears the chain's counters. Promoted rescues survive; they are
// session state, not metrics.
func (g *Engine) Reset(chainID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cs, ok := g.chains[chainID]; ok {
		cs.entries = make(map[string]*entry)
	}
}

// EffectiveOrder returns the order in which the chain's candidates should
// be tried right now. Observed candidates are stable-sorted by score into
// the slots they collectively occupy; candidates never tried keep their
// declared position; promoted rescues are prepended.
func (g *Engine) EffectiveOrder(chain *locator.Chain) []locator.Candidate {
	g.mu.Lock()
	defer g.mu.Unlock()

	cands := chain.Candidates()
	cs, ok := g.chains[chain.ID()]
	if !ok {
		return cands
	}

	maxLat := g.maxAvgLatency(cs, cands)

	// Split declared positions into observed and cold.
	var observed []int // declared indexes with at least one sample
	for i, c := range cands {
		if e, found := cs.entries[c.Key()]; found && e.samples() > 0 {
			observed = append(observed, i)
		}
	}

	out := make([]locator.Candidate, len(cands))
	copy(out, cands)
	if len(observed) > 1 {
		slots := append([]int(nil), observed...)
		sort.SliceStable(observed, func(a, b int) bool {
			sa := g.score(cs.entries[cands[observed[a]].Key()], maxLat)
			sb := g.score(cs.entries[cands[observed[b]].Key()], maxLat)
			return sa > sb
		})
		for k, idx := range observed {
			out[slots[k]] = cands[idx]
		}
	}

	if len(cs.rescues) == 0 {
		return out
	}

	// Prepend rescues, dropping declared duplicates.
	promoted := make(map[string]struct{}, len(cs.rescues))
	merged := make([]locator.Candidate, 0, len(out)+len(cs.rescues))
	for _, r := range cs.rescues {
		promoted[r.Key()] = struct{}{}
		merged = append(merged, r)
	}
	for _, c := range out {
		if _, dup := promoted[c.Key()]; !dup {
			merged = append(merged, c)
		}
	}
	return merged
}

// score must be called with the lock held.
func (g *Engine) score(e *entry, maxLat time.Duration) float64 {
	s := e.decayed
	if maxLat > 0 {
		s -= g.latencyWeight * (float64(e.avgLatency()) / float64(maxLat))
	}
	return s
}

func (g *Engine) maxAvgLatency(cs *chainState, cands []locator.Candidate) time.Duration {
	var worst time.Duration
	for _, c := range cands {
		if e, ok := cs.entries[c.Key()]; ok && e.avgLatency() > worst {
			worst = e.avgLatency()
		}
	}
	return worst
}

// Report returns one row per declared candidate in declared order,
// followed by promoted rescues that are not part of the declaration.
// Reading never mutates the ledger.
func (g *Engine) Report(chain *locator.Chain) []Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	cands := chain.Candidates()
	cs, ok := g.chains[chain.ID()]
	if !ok {
		cs = &chainState{entries: map[string]*entry{}}
	}
	maxLat := g.maxAvgLatency(cs, cands)

	declared := make(map[string]struct{}, len(cands))
	out := make([]Stats, 0, len(cands)+len(cs.rescues))
	for _, c := range cands {
		declared[c.Key()] = struct{}{}
		out = append(out, g.statsFor(cs, c, maxLat))
	}
	for _, r := range cs.rescues {
		if _, dup := declared[r.Key()]; !dup {
			out = append(out, g.statsFor(cs, r, maxLat))
		}
	}
	return out
}

func (g *Engine) statsFor(cs *chainState, c locator.Candidate, maxLat time.Duration) Stats {
	e, ok := cs.entries[c.Key()]
	if !ok {
		return Stats{Candidate: c}
	}
	return Stats{
		Candidate:   c,
		Successes:   e.successes,
		Failures:    e.failures,
		Samples:     e.samples(),
		SuccessRate: e.successRate(),
		AvgLatency:  e.avgLatency(),
		LastUsed:    e.lastUsed,
		Score:       g.score(e, maxLat),
	}
}
