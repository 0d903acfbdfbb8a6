package domfind

import (
	"context"
	"time"

	"github.com/hazyhaar/domfind/driver"
	"github.com/hazyhaar/domfind/internal/metrics"
	"github.com/hazyhaar/domfind/locator"
	"github.com/hazyhaar/domfind/retry"
)

// Result is a successful resolution: a live element plus the trail of
// everything tried on the way to it.
type Result struct {
	Element  driver.Element
	Winner   locator.Candidate
	Healed   bool // Winner came from the healing registry on this call
	Attempts []Attempt
	Elapsed  time.Duration
}

// Resolve walks the chain's effective order until one candidate yields a
// visible element. Every candidate attempt is recorded in the ledger;
// failures feed the degradation monitor. A stale reference is retried
// once in place before the walk advances. When every candidate is
// exhausted the healing registry gets one pass; if that also fails,
// Resolve captures a diagnostic and returns *ExhaustedError carrying the
// complete attempt trail.
//
// Cancelling ctx aborts the current wait early: the in-progress attempt
// is recorded as a timeout, the walk stops, and the returned error
// matches ctx.Err() via errors.Is.
func (f *Finder) Resolve(ctx context.Context, chain *locator.Chain) (*Result, error) {
	start := time.Now()
	order := f.engine.EffectiveOrder(chain)
	attempts := make([]Attempt, 0, len(order))

	for i, cand := range order {
		el, att := f.attemptCandidate(ctx, chain, i, len(order), cand)
		attempts = append(attempts, att)

		if att.Outcome == OutcomeSuccess {
			metrics.Resolutions.WithLabelValues(chain.ID(), "resolved").Inc()
			return &Result{
				Element:  el,
				Winner:   cand,
				Attempts: attempts,
				Elapsed:  time.Since(start),
			}, nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	return f.exhausted(ctx, chain, attempts, start)
}

// exhausted runs the healing pass and builds the terminal failure when it
// comes up empty. Caller cancellation skips healing and capture: the
// chain was not proven dead, the caller ran out of budget.
func (f *Finder) exhausted(ctx context.Context, chain *locator.Chain, attempts []Attempt, start time.Time) (*Result, error) {
	if ctx.Err() == nil {
		res, trail, ok := f.heal(ctx, chain, attempts)
		if ok {
			res.Elapsed = time.Since(start)
			metrics.Resolutions.WithLabelValues(chain.ID(), "healed").Inc()
			return res, nil
		}
		attempts = trail
	}

	elapsed := time.Since(start)
	exh := &ExhaustedError{
		ChainID:  chain.ID(),
		Attempts: attempts,
		Elapsed:  elapsed,
		cause:    ctx.Err(),
	}

	if ctx.Err() == nil && f.capture != nil {
		ref, err := f.capture.CaptureFailure(ctx, renderDiagnostic(chain, attempts, elapsed))
		if err != nil {
			f.logger.Warn("domfind: failure capture failed", "chain", chain.ID(), "error", err)
		} else {
			exh.CaptureRef = ref
		}
	}

	metrics.Resolutions.WithLabelValues(chain.ID(), "exhausted").Inc()
	f.logger.Error("domfind: resolution exhausted",
		"chain", chain.ID(),
		"attempts", len(attempts),
		"elapsed", elapsed,
		"capture", exh.CaptureRef)
	return nil, exh
}

// heal asks the registry for a rescue candidate, verifying proposals by
// actually resolving them. On success the rescue is promoted to the front
// of the chain's effective order for the rest of the session and the
// verify resolution is counted as a ledger success.
func (f *Finder) heal(ctx context.Context, chain *locator.Chain, attempts []Attempt) (*Result, []Attempt, bool) {
	var rescuedEl driver.Element

	verify := func(vctx context.Context, cand locator.Candidate) error {
		t0 := time.Now()
		el, err := f.tryOnce(vctx, cand)
		if err != nil {
			return err
		}
		f.engine.Record(chain.ID(), cand, true, time.Since(t0))
		rescuedEl = el
		return nil
	}

	cand, healAttempts, ok := f.healer.Heal(ctx, f.drv, chain.ID(), chain.Hint(), verify)

	for _, ha := range healAttempts {
		outcome := OutcomeSuccess
		if ha.Err != nil {
			outcome = classifyOutcome(ha.Err)
		}
		attempts = append(attempts, Attempt{
			Index:     len(attempts),
			Candidate: ha.Candidate,
			Outcome:   outcome,
			Latency:   ha.Latency,
			Err:       ha.Err,
			Healed:    true,
		})
	}

	if !ok {
		metrics.HealingAttempts.WithLabelValues(chain.ID(), "failed").Inc()
		return nil, attempts, false
	}

	f.engine.Promote(chain.ID(), cand)
	metrics.HealingAttempts.WithLabelValues(chain.ID(), "rescued").Inc()
	return &Result{
		Element:  rescuedEl,
		Winner:   cand,
		Healed:   true,
		Attempts: attempts,
	}, attempts, true
}

// attemptCandidate runs one candidate attempt end to end: locate with the
// in-place stale retry, fold the outcome into ledger, monitor, metrics,
// and the structured attempt log.
func (f *Finder) attemptCandidate(ctx context.Context, chain *locator.Chain, idx, total int, cand locator.Candidate) (driver.Element, Attempt) {
	start := time.Now()
	el, err := f.tryOnce(ctx, cand)
	latency := time.Since(start)
	outcome := classifyOutcome(err)

	f.engine.Record(chain.ID(), cand, outcome == OutcomeSuccess, latency)
	if outcome != OutcomeSuccess {
		f.mon.RecordFailure(chain.ID(), cand.String()+": "+err.Error(), time.Now())
		metrics.DegradedChains.WithLabelValues(chain.ID()).Set(boolGauge(f.mon.Degraded(chain.ID())))
	}

	metrics.Attempts.WithLabelValues(chain.ID(), string(cand.Kind), string(outcome)).Inc()
	metrics.AttemptLatency.WithLabelValues(string(cand.Kind)).Observe(latency.Seconds())

	f.logger.Debug("domfind: attempt",
		"chain", chain.ID(),
		"attempt", idx,
		"total", total,
		"strategy", cand.Kind,
		"expr", cand.Expr,
		"outcome", outcome,
		"latency_ms", latency.Milliseconds())

	return el, Attempt{
		Index:     idx,
		Candidate: cand,
		Outcome:   outcome,
		Latency:   latency,
		Err:       err,
	}
}

// tryOnce locates one candidate, retrying exactly once in place when the
// reference goes stale between probe and use. Everything else passes
// through: not-found and timeout advance the walk, caller cancellation
// aborts it.
func (f *Finder) tryOnce(ctx context.Context, cand locator.Candidate) (driver.Element, error) {
	policy := retry.Policy{
		MaxAttempts: 2,
		Classify: func(err error) retry.Class {
			if driver.IsStale(err) {
				return retry.Retryable
			}
			return retry.Fatal
		},
	}

	var el driver.Element
	_, err := policy.Execute(ctx, func(ctx context.Context) error {
		var lerr error
		el, lerr = f.locate(ctx, cand)
		return lerr
	})
	return el, err
}

// locate polls the driver until the candidate matches a visible element,
// bounded by the per-candidate timeout. Outcome mapping: never present is
// ErrNotFound, present but never visible is the wait error (a deadline),
// a probe that kept failing is the last transport error, and the caller's
// own ctx ending is returned as-is so it ranks as a timeout upstream.
func (f *Finder) locate(parent context.Context, cand locator.Candidate) (driver.Element, error) {
	ctx, cancel := context.WithTimeout(parent, f.cfg.PerCandidateTimeout)
	defer cancel()

	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	var lastProbeErr error
	for {
		el, found, err := f.drv.Probe(ctx, cand)
		switch {
		case err != nil:
			if parent.Err() != nil {
				return nil, parent.Err()
			}
			// Transient transport failure: keep polling inside the budget.
			lastProbeErr = err
		case found:
			if err := el.WaitVisible(ctx); err != nil {
				if parent.Err() != nil {
					return nil, parent.Err()
				}
				return nil, err
			}
			return el, nil
		}

		select {
		case <-parent.Done():
			return nil, parent.Err()
		case <-ctx.Done():
			if lastProbeErr != nil {
				return nil, lastProbeErr
			}
			return nil, driver.ErrNotFound
		case <-ticker.C:
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
