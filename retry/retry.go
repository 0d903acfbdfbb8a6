// Package retry provides a bounded exponential-backoff policy for
// operations that fail transiently: element probes racing a re-render,
// browser transport hiccups, anything where trying again a moment later
// is the correct move. Fatal errors are returned immediately.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy describes how an operation is retried. The zero value attempts
// once with no delay; callers normally set at least MaxAttempts.
type Policy struct {
	MaxAttempts  int           // total attempts, including the first (default 1)
	InitialDelay time.Duration // delay after the first failure
	Multiplier   float64       // backoff growth factor (default 2)
	MaxDelay     time.Duration // cap on a single delay; 0 means no cap
	Jitter       bool          // draw each delay uniformly from [0, delay]

	// Classify decides whether an error is worth retrying.
	// Nil means DefaultClassify.
	Classify func(error) Class

	// Notify, when set, observes each scheduled retry before its delay.
	Notify func(attempt int, err error, delay time.Duration)

	// Sleep is the delay primitive, injectable for tests.
	// Nil means a timer bounded by ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Stats reports what an Execute call actually did.
type Stats struct {
	Attempts int           // attempts performed
	Delayed  time.Duration // total time spent in backoff sleeps
	Elapsed  time.Duration // wall time from first attempt to return
}

// ExhaustedError is returned when every attempt failed with a retryable
// error. It wraps the last error.
type ExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %d attempts over %s: %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Delay returns the backoff delay scheduled after the given 1-based
// failed attempt: min(InitialDelay × Multiplier^(attempt-1), MaxDelay).
// Jitter is not applied here; Execute draws it per sleep.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.InitialDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	f := float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if f > float64(math.MaxInt64) {
		f = float64(math.MaxInt64)
	}
	d := time.Duration(f)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Execute runs op until it succeeds, fails fatally, exhausts MaxAttempts,
// or ctx ends. The returned Stats are valid in every case.
func (p Policy) Execute(ctx context.Context, op func(context.Context) error) (Stats, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassify
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	start := time.Now()
	var stats Stats
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		stats.Attempts = attempt

		err := op(ctx)
		if err == nil {
			stats.Elapsed = time.Since(start)
			return stats, nil
		}
		lastErr = err

		// A dead context always aborts, whatever the classifier says.
		if ctx.Err() != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		if classify(err) == Fatal {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		if attempt == maxAttempts {
			break
		}

		delay := p.Delay(attempt)
		if p.Jitter && delay > 0 {
			delay = time.Duration(rand.Int63n(int64(delay) + 1))
		}
		if p.Notify != nil {
			p.Notify(attempt, err, delay)
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				stats.Delayed += delay
				stats.Elapsed = time.Since(start)
				return stats, err
			}
			stats.Delayed += delay
		}
	}

	stats.Elapsed = time.Since(start)
	return stats, &ExhaustedError{Attempts: stats.Attempts, Elapsed: stats.Elapsed, Last: lastErr}
}

// sleepContext waits for d or for ctx, whichever ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
