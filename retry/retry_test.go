package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var errFlaky = errors.New("probe timeout")

// recordingSleep returns a Sleep that records requested delays without waiting.
func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDelay_Formula(t *testing.T) {
	p := Policy{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond}, // capped: 400ms > max
		{10, 300 * time.Millisecond},
		{0, 0},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d): got %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestDelay_NoCap(t *testing.T) {
	p := Policy{InitialDelay: 50 * time.Millisecond, Multiplier: 3}
	if got := p.Delay(3); got != 450*time.Millisecond {
		t.Fatalf("Delay(3) uncapped: got %s, want 450ms", got)
	}
}

func TestExecute_SucceedsAfterRetries(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     5 * time.Second,
		Sleep:        recordingSleep(&delays),
	}

	calls := 0
	stats, err := p.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stats.Attempts != 3 {
		t.Fatalf("Attempts: got %d, want 3", stats.Attempts)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays: got %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d: got %s, want %s", i, delays[i], want[i])
		}
	}
}

func TestExecute_FatalShortCircuit(t *testing.T) {
	errLogic := errors.New("assertion failed: wrong page")
	p := Policy{MaxAttempts: 5, InitialDelay: time.Second, Sleep: recordingSleep(new([]time.Duration))}

	calls := 0
	stats, err := p.Execute(context.Background(), func(context.Context) error {
		calls++
		return errLogic
	})
	if !errors.Is(err, errLogic) {
		t.Fatalf("Execute: got %v, want the fatal error unchanged", err)
	}
	if calls != 1 || stats.Attempts != 1 {
		t.Fatalf("fatal error retried: calls=%d attempts=%d", calls, stats.Attempts)
	}
}

func TestExecute_Exhaustion(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, Sleep: recordingSleep(&delays)}

	_, err := p.Execute(context.Background(), func(context.Context) error {
		return fmt.Errorf("click: %w", errFlaky)
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Execute: got %T, want *ExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("Attempts: got %d, want 3", exhausted.Attempts)
	}
	if !errors.Is(err, errFlaky) {
		t.Fatal("ExhaustedError should unwrap to the last error")
	}
	if len(delays) != 2 {
		t.Fatalf("delays before exhaustion: got %d, want 2", len(delays))
	}
}

func TestExecute_ContextCanceledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, InitialDelay: 10 * time.Second}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := p.Execute(ctx, func(context.Context) error { return errFlaky })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute: got %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Execute: cancellation did not abort the sleep")
	}
}

func TestExecute_NotifyObservesRetries(t *testing.T) {
	var notified []int
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Sleep:        recordingSleep(new([]time.Duration)),
		Notify: func(attempt int, _ error, _ time.Duration) {
			notified = append(notified, attempt)
		},
	}
	_, _ = p.Execute(context.Background(), func(context.Context) error { return errFlaky })
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Fatalf("Notify calls: got %v, want [1 2]", notified)
	}
}

func TestExecute_JitterStaysBounded(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: 80 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     200 * time.Millisecond,
		Jitter:       true,
		Sleep:        recordingSleep(&delays),
	}
	_, _ = p.Execute(context.Background(), func(context.Context) error { return errFlaky })

	for i, d := range delays {
		limit := p.Delay(i + 1)
		if d < 0 || d > limit {
			t.Fatalf("jittered delay %d: got %s, want within [0, %s]", i, d, limit)
		}
	}
}

func TestDefaultClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{errors.New("wait visible: timeout after 3s"), Retryable},
		{errors.New("element reference is stale"), Retryable},
		{errors.New("node detached from document"), Retryable},
		{errors.New("dial tcp: connection refused"), Retryable},
		{errors.New("no such element"), Retryable},
		{errors.New("invalid credentials"), Fatal},
		{context.Canceled, Fatal},
		{context.DeadlineExceeded, Fatal},
		{fmt.Errorf("click: %w", errors.New("connection reset by peer")), Retryable},
	}
	for _, tt := range tests {
		if got := DefaultClassify(tt.err); got != tt.want {
			t.Errorf("DefaultClassify(%v): got %d, want %d", tt.err, got, tt.want)
		}
	}
}
