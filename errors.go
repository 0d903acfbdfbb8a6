package domfind

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/domfind/driver"
	"github.com/hazyhaar/domfind/locator"
)

// Outcome classifies how a single candidate attempt ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeNotFound  Outcome = "not_found"       // expression matched nothing within the budget
	OutcomeTimeout   Outcome = "timeout"         // present but never visible, or caller aborted
	OutcomeStale     Outcome = "stale"           // reference went stale, in-place retry included
	OutcomeTransient Outcome = "transient_error" // driver or transport failure
)

// Attempt is one candidate try inside a resolution, in try order.
type Attempt struct {
	Index     int
	Candidate locator.Candidate
	Outcome   Outcome
	Latency   time.Duration
	Err       error // nil on success
	Healed    bool  // proposed by a healing strategy, not declared
}

// ExhaustedError reports a resolution that ran out of candidates, healing
// included. Attempts carries one entry per candidate actually tried.
// CaptureRef, when non-empty, points at the stored diagnostic.
type ExhaustedError struct {
	ChainID    string
	Attempts   []Attempt
	Elapsed    time.Duration
	CaptureRef string

	cause error // context error when the caller's budget aborted the walk
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("domfind: chain %q exhausted after %d attempts in %s",
		e.ChainID, len(e.Attempts), e.Elapsed.Round(time.Millisecond))
	if e.CaptureRef != "" {
		msg += " (diagnostic " + e.CaptureRef + ")"
	}
	return msg
}

func (e *ExhaustedError) Unwrap() error { return e.cause }

// ActionError reports an interaction that failed even after the one
// re-resolve cycle granted to invalidated elements.
type ActionError struct {
	Op      string // click | type | text | attribute | wait_hidden
	ChainID string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("domfind: %s on chain %q: %v", e.Op, e.ChainID, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// classifyOutcome maps an attempt error to its outcome. Order matters:
// staleness and absence carry their own classes even when a deadline
// expired on the way.
func classifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case driver.IsStale(err):
		return OutcomeStale
	case driver.IsNotFound(err):
		return OutcomeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return OutcomeTimeout
	default:
		return OutcomeTransient
	}
}

// renderDiagnostic formats the attempt trail for the capture collaborator.
func renderDiagnostic(chain *locator.Chain, attempts []Attempt, elapsed time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "chain %q exhausted after %d attempts in %s\n",
		chain.ID(), len(attempts), elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "hint: %s\n", chain.Hint())
	for _, a := range attempts {
		marker := ""
		if a.Healed {
			marker = " [healing]"
		}
		fmt.Fprintf(&b, "%2d. %s → %s (%dms)%s", a.Index+1, a.Candidate.String(), a.Outcome, a.Latency.Milliseconds(), marker)
		if a.Err != nil {
			fmt.Fprintf(&b, ": %v", a.Err)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
