package retry

import (
	"context"
	"errors"
	"strings"
)

// Class is the retry disposition of an error.
type Class int

const (
	// Retryable errors are transient: the same operation may succeed on
	// the next attempt.
	Retryable Class = iota

	// Fatal errors will not improve with repetition.
	Fatal
)

// transientMarkers are substrings that identify transient failures from
// drivers and transports that do not expose typed errors.
var transientMarkers = []string{
	"timeout",
	"timed out",
	"stale",
	"detached",
	"not found",
	"no such element",
	"not interactable",
	"connection refused",
	"connection reset",
	"broken pipe",
	"network",
	"temporarily unavailable",
}

// DefaultClassify treats context cancellation as fatal and matches known
// transient failure markers in the error text. Everything unrecognized is
// fatal: an assertion or logic error must surface, not burn attempts.
func DefaultClassify(err error) Class {
	if err == nil {
		return Fatal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return Retryable
		}
	}
	return Fatal
}
