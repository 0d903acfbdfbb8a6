// Package driver defines the boundary between the resolution engine and
// whatever actually drives a browser. The engine owns polling, ordering,
// retries, and healing; a driver only answers single-shot questions about
// the live page and performs primitive actions on elements it returned.
//
// The production implementation lives in driver/roddriver. Tests use fakes.
package driver

import (
	"context"
	"errors"

	"github.com/hazyhaar/domfind/locator"
)

// Sentinel classifications for probe and action failures. Drivers wrap
// their native errors so the engine can route outcomes without knowing
// the underlying protocol.
var (
	// ErrNotFound means the expression matched nothing on the page.
	ErrNotFound = errors.New("driver: element not found")

	// ErrStale means a previously returned element no longer references
	// a live attached DOM node.
	ErrStale = errors.New("driver: element reference is stale")

	// ErrNotInteractable means the element exists but cannot receive the
	// requested action (covered, zero-sized, disabled).
	ErrNotInteractable = errors.New("driver: element not interactable")
)

// IsStale reports whether err is a stale-reference failure.
func IsStale(err error) bool { return errors.Is(err, ErrStale) }

// IsNotFound reports whether err is a no-match failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Driver locates elements. Probe is single-shot: it must return quickly
// with whatever the page holds right now. found=false with a nil error
// means the expression matched nothing; a non-nil error means the probe
// itself failed (transport, evaluation) and says nothing about presence.
type Driver interface {
	Probe(ctx context.Context, cand locator.Candidate) (el Element, found bool, err error)
}

// Element is a live handle to a located DOM node, scoped to the driver
// that produced it. Wait methods block until the state holds or ctx ends.
type Element interface {
	// WaitVisible blocks until the element is rendered and visible.
	WaitVisible(ctx context.Context) error

	// WaitHidden blocks until the element is hidden or detached.
	WaitHidden(ctx context.Context) error

	// Click scrolls the element into view and clicks it.
	Click(ctx context.Context) error

	// Type replaces the element's current value with text.
	Type(ctx context.Context, text string) error

	// Text returns the element's visible text.
	Text(ctx context.Context) (string, error)

	// Attribute returns the named attribute and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Stale reports whether the handle stopped referencing a live node.
	Stale(ctx context.Context) bool
}
