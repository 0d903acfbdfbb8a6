// Package roddriver implements the driver boundary on top of go-rod.
// A Session owns the Chrome process (or the connection to a remote one)
// and the page under test; a Driver answers single-shot probes against
// that page. Polling, ordering, and retries stay with the engine.
package roddriver

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/domfind/driver"
	"github.com/hazyhaar/domfind/locator"
)

// Driver probes one rod page. It implements driver.Driver.
type Driver struct {
	page *rod.Page
}

// NewDriver wraps an existing rod page.
func NewDriver(page *rod.Page) *Driver {
	return &Driver{page: page}
}

// Probe translates the candidate into one Has/HasX call against the
// current DOM. It never waits for the element: absence is (nil, false,
// nil), errors are transport or evaluation failures.
func (d *Driver) Probe(ctx context.Context, cand locator.Candidate) (driver.Element, bool, error) {
	page := d.page.Context(ctx)

	var (
		found bool
		el    *rod.Element
		err   error
	)
	switch cand.Kind {
	case locator.KindCSS, locator.KindAttr:
		found, el, err = page.Has(cand.Expr)
	case locator.KindXPath:
		found, el, err = page.HasX(cand.Expr)
	case locator.KindText:
		found, el, err = page.HasX(textXPath(cand.Expr))
	case locator.KindRole:
		found, el, err = page.Has(roleSelector(cand.Expr))
	default:
		return nil, false, fmt.Errorf("roddriver: unsupported candidate kind %q", cand.Kind)
	}
	if err != nil {
		return nil, false, mapErr(err)
	}
	if !found {
		return nil, false, nil
	}
	return &element{el: el}, true, nil
}
