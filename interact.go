package domfind

import (
	"context"
	"fmt"

	"github.com/hazyhaar/domfind/driver"
	"github.com/hazyhaar/domfind/locator"
)

// State is a page condition WaitFor blocks on.
type State string

const (
	StateVisible State = "visible"
	StateHidden  State = "hidden"
)

// Click resolves the chain and clicks the element, paced by the action
// hooks. An element invalidated between resolution and the click gets
// exactly one fresh resolve+click cycle before the failure is terminal.
func (f *Finder) Click(ctx context.Context, chain *locator.Chain) error {
	return f.act(ctx, chain, "click", true, func(ctx context.Context, el driver.Element) error {
		return el.Click(ctx)
	})
}

// Type resolves the chain and replaces the element's value with text,
// paced by the action hooks. Same re-resolve cycle as Click.
func (f *Finder) Type(ctx context.Context, chain *locator.Chain, text string) error {
	return f.act(ctx, chain, "type", true, func(ctx context.Context, el driver.Element) error {
		return el.Type(ctx, text)
	})
}

// Text resolves the chain and returns the element's visible text.
func (f *Finder) Text(ctx context.Context, chain *locator.Chain) (string, error) {
	var out string
	err := f.act(ctx, chain, "text", false, func(ctx context.Context, el driver.Element) error {
		var rerr error
		out, rerr = el.Text(ctx)
		return rerr
	})
	return out, err
}

// Attribute resolves the chain and returns the named attribute and
// whether it is present on the element.
func (f *Finder) Attribute(ctx context.Context, chain *locator.Chain, name string) (string, bool, error) {
	var (
		out     string
		present bool
	)
	err := f.act(ctx, chain, "attribute", false, func(ctx context.Context, el driver.Element) error {
		var rerr error
		out, present, rerr = el.Attribute(ctx, name)
		return rerr
	})
	return out, present, err
}

// WaitFor blocks until the chain's element reaches the requested state.
// Visible is plain resolution. Hidden resolves the element first, then
// waits for it to leave the page within one per-candidate timeout; a
// chain that never appears fails the same way a plain Resolve would.
func (f *Finder) WaitFor(ctx context.Context, chain *locator.Chain, state State) error {
	switch state {
	case StateVisible, StateHidden:
	default:
		return fmt.Errorf("domfind: unknown wait state %q", state)
	}

	res, err := f.Resolve(ctx, chain)
	if err != nil {
		return err
	}
	if state == StateVisible {
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, f.cfg.PerCandidateTimeout)
	defer cancel()
	if err := res.Element.WaitHidden(wctx); err != nil {
		return &ActionError{Op: "wait_hidden", ChainID: chain.ID(), Err: err}
	}
	return nil
}

// act is the shared resolve-then-do cycle behind every interaction: one
// resolution, the action, and on action failure one more full cycle. A
// failed resolution propagates as-is; a second action failure returns
// *ActionError.
func (f *Finder) act(ctx context.Context, chain *locator.Chain, op string, paced bool, do func(context.Context, driver.Element) error) error {
	var lastErr error
	for cycle := 0; cycle < 2; cycle++ {
		res, err := f.Resolve(ctx, chain)
		if err != nil {
			return err
		}

		if paced && f.hooks.PreAction != nil {
			f.hooks.PreAction()
		}
		err = do(ctx, res.Element)
		if err == nil {
			if paced && f.hooks.PostAction != nil {
				f.hooks.PostAction()
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if cycle == 0 {
			f.logger.Warn("domfind: action failed, re-resolving",
				"chain", chain.ID(), "op", op, "error", err)
		}
	}
	return &ActionError{Op: op, ChainID: chain.ID(), Err: lastErr}
}
