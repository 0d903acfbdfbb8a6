package roddriver

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/domfind/driver"
)

// element adapts a rod element handle to the driver contract. Each verb
// rebinds the handle to the caller's ctx so deadlines cut CDP calls.
type element struct {
	el *rod.Element
}

func (e *element) WaitVisible(ctx context.Context) error {
	if err := e.el.Context(ctx).WaitVisible(); err != nil {
		return mapErr(err)
	}
	return nil
}

// WaitHidden treats a detached node as hidden: an element removed from
// the document has left the page, which is what the caller waited for.
func (e *element) WaitHidden(ctx context.Context) error {
	err := e.el.Context(ctx).WaitInvisible()
	if err == nil {
		return nil
	}
	mapped := mapErr(err)
	if driver.IsStale(mapped) {
		return nil
	}
	return mapped
}

func (e *element) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return mapErr(err)
	}
	return nil
}

// Type replaces the element's value: select everything, then input, so
// the field never keeps its previous content.
func (e *element) Type(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return mapErr(err)
	}
	if err := el.Input(text); err != nil {
		return mapErr(err)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	text, err := e.el.Context(ctx).Text()
	if err != nil {
		return "", mapErr(err)
	}
	return text, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, mapErr(err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Stale asks the page whether the node is still attached. Any evaluation
// failure means the handle is unusable, which is stale for our purposes.
func (e *element) Stale(ctx context.Context) bool {
	res, err := e.el.Context(ctx).Eval(`() => this.isConnected`)
	if err != nil {
		return true
	}
	return !res.Value.Bool()
}
