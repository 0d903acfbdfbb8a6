package roddriver

import (
	"errors"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/domfind/driver"
)

// mapErr folds rod's error types into the driver sentinels so the engine
// can classify outcomes without knowing CDP. Unknown errors pass through
// and rank as transient upstream; context errors pass through so caller
// cancellation keeps its identity.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	var (
		objGone     *rod.ObjectNotFoundError
		notFound    *rod.ElementNotFoundError
		notInteract *rod.NotInteractableError
		invisible   *rod.InvisibleShapeError
		covered     *rod.CoveredError
	)
	switch {
	case errors.As(err, &objGone):
		return fmt.Errorf("%w: %v", driver.ErrStale, err)
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %v", driver.ErrNotFound, err)
	case errors.As(err, &notInteract), errors.As(err, &invisible), errors.As(err, &covered):
		return fmt.Errorf("%w: %v", driver.ErrNotInteractable, err)
	}
	return err
}
