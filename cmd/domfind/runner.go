package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/domfind"
)

// runSteps walks the catalog in order and returns how many steps failed.
// A failed step does not stop the run: later chains still get exercised
// so the ledger and health reports cover the whole catalog.
func runSteps(ctx context.Context, f *domfind.Finder, steps []Step, logger *slog.Logger) int {
	failed := 0
	for i, step := range steps {
		if ctx.Err() != nil {
			logger.Warn("domfind: run interrupted", "completed_steps", i)
			return failed
		}
		if err := runStep(ctx, f, step, logger); err != nil {
			failed++
			logger.Error("domfind: step failed",
				"step", i+1,
				"chain", step.Chain.ID,
				"action", step.Action,
				"error", err)
			continue
		}
	}
	return failed
}

func runStep(ctx context.Context, f *domfind.Finder, step Step, logger *slog.Logger) error {
	chain, err := step.Chain.Chain()
	if err != nil {
		return err
	}
	switch step.Action {
	case "resolve":
		res, err := f.Resolve(ctx, chain)
		if err != nil {
			return err
		}
		logger.Info("domfind: resolved",
			"chain", chain.ID(),
			"winner", res.Winner.String(),
			"healed", res.Healed,
			"attempts", len(res.Attempts),
			"elapsed", res.Elapsed)
	case "click":
		if err := f.Click(ctx, chain); err != nil {
			return err
		}
		logger.Info("domfind: clicked", "chain", chain.ID())
	case "type":
		if err := f.Type(ctx, chain, step.Text); err != nil {
			return err
		}
		// Log the length, not the content: catalogs carry credentials.
		logger.Info("domfind: typed", "chain", chain.ID(), "chars", len(step.Text))
	case "text":
		text, err := f.Text(ctx, chain)
		if err != nil {
			return err
		}
		logger.Info("domfind: read text", "chain", chain.ID(), "text", text)
	case "wait_visible":
		if err := f.WaitFor(ctx, chain, domfind.StateVisible); err != nil {
			return err
		}
		logger.Info("domfind: visible", "chain", chain.ID())
	case "wait_hidden":
		if err := f.WaitFor(ctx, chain, domfind.StateHidden); err != nil {
			return err
		}
		logger.Info("domfind: hidden", "chain", chain.ID())
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}
