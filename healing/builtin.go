package healing

import (
	"context"
	"strings"

	"github.com/hazyhaar/domfind/driver"
	"github.com/hazyhaar/domfind/locator"
)

// TestIDContains proposes an element whose data-testid contains a token
// derived from the hint.
func TestIDContains() Strategy {
	return attrContains("data-testid")
}

// AriaLabelContains proposes an element whose aria-label contains a
// token derived from the hint.
func AriaLabelContains() Strategy {
	return attrContains("aria-label")
}

// NameContains proposes an element whose name attribute contains a token
// derived from the hint.
func NameContains() Strategy {
	return attrContains("name")
}

// TextContains proposes an element whose visible text contains the hint.
func TextContains() Strategy {
	return func(ctx context.Context, d driver.Driver, hint string) (locator.Candidate, bool, error) {
		hint = strings.TrimSpace(hint)
		if hint == "" {
			return locator.Candidate{}, false, nil
		}
		cand := locator.TextContains(hint)
		cand.Desc = "healed: " + cand.Desc
		_, found, err := d.Probe(ctx, cand)
		if err != nil || !found {
			return locator.Candidate{}, false, err
		}
		return cand, true, nil
	}
}

func attrContains(attrName string) Strategy {
	return func(ctx context.Context, d driver.Driver, hint string) (locator.Candidate, bool, error) {
		for _, token := range hintTokens(hint) {
			cand := locator.AttrContains(attrName, token)
			cand.Desc = "healed: " + cand.Desc
			_, found, err := d.Probe(ctx, cand)
			if err != nil {
				return locator.Candidate{}, false, err
			}
			if found {
				return cand, true, nil
			}
		}
		return locator.Candidate{}, false, nil
	}
}

// hintTokens turns a hint like "Search button" into probe tokens, most
// specific first: the hint itself, a kebab-case form, then individual
// words long enough to be selective.
func hintTokens(hint string) []string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}

	lower := strings.ToLower(hint)
	kebab := strings.ReplaceAll(lower, " ", "-")

	tokens := []string{hint}
	seen := map[string]struct{}{hint: {}}
	add := func(t string) {
		if _, dup := seen[t]; !dup && t != "" {
			seen[t] = struct{}{}
			tokens = append(tokens, t)
		}
	}
	add(lower)
	add(kebab)
	for _, w := range strings.Fields(lower) {
		if len(w) > 2 {
			add(w)
		}
	}
	return tokens
}
