// Package locator defines the candidate and chain types used to describe
// how an element may be located on a page. These are the public API
// contract: callers declare chains once, hand them to a Finder, and the
// engine decides in which order the candidates are actually tried.
package locator

import (
	"errors"
	"fmt"
)

// Kind is the location strategy of a candidate.
type Kind string

const (
	KindAttr  Kind = "attr"  // attribute-based CSS ([data-testid='x'])
	KindCSS   Kind = "css"   // structural CSS path
	KindXPath Kind = "xpath" // hierarchical XPath expression
	KindText  Kind = "text"  // visible-text match
	KindRole  Kind = "role"  // ARIA role
)

// ParseKind validates a kind string coming from configuration.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAttr, KindCSS, KindXPath, KindText, KindRole:
		return Kind(s), nil
	}
	return "", fmt.Errorf("locator: unknown kind %q", s)
}

// Candidate is a single way to locate an element: a strategy kind plus
// the expression that strategy evaluates. Candidates are immutable values;
// their position inside a chain is their declared priority.
type Candidate struct {
	Kind Kind
	Expr string
	Desc string // human-readable description, used in logs and diagnostics
}

// Key is the stable identity of a candidate inside metric ledgers.
// Two candidates with the same kind and expression are the same candidate.
func (c Candidate) Key() string {
	return string(c.Kind) + ":" + c.Expr
}

// String renders the candidate for logs.
func (c Candidate) String() string {
	if c.Desc != "" {
		return fmt.Sprintf("%s[%s=%s]", c.Desc, c.Kind, c.Expr)
	}
	return fmt.Sprintf("[%s=%s]", c.Kind, c.Expr)
}

// ErrEmptyChain is returned when a chain is declared without candidates.
var ErrEmptyChain = errors.New("locator: chain needs at least one candidate")

// Chain is an ordered, non-empty list of candidates sharing one identity.
// The identity is the stable key under which resolution metrics, failure
// windows, and healed rescues accumulate. Chains are immutable after
// construction: accessors return copies.
type Chain struct {
	id    string
	hint  string
	cands []Candidate
}

// NewChain builds a chain from an identity and its declared candidates.
func NewChain(id string, cands ...Candidate) (*Chain, error) {
	if id == "" {
		return nil, errors.New("locator: chain needs an identity")
	}
	if len(cands) == 0 {
		return nil, ErrEmptyChain
	}
	c := &Chain{id: id, cands: make([]Candidate, len(cands))}
	copy(c.cands, cands)
	return c, nil
}

// MustChain is NewChain for static page definitions; it panics on error.
func MustChain(id string, cands ...Candidate) *Chain {
	c, err := NewChain(id, cands...)
	if err != nil {
		panic(err)
	}
	return c
}

// WithHint derives a chain carrying a semantic hint ("search button",
// "login form email field") that healing strategies match against when
// every declared candidate has failed.
func (c *Chain) WithHint(hint string) *Chain {
	d := &Chain{id: c.id, hint: hint, cands: make([]Candidate, len(c.cands))}
	copy(d.cands, c.cands)
	return d
}

// ID returns the chain identity.
func (c *Chain) ID() string { return c.id }

// Hint returns the semantic hint, falling back to the first candidate's
// description and finally to the identity itself.
func (c *Chain) Hint() string {
	if c.hint != "" {
		return c.hint
	}
	if c.cands[0].Desc != "" {
		return c.cands[0].Desc
	}
	return c.id
}

// Candidates returns a copy of the declared candidate list.
func (c *Chain) Candidates() []Candidate {
	out := make([]Candidate, len(c.cands))
	copy(out, c.cands)
	return out
}

// Len returns the number of declared candidates.
func (c *Chain) Len() int { return len(c.cands) }
