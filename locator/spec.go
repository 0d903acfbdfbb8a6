package locator

import "fmt"

// ChainSpec is the YAML form of a chain, used by configuration files.
type ChainSpec struct {
	ID         string          `yaml:"id"`
	Hint       string          `yaml:"hint"`
	Candidates []CandidateSpec `yaml:"candidates"`
}

// CandidateSpec is the YAML form of a candidate.
type CandidateSpec struct {
	Kind string `yaml:"kind"` // attr | css | xpath | text | role
	Expr string `yaml:"expr"`
	Desc string `yaml:"desc"`
}

// Chain materializes the spec, validating kinds and non-emptiness.
func (s ChainSpec) Chain() (*Chain, error) {
	cands := make([]Candidate, 0, len(s.Candidates))
	for i, cs := range s.Candidates {
		kind, err := ParseKind(cs.Kind)
		if err != nil {
			return nil, fmt.Errorf("locator: chain %q candidate %d: %w", s.ID, i, err)
		}
		cands = append(cands, Candidate{Kind: kind, Expr: cs.Expr, Desc: cs.Desc})
	}
	c, err := NewChain(s.ID, cands...)
	if err != nil {
		return nil, err
	}
	if s.Hint != "" {
		c = c.WithHint(s.Hint)
	}
	return c, nil
}
