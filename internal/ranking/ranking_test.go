package ranking

import (
	"testing"
	"time"

	"github.com/hazyhaar/domfind/locator"
)

var (
	candA = locator.TestID("submit")
	candB = locator.CSS("#submit", "submit button")
	candC = locator.XPath("//form//button", "form button")
)

func keys(cands []locator.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Key()
	}
	return out
}

func sameOrder(got []locator.Candidate, want ...locator.Candidate) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Key() != want[i].Key() {
			return false
		}
	}
	return true
}

func TestEffectiveOrder_ColdStartKeepsDeclared(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA, candB, candC)

	got := g.EffectiveOrder(chain)
	if !sameOrder(got, candA, candB, candC) {
		t.Fatalf("cold start: got %v, want declared order", keys(got))
	}
}

func TestEffectiveOrder_ConvergesOnSucceedingCandidate(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA, candB)

	// Simulate ten resolutions where A always fails and B always succeeds:
	// walk the effective order, recording a failure for every candidate
	// tried before B.
	for round := 0; round < 10; round++ {
		order := g.EffectiveOrder(chain)
		for _, c := range order {
			if c.Key() == candB.Key() {
				g.Record(chain.ID(), c, true, 100*time.Millisecond)
				break
			}
			g.Record(chain.ID(), c, false, 100*time.Millisecond)
		}
		if round >= 1 {
			if got := g.EffectiveOrder(chain); !sameOrder(got, candB, candA) {
				t.Fatalf("round %d: got %v, want [B A]", round, keys(got))
			}
		}
	}
}

func TestEffectiveOrder_HigherRateWins(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA, candB)

	// A: 90% success, B: 60%, identical latency. Failures recorded first
	// so the decayed rate ends on the high side for both.
	for i := 0; i < 10; i++ {
		g.Record(chain.ID(), candA, i >= 1, 100*time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		g.Record(chain.ID(), candB, i >= 4, 100*time.Millisecond)
	}

	if got := g.EffectiveOrder(chain); !sameOrder(got, candA, candB) {
		t.Fatalf("rate ordering: got %v, want [A B]", keys(got))
	}
}

func TestEffectiveOrder_LatencyPenaltyBreaksEvenRates(t *testing.T) {
	g := New(0, 0)
	// Declared order favors the slow candidate; both always succeed.
	chain := locator.MustChain("submit", candB, candA)
	for i := 0; i < 5; i++ {
		g.Record(chain.ID(), candB, true, 500*time.Millisecond)
		g.Record(chain.ID(), candA, true, 50*time.Millisecond)
	}

	if got := g.EffectiveOrder(chain); !sameOrder(got, candA, candB) {
		t.Fatalf("latency ordering: got %v, want fast candidate first", keys(got))
	}
}

func TestEffectiveOrder_UnobservedKeepsDeclaredSlot(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA, candB, candC)

	// A observed and failing, C observed and succeeding, B never tried.
	g.Record(chain.ID(), candA, false, 100*time.Millisecond)
	g.Record(chain.ID(), candC, true, 100*time.Millisecond)

	// Observed candidates swap within slots 0 and 2; B stays in slot 1.
	if got := g.EffectiveOrder(chain); !sameOrder(got, candC, candB, candA) {
		t.Fatalf("pinning: got %v, want [C B A]", keys(got))
	}
}

func TestEffectiveOrder_TiesPreserveDeclaredOrder(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA, candB)
	g.Record(chain.ID(), candA, true, 100*time.Millisecond)
	g.Record(chain.ID(), candB, true, 100*time.Millisecond)

	if got := g.EffectiveOrder(chain); !sameOrder(got, candA, candB) {
		t.Fatalf("tie: got %v, want declared order", keys(got))
	}
}

func TestPromote_PrependsRescue(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA, candB)
	rescue := locator.AriaLabel("Submit order")

	g.Promote(chain.ID(), rescue)
	if got := g.EffectiveOrder(chain); !sameOrder(got, rescue, candA, candB) {
		t.Fatalf("promote: got %v, want rescue first", keys(got))
	}

	// Promoting a declared candidate must not duplicate it.
	g.Promote(chain.ID(), candB)
	got := g.EffectiveOrder(chain)
	if !sameOrder(got, candB, rescue, candA) {
		t.Fatalf("promote declared: got %v, want [B rescue A]", keys(got))
	}

	g.DropRescues(chain.ID())
	if got := g.EffectiveOrder(chain); len(got) != 2 {
		t.Fatalf("DropRescues: got %d candidates, want 2", len(got))
	}
}

func TestReport_ReadsDoNotMutate(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA, candB)
	g.Record(chain.ID(), candA, true, 40*time.Millisecond)
	g.Record(chain.ID(), candA, false, 60*time.Millisecond)

	first := g.Report(chain)
	second := g.Report(chain)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Report rows: got %d/%d, want 2/2", len(first), len(second))
	}
	if first[0] != second[0] || first[1] != second[1] {
		t.Fatal("Report: consecutive reads differ with no interleaving records")
	}

	row := first[0]
	if row.Successes != 1 || row.Failures != 1 || row.Samples != 2 {
		t.Fatalf("counters: got %d/%d/%d, want 1/1/2", row.Successes, row.Failures, row.Samples)
	}
	if row.SuccessRate != 0.5 {
		t.Fatalf("SuccessRate: got %v, want 0.5", row.SuccessRate)
	}
	if row.AvgLatency != 50*time.Millisecond {
		t.Fatalf("AvgLatency: got %s, want 50ms", row.AvgLatency)
	}
	if b := first[1]; b.Samples != 0 || b.SuccessRate != 0 {
		t.Fatalf("untried candidate: got %d samples, want 0", b.Samples)
	}
}

func TestReport_IncludesRescues(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA)
	rescue := locator.AriaLabel("Submit order")
	g.Promote(chain.ID(), rescue)
	g.Record(chain.ID(), rescue, true, 30*time.Millisecond)

	rows := g.Report(chain)
	if len(rows) != 2 {
		t.Fatalf("Report rows: got %d, want declared + rescue", len(rows))
	}
	if rows[1].Candidate.Key() != rescue.Key() || rows[1].Successes != 1 {
		t.Fatalf("rescue row: got %+v", rows[1])
	}
}

func TestReset_ClearsCountersOnly(t *testing.T) {
	g := New(0, 0)
	chain := locator.MustChain("submit", candA)
	rescue := locator.AriaLabel("Submit order")
	g.Record(chain.ID(), candA, true, 10*time.Millisecond)
	g.Promote(chain.ID(), rescue)

	g.Reset(chain.ID())

	rows := g.Report(chain)
	if rows[0].Samples != 0 {
		t.Fatalf("Reset: counters survived, got %d samples", rows[0].Samples)
	}
	if got := g.EffectiveOrder(chain); !sameOrder(got, rescue, candA) {
		t.Fatalf("Reset: rescues should survive, got %v", keys(got))
	}
}
