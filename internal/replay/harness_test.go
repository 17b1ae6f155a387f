package replay

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

func loadCapital(t *testing.T) *Fixture {
	t.Helper()
	f, err := LoadFixture("testdata/capital_of_france.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return f
}

// 1. Full fixture replays cleanly and every expectation holds.
func TestReplay_CapitalOfFrance(t *testing.T) {
	f := loadCapital(t)
	reports, sum, err := Replay(context.Background(), f, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for _, r := range reports {
		if !r.Passed() {
			t.Errorf("turn %d failed: err=%v mismatches=%v", r.Index, r.Err, r.Mismatches)
		}
	}
	if sum.TotalTurns != 3 || sum.Searched != 2 || sum.Found != 1 || sum.Failed != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	// system + 3 user/assistant pairs
	if sum.History != 7 {
		t.Errorf("expected 7 messages in history, got %d", sum.History)
	}
}

// 2. The framed message the model answered carries the page text.
func TestReplay_FramedContext(t *testing.T) {
	reports, _, err := Replay(context.Background(), loadCapital(t), nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	first := reports[0].Result
	if !strings.Contains(first.Framed, "capital and largest city") {
		t.Errorf("framed prompt missing context: %q", first.Framed)
	}
	if !strings.Contains(first.Framed, "What is the capital of France?") {
		t.Errorf("framed prompt missing user prompt: %q", first.Framed)
	}
	if reports[1].Result.Framed != "" {
		t.Errorf("chat turn should not be framed, got %q", reports[1].Result.Framed)
	}
	if reports[2].Result.Outcome.StaleSelections != 3 {
		t.Errorf("expected 3 stale selections, got %d", reports[2].Result.Outcome.StaleSelections)
	}
}

// 3. Each turn's trace is captured and scoped to its own turn ID.
func TestReplay_TracePerTurn(t *testing.T) {
	reports, _, err := Replay(context.Background(), loadCapital(t), nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	for _, r := range reports {
		if len(r.Trace) == 0 {
			t.Errorf("turn %d has no trace rows", r.Index)
		}
		for _, e := range r.Trace {
			if e.TurnID != r.Result.TurnID {
				t.Errorf("turn %d: trace row for %s", r.Index, e.TurnID)
			}
		}
	}
}

// 4. A wrong expectation is reported as a mismatch, not an error.
func TestReplay_Mismatch(t *testing.T) {
	f := loadCapital(t)
	f.Turns = f.Turns[:1]
	f.Turns[0].Expect.Source = "https://example.org/france"

	reports, sum, err := Replay(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("expected 1 failed turn, got %d", sum.Failed)
	}
	if len(reports[0].Mismatches) != 1 || !strings.HasPrefix(reports[0].Mismatches[0], "source:") {
		t.Errorf("unexpected mismatches: %v", reports[0].Mismatches)
	}
}

// 5. Restoring the plain prompt when search context is not kept.
func TestReplay_DropSearchContext(t *testing.T) {
	f := loadCapital(t)
	keep := false
	f.KeepSearchContext = &keep
	f.Turns = f.Turns[:1]

	_, sum, err := Replay(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if sum.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", sum)
	}
}

func TestStaticSearch_FillsDefaults(t *testing.T) {
	s := &StaticSearch{}
	s.Load([]websearch.Result{{Link: "a"}, {Link: "b", Snippet: "x"}})
	got, _ := s.Search(context.Background(), "q")
	if got[0].Ordinal != 1 || got[1].Ordinal != 2 {
		t.Errorf("ordinals not assigned: %+v", got)
	}
	if got[0].Snippet != websearch.NoDescription || got[1].Snippet != "x" {
		t.Errorf("snippet defaults wrong: %+v", got)
	}
}

func TestPageExtractor(t *testing.T) {
	p := &PageExtractor{}
	p.Load(map[string]string{"a": "text", "b": ""})
	if c := p.Extract(context.Background(), "a"); !c.Present() {
		t.Errorf("expected content for a")
	}
	if c := p.Extract(context.Background(), "b"); c.Present() {
		t.Errorf("expected absence for empty page")
	}
	if c := p.Extract(context.Background(), "z"); c.Present() {
		t.Errorf("expected absence for unknown page")
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	if _, err := LoadFixture("testdata/missing.json"); err == nil {
		t.Error("expected error for missing fixture")
	}
}
