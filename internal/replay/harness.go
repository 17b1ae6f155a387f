package replay

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/eval"
	"github.com/danielpatrickdp/search-agent/internal/gate"
	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/orchestrator"
	"github.com/danielpatrickdp/search-agent/internal/query"
	"github.com/danielpatrickdp/search-agent/internal/retrieval"
	"github.com/danielpatrickdp/search-agent/internal/selector"
)

// #region types

// TurnReport captures one replayed turn.
type TurnReport struct {
	Index      int
	Prompt     string
	Result     orchestrator.TurnResult
	Err        error
	Trace      []logging.TraceEntry
	Mismatches []string
}

// Passed reports whether the turn ran and matched its expectations.
func (r TurnReport) Passed() bool { return r.Err == nil && len(r.Mismatches) == 0 }

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns int
	Searched   int
	Found      int
	Failed     int
	History    int // messages in the conversation after the run
}

// #endregion types

// #region replay

// Replay runs every fixture turn through a real orchestrator, gate and
// retrieval loop, with scripted model answers, static search results and
// in-memory pages. Operates entirely in-memory.
func Replay(ctx context.Context, f *Fixture, logger *zap.Logger) ([]TurnReport, ReplaySummary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	trace, err := logging.NewTraceStore(logger)
	if err != nil {
		return nil, ReplaySummary{}, fmt.Errorf("open trace store: %w", err)
	}
	defer trace.Close()

	model := NewScriptedModel()
	search := &StaticSearch{}
	pages := &PageExtractor{}

	loopCfg := retrieval.DefaultConfig()
	if f.MaxStaleSelection > 0 {
		loopCfg.MaxStaleSelections = f.MaxStaleSelection
	}
	loop := retrieval.NewLoop(loopCfg, retrieval.Deps{
		Formulator: query.NewFormulator(query.DefaultConfig(), model, logger),
		Search:     search,
		Selector:   selector.NewSelector(selector.DefaultConfig(), model, logger),
		Extractor:  pages,
		Verifier:   eval.NewVerifier(eval.DefaultConfig(), model, logger),
		Recorder:   trace,
		Logger:     logger,
	})

	cfg := orchestrator.Config{SearchEnabled: true, KeepSearchContext: true}
	if f.KeepSearchContext != nil {
		cfg.KeepSearchContext = *f.KeepSearchContext
	}
	conv := conversation.New(f.SystemPrompt)
	orch := orchestrator.New(cfg, orchestrator.Deps{
		Conversation: conv,
		Gate:         gate.NewGate(gate.DefaultConfig(), model, logger),
		Retriever:    loop,
		Model:        model,
		Tracer:       trace,
		Logger:       logger,
	})

	reports := make([]TurnReport, 0, len(f.Turns))
	for i, turn := range f.Turns {
		model.Load(turn)
		search.Load(turn.Results)
		pages.Load(turn.Pages)

		res, err := orch.HandleTurn(ctx, turn.Prompt, io.Discard)
		rep := TurnReport{Index: i, Prompt: turn.Prompt, Result: res, Err: err}
		if res.TurnID != "" {
			rep.Trace, _ = trace.Turn(ctx, res.TurnID)
		}
		if err == nil {
			rep.Mismatches = Check(turn.Expect, res)
		}
		reports = append(reports, rep)
	}

	sum := Summarize(reports)
	sum.History = conv.Len()
	return reports, sum, nil
}

// #endregion replay

// #region checks

// Check compares a turn result with its expectations.
func Check(want FixtureExpect, got orchestrator.TurnResult) []string {
	var out []string
	if got.Searched != want.Searched {
		out = append(out, fmt.Sprintf("searched: want %v, got %v", want.Searched, got.Searched))
	}
	if got.Outcome.Found != want.Found {
		out = append(out, fmt.Sprintf("found: want %v, got %v", want.Found, got.Outcome.Found))
	}
	if want.Source != "" && got.Outcome.Source.Link != want.Source {
		out = append(out, fmt.Sprintf("source: want %s, got %s", want.Source, got.Outcome.Source.Link))
	}
	if want.Tried != nil {
		tried := make([]string, 0, len(got.Outcome.Tried))
		for _, r := range got.Outcome.Tried {
			tried = append(tried, r.Link)
		}
		if !slices.Equal(tried, want.Tried) {
			out = append(out, fmt.Sprintf("tried: want %v, got %v", want.Tried, tried))
		}
	}
	if want.ContextContains != "" && !strings.Contains(got.Outcome.Context, want.ContextContains) {
		out = append(out, fmt.Sprintf("context: missing %q", want.ContextContains))
	}
	return out
}

// Summarize aggregates stats from replay reports.
func Summarize(reports []TurnReport) ReplaySummary {
	s := ReplaySummary{TotalTurns: len(reports)}
	for _, r := range reports {
		if r.Result.Searched {
			s.Searched++
		}
		if r.Result.Outcome.Found {
			s.Found++
		}
		if !r.Passed() {
			s.Failed++
		}
	}
	return s
}

// #endregion checks
