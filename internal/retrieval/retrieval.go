package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/extract"
	"github.com/danielpatrickdp/search-agent/internal/failure"
	"github.com/danielpatrickdp/search-agent/internal/metrics"
	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// #region loop

// Deps are the loop's collaborators. Recorder, Status and Logger are optional.
type Deps struct {
	Formulator Formulator
	Search     websearch.Provider
	Selector   Selector
	Extractor  extract.Source
	Verifier   Verifier
	Recorder   Recorder
	Status     func(msg string)
	Logger     *zap.Logger
}

// Loop runs query formulation, search, and the select/extract/verify cycle.
type Loop struct {
	config Config
	deps   Deps
}

// NewLoop creates a Loop with the given config and collaborators.
func NewLoop(config Config, deps Deps) *Loop {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if config.MaxStaleSelections <= 0 {
		config.MaxStaleSelections = DefaultConfig().MaxStaleSelections
	}
	return &Loop{config: config, deps: deps}
}

// #endregion loop

// #region run

// Run executes one retrieval for the latest user message in view. A query
// formulation or search failure is returned as an error; running out of
// candidates is a NoContext outcome, not an error.
func (l *Loop) Run(ctx context.Context, view conversation.View) (Outcome, error) {
	var out Outcome
	l.enter(ctx, StateStart, "")
	l.status("GENERATING SEARCH QUERY...")

	q, err := l.deps.Formulator.Formulate(ctx, view)
	if err != nil {
		l.callFailed("formulate", err)
		out.Reason = "query formulation failed"
		return out, fmt.Errorf("retrieval: %w", err)
	}
	out.Query = q
	if q == "" {
		out.Reason = "empty query"
		l.exhaust(ctx, &out)
		return out, nil
	}
	l.enter(ctx, StateQueryFormed, q)

	results, err := l.search(ctx, q)
	if err != nil {
		l.callFailed("search", err)
		out.Reason = "search failed"
		return out, fmt.Errorf("retrieval search: %w", err)
	}
	out.Results = len(results)
	l.enter(ctx, StateSearched, fmt.Sprintf("%d results", len(results)))
	l.deps.Logger.Debug("search results", zap.String("query", q), zap.String("results", websearch.FormatResults(results)))

	working := make([]websearch.Result, len(results))
	copy(working, results)
	stale := 0

	for len(working) > 0 {
		if err := ctx.Err(); err != nil {
			out.Reason = "cancelled"
			return out, err
		}

		l.enter(ctx, StateSelecting, fmt.Sprintf("%d candidates", len(working)))
		sel := l.deps.Selector.Select(ctx, working, q, view)
		if sel.Fallback {
			metrics.Decisions.WithLabelValues("select", "fallback").Inc()
		}
		if sel.Index < 0 || sel.Index >= len(working) {
			stale++
			out.StaleSelections++
			metrics.Decisions.WithLabelValues("select", "stale").Inc()
			l.deps.Logger.Info("failed to select best search result, trying again",
				zap.Int("index", sel.Index), zap.Int("working_set", len(working)), zap.Int("stale", stale))
			l.record(ctx, "stale_selection", fmt.Sprintf("index %d outside working set of %d", sel.Index, len(working)))
			l.status("FAILED TO SELECT BEST SEARCH RESULT, TRYING AGAIN...")
			if stale >= l.config.MaxStaleSelections {
				out.Reason = fmt.Sprintf("%d consecutive invalid selections", stale)
				l.exhaust(ctx, &out)
				return out, nil
			}
			continue
		}
		stale = 0
		metrics.Decisions.WithLabelValues("select", "valid").Inc()

		cand := working[sel.Index]
		working = append(working[:sel.Index:sel.Index], working[sel.Index+1:]...)
		out.Tried = append(out.Tried, cand)
		metrics.CandidatesTried.Inc()

		l.enter(ctx, StateExtracting, fmt.Sprintf("ordinal %d %s", cand.Ordinal, cand.Link))
		content := l.extract(ctx, cand.Link)
		if !content.Present() {
			l.callFailed("fetch", content.Err)
			if failure.Is(content.Err, failure.KindTimeout) {
				l.deps.Logger.Warn("candidate fetch timed out", zap.Int("ordinal", cand.Ordinal), zap.String("link", cand.Link))
				l.record(ctx, "extraction_timeout", content.String())
				continue
			}
			l.deps.Logger.Info("candidate unusable", zap.Int("ordinal", cand.Ordinal),
				zap.String("link", cand.Link), zap.String("kind", string(failure.KindOf(content.Err))))
			l.record(ctx, "extraction_failed", content.String())
			continue
		}

		l.enter(ctx, StateVerifying, fmt.Sprintf("ordinal %d", cand.Ordinal))
		v := l.deps.Verifier.Verify(ctx, content.Text, q, view)
		if v.Err != nil {
			l.callFailed("verify", v.Err)
		}
		if v.Sufficient {
			metrics.Decisions.WithLabelValues("verify", "sufficient").Inc()
			out.Found = true
			out.Context = content.Text
			out.Source = cand
			out.Reason = v.Reason
			l.enter(ctx, StateFound, cand.Link)
			metrics.RetrievalOutcomes.WithLabelValues("found").Inc()
			l.status("CONTEXT FOUND!")
			return out, nil
		}
		metrics.Decisions.WithLabelValues("verify", "insufficient").Inc()
		l.record(ctx, "verify_rejected", fmt.Sprintf("ordinal %d: %s", cand.Ordinal, v.Reason))
	}

	out.Reason = "working set exhausted"
	l.exhaust(ctx, &out)
	return out, nil
}

// #endregion run

// #region calls
func (l *Loop) search(ctx context.Context, q string) ([]websearch.Result, error) {
	if l.config.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.SearchTimeout)
		defer cancel()
	}
	defer metrics.ObserveCall("search", time.Now())
	return l.deps.Search.Search(ctx, q)
}

func (l *Loop) extract(ctx context.Context, link string) extract.Content {
	if l.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.FetchTimeout)
		defer cancel()
	}
	defer metrics.ObserveCall("fetch", time.Now())
	return l.deps.Extractor.Extract(ctx, link)
}

// #endregion calls

// #region helpers
func (l *Loop) enter(ctx context.Context, s State, detail string) {
	l.deps.Logger.Debug("retrieval state", zap.String("state", string(s)), zap.String("detail", detail))
	l.record(ctx, string(s), detail)
}

func (l *Loop) exhaust(ctx context.Context, out *Outcome) {
	l.enter(ctx, StateExhausted, out.Reason)
	metrics.RetrievalOutcomes.WithLabelValues("exhausted").Inc()
}

func (l *Loop) record(ctx context.Context, step, detail string) {
	if l.deps.Recorder != nil {
		l.deps.Recorder.Record(ctx, step, detail)
	}
}

func (l *Loop) status(msg string) {
	if l.deps.Status != nil {
		l.deps.Status(msg)
	}
}

func (l *Loop) callFailed(call string, err error) {
	kind := failure.KindOf(err)
	if kind == failure.KindNone {
		kind = "other"
	}
	metrics.CallFailures.WithLabelValues(call, string(kind)).Inc()
}

// #endregion helpers
