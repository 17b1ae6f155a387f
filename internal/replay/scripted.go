package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danielpatrickdp/search-agent/internal/eval"
	"github.com/danielpatrickdp/search-agent/internal/extract"
	"github.com/danielpatrickdp/search-agent/internal/failure"
	"github.com/danielpatrickdp/search-agent/internal/gate"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/query"
	"github.com/danielpatrickdp/search-agent/internal/selector"
	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// ErrUnscripted is returned when a call has no scripted answer left.
var ErrUnscripted = errors.New("replay: no scripted answer")

// #region scripted-model

// ScriptedModel answers each auxiliary call from a queue chosen by the
// request's system prompt. Calls without a known system prompt are the
// assistant reply and are served by ChatStream.
type ScriptedModel struct {
	mu     sync.Mutex
	queues map[string][]string
	reply  string
}

func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{queues: make(map[string][]string)}
}

// Load replaces the script with one turn's answers.
func (m *ScriptedModel) Load(t FixtureTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues = map[string][]string{
		gate.SystemPrompt:     {t.Gate},
		query.SystemPrompt:    append([]string(nil), t.Queries...),
		selector.SystemPrompt: append([]string(nil), t.Selections...),
		eval.SystemPrompt:     append([]string(nil), t.Verdicts...),
	}
	m.reply = t.Reply
}

func (m *ScriptedModel) ModelID() string { return "replay" }

func (m *ScriptedModel) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) == 0 || req.Messages[0].Role != llm.RoleSystem {
		return nil, fmt.Errorf("%w: request without system prompt", ErrUnscripted)
	}
	key := req.Messages[0].Content

	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[key]
	if !ok || len(q) == 0 {
		return nil, ErrUnscripted
	}
	m.queues[key] = q[1:]
	return &llm.ChatResponse{Message: llm.Assistant(q[0])}, nil
}

func (m *ScriptedModel) ChatStream(ctx context.Context, _ llm.ChatRequest) (<-chan llm.StreamDelta, error) {
	m.mu.Lock()
	text := m.reply
	m.mu.Unlock()

	ch := make(chan llm.StreamDelta, 2)
	ch <- llm.StreamDelta{Content: text}
	ch <- llm.StreamDelta{Done: true}
	close(ch)
	return ch, nil
}

// #endregion scripted-model

// #region static-sources

// StaticSearch returns the loaded results for any query.
type StaticSearch struct {
	mu      sync.Mutex
	results []websearch.Result
	Queries []string
}

func (s *StaticSearch) Load(results []websearch.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make([]websearch.Result, len(results))
	for i, r := range results {
		if r.Ordinal == 0 {
			r.Ordinal = i + 1
		}
		if r.Snippet == "" {
			r.Snippet = websearch.NoDescription
		}
		s.results[i] = r
	}
}

func (s *StaticSearch) Search(_ context.Context, q string) ([]websearch.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, q)
	return append([]websearch.Result(nil), s.results...), nil
}

// PageExtractor serves page text by link. Unknown links read as a 404.
type PageExtractor struct {
	mu    sync.Mutex
	pages map[string]string
}

func (p *PageExtractor) Load(pages map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = pages
}

func (p *PageExtractor) Extract(_ context.Context, url string) extract.Content {
	p.mu.Lock()
	defer p.mu.Unlock()
	text, ok := p.pages[url]
	if !ok {
		return extract.Content{URL: url, Err: failure.Newf(failure.KindStatus, "fetch", "http 404")}
	}
	if text == "" {
		return extract.Content{URL: url, Err: failure.Newf(failure.KindEmpty, "fetch", "no text at %s", url)}
	}
	return extract.Content{URL: url, Text: text}
}

// #endregion static-sources

var (
	_ llm.Client         = (*ScriptedModel)(nil)
	_ websearch.Provider = (*StaticSearch)(nil)
	_ extract.Source     = (*PageExtractor)(nil)
)
