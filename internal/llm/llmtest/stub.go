// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/danielpatrickdp/search-agent/internal/llm"
)

// Reply is one scripted answer: either text or an error.
type Reply struct {
	Text string
	Err  error
}

// Stub replays scripted replies in order and records every request.
// Once the script runs out, Chat returns ErrExhausted.
type Stub struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []llm.ChatRequest
	Streamed []llm.ChatRequest
	// StreamText is sent by ChatStream in two fragments.
	StreamText string
	StreamErr  error
}

// ErrExhausted is returned when Chat is called more times than scripted.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// New creates a Stub answering with the given texts.
func New(texts ...string) *Stub {
	s := &Stub{}
	for _, t := range texts {
		s.replies = append(s.replies, Reply{Text: t})
	}
	return s
}

// Push appends replies to the script.
func (s *Stub) Push(r ...Reply) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, r...)
	return s
}

func (s *Stub) ModelID() string { return "stub" }

func (s *Stub) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if len(s.replies) == 0 {
		return nil, ErrExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.ChatResponse{Message: llm.Assistant(r.Text)}, nil
}

func (s *Stub) ChatStream(_ context.Context, req llm.ChatRequest) (<-chan llm.StreamDelta, error) {
	s.mu.Lock()
	s.Streamed = append(s.Streamed, req)
	text, serr := s.StreamText, s.StreamErr
	s.mu.Unlock()
	if serr != nil {
		return nil, serr
	}
	ch := make(chan llm.StreamDelta, 3)
	half := len(text) / 2
	ch <- llm.StreamDelta{Content: text[:half]}
	ch <- llm.StreamDelta{Content: text[half:]}
	ch <- llm.StreamDelta{Done: true}
	close(ch)
	return ch, nil
}

// Calls returns how many Chat calls were made.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
