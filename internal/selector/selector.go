// Package selector asks the model which search result to try next.
package selector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/verdict"
	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// #region constants

const defaultAttempts = 2

// SystemPrompt instructs the model to pick one result.
const SystemPrompt = `You are not an AI assistant that responds to a user. You are an AI model trained to select the best search result out of a list of search results. The best search result is the link an expert human search engine user would click first to find the data to respond to a USER_PROMPT after searching DuckDuckGo for the SEARCH_QUERY. All user messages you receive in this conversation will have the format of:
SEARCH_RESULTS: [{},{},{}]
USER_PROMPT: "this will be an actual prompt to a web search enabled AI assistant"
SEARCH_QUERY: "search query ran to get the above search results"

You must select the index from the 0 indexed SEARCH_RESULTS list and only respond with the index of the best search result to check for the data the AI assistant needs to respond. That means your responses to this conversation should always be 1 token, being an integer between 0-9.`

// #endregion constants

// #region types

// Config holds selector parameters.
type Config struct {
	Attempts int // total model calls before falling back to index 0
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{Attempts: defaultAttempts, Timeout: 60 * time.Second}
}

// Selection is the selector's answer. Index refers to the working set as
// passed in and is not range checked here.
type Selection struct {
	Index    int
	Fallback bool  // every attempt failed, Index is the default 0
	Attempts int   // model calls made
	Err      error // last failure when Fallback is set
}

type candidate struct {
	Index   int    `json:"index"`
	Ordinal int    `json:"ordinal"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// #endregion types

// #region selector

// Selector picks the next candidate from the working set.
type Selector struct {
	config Config
	model  llm.Client
	logger *zap.Logger
}

func NewSelector(config Config, model llm.Client, logger *zap.Logger) *Selector {
	if config.Attempts <= 0 {
		config.Attempts = defaultAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{config: config, model: model, logger: logger}
}

// Select retries on call or parse failure up to the configured number of
// attempts, then falls back to index 0.
func (s *Selector) Select(ctx context.Context, results []websearch.Result, query string, view conversation.View) Selection {
	if len(results) == 0 {
		return Selection{Fallback: true, Err: errors.New("empty working set")}
	}
	latest, _ := conversation.LatestUser(view)

	msg, err := FormatRequest(results, query, latest)
	if err != nil {
		return Selection{Fallback: true, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= s.config.Attempts; attempt++ {
		idx, err := s.ask(ctx, msg)
		if err == nil {
			return Selection{Index: idx, Attempts: attempt}
		}
		lastErr = err
		s.logger.Info("failed to select best search result, trying again",
			zap.Int("attempt", attempt), zap.Error(err))
	}
	return Selection{Index: 0, Fallback: true, Attempts: s.config.Attempts, Err: lastErr}
}

func (s *Selector) ask(ctx context.Context, msg string) (int, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	raw, err := llm.Ask(ctx, s.model, llm.System(SystemPrompt), llm.User(msg))
	if err != nil {
		return 0, fmt.Errorf("select rpc: %w", err)
	}
	return verdict.ParseIndex(raw)
}

// #endregion selector

// FormatRequest renders the working set, the user prompt and the query as
// the selector's user message.
func FormatRequest(results []websearch.Result, query, prompt string) (string, error) {
	list := make([]candidate, len(results))
	for i, r := range results {
		list[i] = candidate{Index: i, Ordinal: r.Ordinal, Link: r.Link, Snippet: r.Snippet}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal search results: %w", err)
	}
	return fmt.Sprintf("SEARCH_RESULTS: %s\nUSER_PROMPT: %s\nSEARCH_QUERY: %s", data, prompt, query), nil
}
