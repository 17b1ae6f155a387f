package retrieval

import (
	"context"
	"time"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/eval"
	"github.com/danielpatrickdp/search-agent/internal/selector"
	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// #region state
// State is a step of the retrieval loop.
type State string

const (
	StateStart       State = "START"
	StateQueryFormed State = "QUERY_FORMED"
	StateSearched    State = "SEARCHED"
	StateSelecting   State = "SELECTING"
	StateExtracting  State = "EXTRACTING"
	StateVerifying   State = "VERIFYING"
	StateFound       State = "FOUND"
	StateExhausted   State = "EXHAUSTED"
)

// #endregion state

// #region config
// Config holds the loop's bounds and per-call timeouts.
type Config struct {
	MaxStaleSelections int           // consecutive out-of-range selections before giving up
	SearchTimeout      time.Duration // 0 leaves the provider's own timeout
	FetchTimeout       time.Duration
}

// DefaultConfig returns sensible defaults for the retrieval loop.
func DefaultConfig() Config {
	return Config{
		MaxStaleSelections: 3,
		SearchTimeout:      15 * time.Second,
		FetchTimeout:       15 * time.Second,
	}
}

// #endregion config

// #region outcome
// Outcome is the result of one retrieval run. Found distinguishes
// Context(text) from NoContext.
type Outcome struct {
	Found           bool
	Context         string
	Query           string
	Source          websearch.Result   // candidate the context came from
	Results         int                // candidates returned by the search
	Tried           []websearch.Result // candidates removed from the working set, in order
	StaleSelections int
	Reason          string
}

// Attempts is the number of candidates extracted.
func (o Outcome) Attempts() int { return len(o.Tried) }

// #endregion outcome

// #region collaborators

// Formulator produces a normalized search query.
type Formulator interface {
	Formulate(ctx context.Context, view conversation.View) (string, error)
}

// Selector picks an index into the working set.
type Selector interface {
	Select(ctx context.Context, results []websearch.Result, query string, view conversation.View) selector.Selection
}

// Verifier judges extracted text.
type Verifier interface {
	Verify(ctx context.Context, text, query string, view conversation.View) eval.Verdict
}

// Recorder receives one row per state transition or decision.
type Recorder interface {
	Record(ctx context.Context, step, detail string)
}

// #endregion collaborators
