package orchestrator

// #region imports
import (
	"context"
	"time"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/gate"
	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/retrieval"
)

// #endregion

// #region config

// Config holds turn-level behavior switches.
type Config struct {
	// SearchEnabled off skips the gate and never searches.
	SearchEnabled bool
	// KeepSearchContext keeps the framed message in history after the reply.
	// When false the plain prompt is restored.
	KeepSearchContext bool
	ReplyTimeout      time.Duration
}

// DefaultConfig returns the turn defaults. The SEARCH_ENABLED kill switch
// is read by the config loader.
func DefaultConfig() Config {
	return Config{
		SearchEnabled:     true,
		KeepSearchContext: true,
		ReplyTimeout:      5 * time.Minute,
	}
}

// #endregion

// #region collaborators

// SearchGate makes the search-or-not decision.
type SearchGate interface {
	Evaluate(ctx context.Context, view conversation.View) gate.Decision
}

// Retriever runs the retrieval loop.
type Retriever interface {
	Run(ctx context.Context, view conversation.View) (retrieval.Outcome, error)
}

// Tracer stores the per-turn decision trace.
type Tracer interface {
	retrieval.Recorder
	RecordTurn(ctx context.Context, rec logging.TurnRecord) error
}

// #endregion

// #region turn-result

// TurnResult describes one handled turn.
type TurnResult struct {
	TurnID       string
	Gate         gate.Decision
	Searched     bool
	Outcome      retrieval.Outcome // zero unless Searched
	RetrievalErr error             // logged and treated as NoContext
	Framed       string            // user message the model answered, empty if unframed
	Reply        string
}

// #endregion

var (
	_ SearchGate = (*gate.Gate)(nil)
	_ Retriever  = (*retrieval.Loop)(nil)
	_ Tracer     = (*logging.TraceStore)(nil)
)
