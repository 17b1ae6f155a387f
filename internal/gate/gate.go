package gate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/verdict"
)

// #region gate

// Gate decides whether the latest user message needs a web search.
type Gate struct {
	config Config
	model  llm.Client
	logger *zap.Logger
}

// NewGate creates a gate with the given configuration.
func NewGate(config Config, model llm.Client, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{config: config, model: model, logger: logger}
}

// Evaluate asks the model once. Anything other than an answer containing
// "true" means no search, including call failures and timeouts.
func (g *Gate) Evaluate(ctx context.Context, view conversation.View) Decision {
	last, ok := view.Last()
	if !ok || last.Role != llm.RoleUser {
		return Decision{Reason: "no user message to evaluate", Err: errors.New("latest message is not a user message")}
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	raw, err := llm.Ask(ctx, g.model, llm.System(SystemPrompt), last)
	if err != nil {
		g.logger.Warn("search gate call failed", zap.Error(err))
		return Decision{Reason: fmt.Sprintf("model call failed: %v", err), Err: err}
	}
	g.logger.Debug("search or not", zap.String("raw", raw))

	search, err := verdict.ParseVerdict(raw)
	if err != nil {
		return Decision{Reason: "ambiguous answer, defaulting to no search", Raw: raw, Err: err}
	}
	reason := "model declined search"
	if search {
		reason = "model requested search"
	}
	return Decision{Search: search, Reason: reason, Raw: raw}
}

// #endregion gate
