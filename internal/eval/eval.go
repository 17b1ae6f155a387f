package eval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/verdict"
)

// #region verifier

// Verifier decides whether extracted page text answers the user's prompt.
type Verifier struct {
	config Config
	model  llm.Client
	logger *zap.Logger
}

// NewVerifier creates a verifier with the given configuration.
func NewVerifier(config Config, model llm.Client, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{config: config, model: model, logger: logger}
}

// Verify makes a single model call. The page text is passed through
// unchanged whatever its length. Failures read as insufficient.
func (v *Verifier) Verify(ctx context.Context, text, query string, view conversation.View) Verdict {
	latest, _ := conversation.LatestUser(view)

	if v.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.config.Timeout)
		defer cancel()
	}

	raw, err := llm.Ask(ctx, v.model, llm.System(SystemPrompt), llm.User(FormatRequest(text, query, latest)))
	if err != nil {
		v.logger.Warn("verifier call failed", zap.Error(err))
		return Verdict{Reason: fmt.Sprintf("model call failed: %v", err), Err: err}
	}

	ok, err := verdict.ParseVerdict(raw)
	if err != nil {
		return Verdict{Reason: "ambiguous answer, treating page as insufficient", Raw: raw, Err: err}
	}
	reason := "page lacks the needed data"
	if ok {
		reason = "page contains the needed data"
	}
	return Verdict{Sufficient: ok, Reason: reason, Raw: raw}
}

// #endregion verifier

// FormatRequest builds the verifier's user message.
func FormatRequest(text, query, prompt string) string {
	return fmt.Sprintf("PAGE_TEXT: %s \nUSER_PROMPT: %s \nSEARCH_QUERY: %s", text, prompt, query)
}
