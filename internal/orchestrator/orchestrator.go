package orchestrator

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/metrics"
)

// #endregion

// #region orchestrator-struct

// Deps are the orchestrator's collaborators. Tracer and Logger are optional.
type Deps struct {
	Conversation *conversation.Conversation
	Gate         SearchGate
	Retriever    Retriever
	Model        llm.Client
	Tracer       Tracer
	Logger       *zap.Logger
}

// Orchestrator runs one user turn end to end: gate, optional retrieval,
// framing and the streamed reply. It is the only writer of the conversation.
type Orchestrator struct {
	config Config
	deps   Deps
}

// #endregion

// #region constructor

// New creates an orchestrator.
func New(config Config, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Conversation == nil {
		deps.Conversation = conversation.New("")
	}
	return &Orchestrator{config: config, deps: deps}
}

// Conversation returns a read-only view of the history.
func (o *Orchestrator) Conversation() conversation.View {
	return o.deps.Conversation
}

// Reset clears the history, keeping the system prompt.
func (o *Orchestrator) Reset() {
	o.deps.Conversation.Reset()
}

// #endregion

// #region handle-turn

// HandleTurn appends prompt, decides on and runs retrieval, and streams the
// reply to w. On reply failure the provisional user message is removed and
// the error returned.
func (o *Orchestrator) HandleTurn(ctx context.Context, prompt string, w io.Writer) (TurnResult, error) {
	res := TurnResult{TurnID: logging.NewTurnID()}
	ctx = logging.WithTurnID(ctx, res.TurnID)
	log := o.deps.Logger.With(zap.String("turn_id", res.TurnID))

	conv := o.deps.Conversation
	conv.AppendUser(prompt)
	idx := conv.Len() - 1
	o.record(ctx, "turn_start", prompt)

	if o.config.SearchEnabled && o.deps.Gate != nil {
		res.Gate = o.deps.Gate.Evaluate(ctx, conv)
		res.Searched = res.Gate.Search
		o.record(ctx, "gate", fmt.Sprintf("search=%v raw=%q", res.Gate.Search, res.Gate.Raw))
		log.Debug("search or not", zap.Bool("search", res.Gate.Search), zap.String("raw", res.Gate.Raw), zap.String("reason", res.Gate.Reason))
		result := "skip"
		if res.Searched {
			result = "search"
		} else if res.Gate.Err != nil {
			result = "default"
		}
		metrics.Decisions.WithLabelValues("gate", result).Inc()
	}

	if res.Searched && o.deps.Retriever != nil {
		out, err := o.deps.Retriever.Run(ctx, conv)
		if err != nil && ctx.Err() != nil {
			o.abandon(idx)
			return res, err
		}
		if err != nil {
			res.RetrievalErr = err
			log.Error("retrieval failed, continuing without context", zap.Error(err))
			o.record(ctx, "retrieval_error", err.Error())
		}
		res.Outcome = out

		if out.Found {
			res.Framed = FrameContext(out.Context, prompt)
		} else {
			res.Framed = FrameFailure(prompt)
		}
		if err := conv.ReplaceLast(llm.User(res.Framed)); err != nil {
			return res, fmt.Errorf("frame prompt: %w", err)
		}
	}

	reply, err := o.reply(ctx, w)
	if err != nil {
		o.abandon(idx)
		o.record(ctx, "reply_failed", err.Error())
		return res, err
	}
	res.Reply = reply
	conv.Append(llm.Assistant(reply))

	if res.Framed != "" && !o.config.KeepSearchContext {
		if err := conv.ReplaceAt(idx, llm.User(prompt)); err != nil {
			return res, fmt.Errorf("restore prompt: %w", err)
		}
	}

	o.recordTurn(ctx, prompt, res)
	return res, nil
}

// #endregion

// #region reply
func (o *Orchestrator) reply(ctx context.Context, w io.Writer) (string, error) {
	if o.config.ReplyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.ReplyTimeout)
		defer cancel()
	}

	stream, err := o.deps.Model.ChatStream(ctx, llm.ChatRequest{
		Model:    o.deps.Model.ModelID(),
		Messages: o.deps.Conversation.Messages(),
	})
	if err != nil {
		return "", fmt.Errorf("reply stream: %w", err)
	}
	text, err := llm.Collect(ctx, stream, func(s string) error {
		if w == nil {
			return nil
		}
		_, err := io.WriteString(w, s)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("reply stream: %w", err)
	}
	if text == "" {
		return "", errors.New("reply stream: empty reply")
	}
	return text, nil
}

// #endregion

// #region helpers

// abandon drops the provisional user message at idx, if it is still last.
func (o *Orchestrator) abandon(idx int) {
	conv := o.deps.Conversation
	if conv.Len()-1 == idx {
		_, _ = conv.RemoveLast()
	}
}

func (o *Orchestrator) record(ctx context.Context, step, detail string) {
	if o.deps.Tracer != nil {
		o.deps.Tracer.Record(ctx, step, detail)
	}
}

func (o *Orchestrator) recordTurn(ctx context.Context, prompt string, res TurnResult) {
	if o.deps.Tracer == nil {
		return
	}
	rec := logging.TurnRecord{
		TurnID:          res.TurnID,
		Prompt:          prompt,
		Searched:        res.Searched,
		GateRaw:         res.Gate.Raw,
		Query:           res.Outcome.Query,
		Results:         res.Outcome.Results,
		StaleSelections: res.Outcome.StaleSelections,
		Found:           res.Outcome.Found,
		Source:          res.Outcome.Source.Link,
		Reason:          res.Outcome.Reason,
	}
	for _, t := range res.Outcome.Tried {
		rec.Tried = append(rec.Tried, t.Link)
	}
	if res.RetrievalErr != nil {
		rec.Error = res.RetrievalErr.Error()
	}
	if err := o.deps.Tracer.RecordTurn(ctx, rec); err != nil {
		o.deps.Logger.Warn("turn summary not recorded", zap.String("turn_id", res.TurnID), zap.Error(err))
	}
}

// #endregion
