package main

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/codec"
	"github.com/danielpatrickdp/search-agent/internal/config"
	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/eval"
	"github.com/danielpatrickdp/search-agent/internal/extract"
	"github.com/danielpatrickdp/search-agent/internal/gate"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/orchestrator"
	"github.com/danielpatrickdp/search-agent/internal/query"
	"github.com/danielpatrickdp/search-agent/internal/retrieval"
	"github.com/danielpatrickdp/search-agent/internal/selector"
	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// app is the wired agent plus everything that needs closing.
type app struct {
	orch    *orchestrator.Orchestrator
	trace   *logging.TraceStore
	closers []io.Closer
}

func (a *app) HandleTurn(ctx context.Context, prompt string, w io.Writer) (orchestrator.TurnResult, error) {
	return a.orch.HandleTurn(ctx, prompt, w)
}

func (a *app) Reset() { a.orch.Reset() }

func (a *app) LastTrace(ctx context.Context) (turnTrace, error) {
	var tt turnTrace
	id, err := a.trace.LastTurnID(ctx)
	if err != nil || id == "" {
		return tt, err
	}
	if tt.Entries, err = a.trace.Turn(ctx, id); err != nil {
		return tt, err
	}
	rec, ok, err := a.trace.TurnSummary(ctx, id)
	if err != nil {
		return tt, err
	}
	if ok {
		tt.Summary = &rec
	}
	tt.Total, err = a.trace.Count(ctx)
	return tt, err
}

func (a *app) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	return nil
}

// wire builds the agent from configuration. status lines go to out.
func wire(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	var codecClient *codec.CodecClient
	dialCodec := func() (*codec.CodecClient, error) {
		if codecClient != nil {
			return codecClient, nil
		}
		c, err := codec.NewCodecClient(cfg.Model.CodecAddr, cfg.Model.Name, cfg.Search.MaxResults)
		if err != nil {
			return nil, err
		}
		codecClient = c
		a.closers = append(a.closers, c)
		return c, nil
	}

	var model llm.Client
	switch cfg.Model.Provider {
	case "codec":
		c, err := dialCodec()
		if err != nil {
			return fail(err)
		}
		model = c
	default:
		model = llm.NewOllamaClient(cfg.Ollama(), nil)
	}

	var search websearch.Provider
	switch cfg.Search.Provider {
	case "codec":
		c, err := dialCodec()
		if err != nil {
			return fail(err)
		}
		search = c
	default:
		rateGate, err := buildRateGate(ctx, cfg, a, logger)
		if err != nil {
			return fail(err)
		}
		search = websearch.NewDuckDuckGo(cfg.WebSearch(), nil, rateGate, logger)
	}

	trace, err := logging.NewTraceStore(logger)
	if err != nil {
		return fail(fmt.Errorf("open trace store: %w", err))
	}
	a.trace = trace
	a.closers = append(a.closers, trace)

	loop := retrieval.NewLoop(cfg.Loop(), retrieval.Deps{
		Formulator: query.NewFormulator(cfg.Query(), model, logger),
		Search:     search,
		Selector:   selector.NewSelector(cfg.Selector(), model, logger),
		Extractor:  extract.New(cfg.Extractor(), nil, logger),
		Verifier:   eval.NewVerifier(cfg.Verifier(), model, logger),
		Recorder:   trace,
		Status:     func(msg string) { fmt.Fprintln(out, statusStyle.Render(msg)) },
		Logger:     logger,
	})

	a.orch = orchestrator.New(cfg.Orchestrator(), orchestrator.Deps{
		Conversation: conversation.New(cfg.Chat.SystemPrompt),
		Gate:         gate.NewGate(cfg.Gate(), model, logger),
		Retriever:    loop,
		Model:        model,
		Tracer:       trace,
		Logger:       logger,
	})
	return a, nil
}

// buildRateGate shares the search spacing through Redis when an address is
// configured, otherwise keeps it in process.
func buildRateGate(ctx context.Context, cfg *config.Config, a *app, logger *zap.Logger) (websearch.RateGate, error) {
	if cfg.Search.RedisAddr == "" {
		return websearch.NewMemoryGate(cfg.Search.MinInterval), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Search.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Search.RedisAddr, err)
	}
	a.closers = append(a.closers, client)
	logger.Info("search rate gate shared through redis", zap.String("addr", cfg.Search.RedisAddr))
	return websearch.NewRedisGate(client, cfg.Search.RedisKey, cfg.Search.MinInterval), nil
}
