package codec

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/search-agent/internal/failure"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// #region methods
// Full method names served by the inference sidecar. Messages are
// google.protobuf.Struct on both sides.
const (
	MethodChat       = "/searchagent.v1.Codec/Chat"
	MethodChatStream = "/searchagent.v1.Codec/ChatStream"
	MethodWebSearch  = "/searchagent.v1.Codec/WebSearch"
)

var chatStreamDesc = &grpc.StreamDesc{StreamName: "ChatStream", ServerStreams: true}

// #endregion methods

// #region client-struct
// CodecClient talks to the inference sidecar over gRPC. It serves as both
// an llm.Client and a websearch.Provider.
type CodecClient struct {
	conn       *grpc.ClientConn
	model      string
	maxResults int
}

// #endregion client-struct

// #region constructor
// NewCodecClient connects to the inference gRPC server.
func NewCodecClient(addr, model string, maxResults int) (*CodecClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return NewCodecClientWithConn(conn, model, maxResults), nil
}

// NewCodecClientWithConn wraps an existing connection.
// Used for testing against an in-process server.
func NewCodecClientWithConn(conn *grpc.ClientConn, model string, maxResults int) *CodecClient {
	return &CodecClient{conn: conn, model: model, maxResults: websearch.ClampResults(maxResults)}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *CodecClient) Close() error {
	return c.conn.Close()
}

// ModelID returns the model name sent with chat requests.
func (c *CodecClient) ModelID() string { return c.model }

// #endregion close

// #region chat
// Chat sends the messages and returns the complete assistant reply.
func (c *CodecClient) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	in, err := c.chatRequest(req)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, MethodChat, in, out); err != nil {
		return nil, rpcError("chat rpc", err)
	}

	msg := out.GetFields()["message"].GetStructValue()
	if msg == nil {
		return nil, failure.Newf(failure.KindParse, "chat rpc", "response has no message")
	}
	role := msg.GetFields()["role"].GetStringValue()
	if role == "" {
		role = llm.RoleAssistant
	}
	return &llm.ChatResponse{Message: llm.Message{
		Role:    role,
		Content: msg.GetFields()["content"].GetStringValue(),
	}}, nil
}

// #endregion chat

// #region chat-stream
// ChatStream opens a server stream and forwards fragments on a channel.
func (c *CodecClient) ChatStream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamDelta, error) {
	in, err := c.chatRequest(req)
	if err != nil {
		return nil, err
	}
	stream, err := c.conn.NewStream(ctx, chatStreamDesc, MethodChatStream)
	if err != nil {
		return nil, rpcError("chat stream rpc", err)
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, rpcError("chat stream send", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, rpcError("chat stream close", err)
	}

	ch := make(chan llm.StreamDelta, 32)
	go func() {
		defer close(ch)
		send := func(d llm.StreamDelta) bool {
			select {
			case ch <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			chunk := &structpb.Struct{}
			err := stream.RecvMsg(chunk)
			if errors.Is(err, io.EOF) {
				send(llm.StreamDelta{Done: true})
				return
			}
			if err != nil {
				send(llm.StreamDelta{Err: rpcError("chat stream recv", err)})
				return
			}
			fields := chunk.GetFields()
			d := llm.StreamDelta{
				Content: fields["content"].GetStringValue(),
				Done:    fields["done"].GetBoolValue(),
			}
			if !send(d) || d.Done {
				return
			}
		}
	}()
	return ch, nil
}

// #endregion chat-stream

// #region web-search
// Search implements websearch.Provider via the sidecar's WebSearch method.
// Ordinals are assigned from the response order.
func (c *CodecClient) Search(ctx context.Context, query string) ([]websearch.Result, error) {
	if query == "" {
		return nil, errors.New("query is empty")
	}
	in, err := structpb.NewStruct(map[string]any{
		"query":       query,
		"max_results": c.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("build web search request: %w", err)
	}
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, MethodWebSearch, in, out); err != nil {
		return nil, rpcError("web search rpc", err)
	}

	items := out.GetFields()["results"].GetListValue().GetValues()
	results := make([]websearch.Result, 0, len(items))
	for i, v := range items {
		if i >= c.maxResults {
			break
		}
		f := v.GetStructValue().GetFields()
		link := f["link"].GetStringValue()
		if link == "" {
			link = f["url"].GetStringValue()
		}
		if link == "" {
			continue
		}
		snippet := f["snippet"].GetStringValue()
		if snippet == "" {
			snippet = websearch.NoDescription
		}
		results = append(results, websearch.Result{
			Ordinal: i + 1,
			Title:   f["title"].GetStringValue(),
			Link:    link,
			Snippet: snippet,
		})
	}
	return results, nil
}

// #endregion web-search

// #region helpers
func (c *CodecClient) chatRequest(req llm.ChatRequest) (*structpb.Struct, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	msgs := make([]any, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = map[string]any{"role": m.Role, "content": m.Content}
	}
	s, err := structpb.NewStruct(map[string]any{"model": model, "messages": msgs})
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	return s, nil
}

// rpcError maps a gRPC status onto a failure kind.
func rpcError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return failure.Classify(op, err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		return failure.New(failure.KindTimeout, op, err)
	case codes.Unavailable, codes.Canceled:
		return failure.New(failure.KindTransport, op, err)
	case codes.Unimplemented:
		return failure.New(failure.KindUnsupported, op, err)
	default:
		return failure.New(failure.KindStatus, op, err)
	}
}

// #endregion helpers

var (
	_ llm.Client         = (*CodecClient)(nil)
	_ websearch.Provider = (*CodecClient)(nil)
)
