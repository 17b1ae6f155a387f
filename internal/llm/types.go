package llm

import "context"

// #region roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// #endregion roles

// #region types

// Message is one role-tagged entry of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a full model invocation.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatResponse holds a complete assistant message.
type ChatResponse struct {
	Message Message `json:"message"`
}

// StreamDelta is one fragment of a streamed reply. The final delta has
// Done set. A delta with Err set ends the stream.
type StreamDelta struct {
	Content string
	Done    bool
	Err     error
}

// #endregion types

// #region client

// Client talks to an inference endpoint.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error)
	ModelID() string
}

// #endregion client

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant builds an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }
