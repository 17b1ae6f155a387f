package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danielpatrickdp/search-agent/internal/failure"
)

// #region config

// OllamaConfig configures the Ollama chat client.
type OllamaConfig struct {
	BaseURL string
	Model   string
	// Timeout bounds a non-streaming call. Streaming calls rely on the
	// caller's context.
	Timeout time.Duration
}

// DefaultOllamaConfig returns the local Ollama defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL: "http://localhost:11434",
		Model:   "mistral",
		Timeout: 60 * time.Second,
	}
}

// #endregion config

// #region client-struct

// OllamaClient implements Client against Ollama's /api/chat endpoint.
type OllamaClient struct {
	cfg  OllamaConfig
	http *http.Client
}

// NewOllamaClient creates a client. A nil httpClient uses a default one.
func NewOllamaClient(cfg OllamaConfig, httpClient *http.Client) *OllamaClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OllamaClient{cfg: cfg, http: httpClient}
}

// ModelID returns the configured model name.
func (c *OllamaClient) ModelID() string { return c.cfg.Model }

// #endregion client-struct

// #region wire
type ollamaRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChunk struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

// #endregion wire

// #region chat

// Chat performs a single non-streaming completion.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chunk ollamaChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		if failure.IsTimeoutErr(err) {
			return nil, failure.New(failure.KindTimeout, "chat", err)
		}
		return nil, failure.New(failure.KindParse, "chat", fmt.Errorf("decode response: %w", err))
	}
	if chunk.Error != "" {
		return nil, failure.Newf(failure.KindStatus, "chat", "model error: %s", chunk.Error)
	}
	if chunk.Message.Role == "" {
		chunk.Message.Role = RoleAssistant
	}
	return &ChatResponse{Message: chunk.Message}, nil
}

// #endregion chat

// #region chat-stream

// ChatStream starts a streaming completion. Fragments are delivered on the
// returned channel, which is closed when the reply ends or fails.
func (c *OllamaClient) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error) {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamDelta, 32)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		send := func(d StreamDelta) bool {
			select {
			case ch <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				send(StreamDelta{Err: failure.New(failure.KindParse, "chat stream", err)})
				return
			}
			if chunk.Error != "" {
				send(StreamDelta{Err: failure.Newf(failure.KindStatus, "chat stream", "model error: %s", chunk.Error)})
				return
			}
			if !send(StreamDelta{Content: chunk.Message.Content, Done: chunk.Done}) || chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(StreamDelta{Err: failure.Classify("chat stream", err)})
			return
		}
		send(StreamDelta{Done: true})
	}()
	return ch, nil
}

// #endregion chat-stream

// #region post
func (c *OllamaClient) post(ctx context.Context, req ChatRequest, stream bool) (*http.Response, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	body, err := json.Marshal(ollamaRequest{Model: model, Messages: req.Messages, Stream: stream})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, failure.Classify("chat", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, failure.Newf(failure.KindStatus, "chat", "http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

// #endregion post
