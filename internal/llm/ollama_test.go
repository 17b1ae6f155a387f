package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/search-agent/internal/failure"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *OllamaClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultOllamaConfig()
	cfg.BaseURL = srv.URL + "/"
	cfg.Timeout = 2 * time.Second
	return NewOllamaClient(cfg, srv.Client())
}

// #region chat-tests

func TestChat_Success(t *testing.T) {
	var got ollamaRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"True"},"done":true}`)
	})

	resp, err := c.Chat(context.Background(), ChatRequest{Messages: []Message{System("s"), User("u")}})
	require.NoError(t, err)
	assert.Equal(t, "True", resp.Message.Content)
	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream)
	assert.Len(t, got.Messages, 2)
}

func TestChat_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	_, err := c.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, failure.KindStatus, failure.KindOf(err))
}

func TestChat_ParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	})
	_, err := c.Chat(context.Background(), ChatRequest{})
	assert.Equal(t, failure.KindParse, failure.KindOf(err))
}

func TestChat_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	c.cfg.Timeout = 50 * time.Millisecond
	_, err := c.Chat(context.Background(), ChatRequest{})
	assert.Equal(t, failure.KindTimeout, failure.KindOf(err))
}

func TestAsk_UsesModelID(t *testing.T) {
	var got ollamaRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"2"},"done":true}`)
	})
	c.cfg.Model = "llama3"
	out, err := Ask(context.Background(), c, User("pick"))
	require.NoError(t, err)
	assert.Equal(t, "2", out)
	assert.Equal(t, "llama3", got.Model)
}

// #endregion chat-tests

// #region stream-tests

func TestChatStream_Fragments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Paris "},"done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"it is."},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	})

	stream, err := c.ChatStream(context.Background(), ChatRequest{Messages: []Message{User("q")}})
	require.NoError(t, err)

	var parts []string
	text, err := Collect(context.Background(), stream, func(s string) error {
		parts = append(parts, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris it is.", text)
	assert.Equal(t, []string{"Paris ", "it is."}, parts)
}

func TestChatStream_BadLine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"a"},"done":false}`)
		fmt.Fprintln(w, `{broken`)
	})
	stream, err := c.ChatStream(context.Background(), ChatRequest{})
	require.NoError(t, err)
	text, err := Collect(context.Background(), stream, nil)
	assert.Equal(t, "a", text)
	assert.Equal(t, failure.KindParse, failure.KindOf(err))
}

func TestChatStream_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.ChatStream(context.Background(), ChatRequest{})
	assert.Equal(t, failure.KindStatus, failure.KindOf(err))
}

// #endregion stream-tests
