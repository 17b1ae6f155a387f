package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/llm/llmtest"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		`"weather today"`:   "weather today",
		`weather today`:     "weather today",
		`  "weather today"`: "weather today",
		``:                  "",
		`"`:                 "",
		`""`:                "",
		`"half quoted`:      "half quote",
		`weather "today"`:   `weather "today"`,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
	assert.Equal(t, "capital of france", Normalize("\n capital of france \n"))
}

func TestNormalize_MultibyteClosingQuote(t *testing.T) {
	got := Normalize("\"weather today\u201d")
	assert.Equal(t, "weather today", got)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "", Normalize("\"\u00e9"))
	assert.Equal(t, "café", Normalize(`"café"`))
}

func TestFormulate(t *testing.T) {
	model := llmtest.New(`"capital of France"`)
	c := conversation.New("sys")
	c.AppendUser("what's the capital of France?")

	q, err := NewFormulator(DefaultConfig(), model, nil).Formulate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "capital of France", q)

	msgs := model.Requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, SystemPrompt, msgs[0].Content)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Equal(t, "CREATE A SEARCH QUERY FOR THIS PROMPT: \nwhat's the capital of France?", msgs[1].Content)
}

func TestFormulate_EmptyIsNotError(t *testing.T) {
	c := conversation.New("")
	c.AppendUser("x")
	q, err := NewFormulator(DefaultConfig(), llmtest.New(`"`), nil).Formulate(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, q)
}

func TestFormulate_ModelError(t *testing.T) {
	c := conversation.New("")
	c.AppendUser("x")
	boom := errors.New("boom")
	model := (&llmtest.Stub{}).Push(llmtest.Reply{Err: boom})
	_, err := NewFormulator(DefaultConfig(), model, nil).Formulate(context.Background(), c)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.HasPrefix(err.Error(), "formulate query"))
}

func TestFormulate_NoUserMessage(t *testing.T) {
	_, err := NewFormulator(DefaultConfig(), llmtest.New("q"), nil).Formulate(context.Background(), conversation.New("sys"))
	assert.ErrorIs(t, err, ErrNoUserMessage)
}
