package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/orchestrator"
)

type fakeSession struct {
	prompts []string
	resets  int
	err     error
	trace   turnTrace
}

func (f *fakeSession) HandleTurn(_ context.Context, prompt string, w io.Writer) (orchestrator.TurnResult, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return orchestrator.TurnResult{}, f.err
	}
	io.WriteString(w, "reply to "+prompt)
	return orchestrator.TurnResult{Reply: "reply to " + prompt}, nil
}

func (f *fakeSession) Reset() { f.resets++ }

func (f *fakeSession) LastTrace(context.Context) (turnTrace, error) {
	return f.trace, nil
}

func TestREPL_ExitIsCaseInsensitive(t *testing.T) {
	s := &fakeSession{}
	var out bytes.Buffer
	err := runREPL(context.Background(), strings.NewReader("hello\n\nEXIT\nnever\n"), &out, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, s.prompts)
	assert.Contains(t, out.String(), "reply to hello")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestREPL_EndOfInput(t *testing.T) {
	s := &fakeSession{}
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), strings.NewReader("one\ntwo"), &out, s))
	assert.Equal(t, []string{"one", "two"}, s.prompts)
	assert.NotContains(t, out.String(), "Goodbye!")
}

func TestREPL_Commands(t *testing.T) {
	s := &fakeSession{trace: turnTrace{
		Entries: []logging.TraceEntry{{Step: "START"}, {Step: "FOUND", Detail: "https://a.example"}, {Step: "turn_summary", Detail: "{}"}},
		Summary: &logging.TurnRecord{Searched: true, Found: true, Query: "capital of france", Tried: []string{"https://a.example"}},
		Total:   12,
	}}
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), strings.NewReader(":reset\n:trace\nexit\n"), &out, s))
	assert.Equal(t, 1, s.resets)
	assert.Empty(t, s.prompts)
	assert.Contains(t, out.String(), "https://a.example")
	assert.Contains(t, out.String(), `searched=true found=true tried=1 stale=0 query="capital of france"`)
	assert.Contains(t, out.String(), "12 trace rows this session")
	assert.NotContains(t, out.String(), "{}")
}

func TestREPL_TurnErrorKeepsGoing(t *testing.T) {
	s := &fakeSession{err: errors.New("model unreachable")}
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), strings.NewReader("a\nb\nexit\n"), &out, s))
	assert.Len(t, s.prompts, 2)
	assert.Contains(t, out.String(), "model unreachable")
}

func TestLabelWriter(t *testing.T) {
	var out bytes.Buffer
	w := &labelWriter{w: &out, label: "A: "}
	io.WriteString(w, "x")
	io.WriteString(w, "y")
	assert.Equal(t, "A: xy", out.String())
}

func TestREPL_TraceBeforeAnyTurn(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), strings.NewReader(":trace\n"), &out, &fakeSession{}))
	assert.Contains(t, out.String(), "no turns yet")
}
