package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type netTimeout struct{}

func (netTimeout) Error() string   { return "i/o timeout" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

func TestClassify_DeadlineIsTimeout(t *testing.T) {
	err := Classify("fetch", fmt.Errorf("do: %w", context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, err.Kind)
	assert.Equal(t, "fetch", err.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassify_NetTimeout(t *testing.T) {
	err := Classify("search", netTimeout{})
	assert.Equal(t, KindTimeout, err.Kind)
}

func TestClassify_OtherIsTransport(t *testing.T) {
	err := Classify("search", errors.New("connection refused"))
	assert.Equal(t, KindTransport, err.Kind)
}

func TestClassify_KeepsExistingKind(t *testing.T) {
	orig := New(KindStatus, "search", errors.New("http 503"))
	err := Classify("other", fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, err)
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify("x", nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(errors.New("plain")))
	assert.Equal(t, KindParse, KindOf(fmt.Errorf("ctx: %w", New(KindParse, "chat", nil))))
	assert.True(t, Is(Newf(KindEmpty, "fetch", "no text at %s", "u"), KindEmpty))
	assert.False(t, Is(nil, KindEmpty))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "fetch: empty", New(KindEmpty, "fetch", nil).Error())
	assert.Equal(t, "chat: status: http 500", Newf(KindStatus, "chat", "http %d", 500).Error())
}
