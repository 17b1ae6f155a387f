// Package conversation holds the ordered role-tagged message history of a
// chat session. The turn loop owns the Conversation; everything else sees a View.
package conversation

import (
	"errors"

	"github.com/danielpatrickdp/search-agent/internal/llm"
)

// ErrOutOfRange is returned by positional edits outside the history.
var ErrOutOfRange = errors.New("conversation: index out of range")

// View is the read-only face of a conversation handed to decision functions.
type View interface {
	// Last returns the newest message, or false if there is none.
	Last() (llm.Message, bool)
	// Messages returns a copy of the history.
	Messages() []llm.Message
}

// #region conversation

// Conversation is an ordered message history. It is not safe for
// concurrent use.
type Conversation struct {
	system string
	msgs   []llm.Message
}

// New creates a conversation. A non-empty systemPrompt becomes the first
// message and survives Reset.
func New(systemPrompt string) *Conversation {
	c := &Conversation{system: systemPrompt}
	c.Reset()
	return c
}

func (c *Conversation) Append(m llm.Message) {
	c.msgs = append(c.msgs, m)
}

func (c *Conversation) AppendUser(content string) {
	c.Append(llm.User(content))
}

func (c *Conversation) Last() (llm.Message, bool) {
	if len(c.msgs) == 0 {
		return llm.Message{}, false
	}
	return c.msgs[len(c.msgs)-1], true
}

func (c *Conversation) Messages() []llm.Message {
	out := make([]llm.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *Conversation) Len() int { return len(c.msgs) }

// ReplaceLast swaps the newest message for m.
func (c *Conversation) ReplaceLast(m llm.Message) error {
	return c.ReplaceAt(len(c.msgs)-1, m)
}

// ReplaceAt swaps the message at position i for m.
func (c *Conversation) ReplaceAt(i int, m llm.Message) error {
	if i < 0 || i >= len(c.msgs) {
		return ErrOutOfRange
	}
	c.msgs[i] = m
	return nil
}

// RemoveLast drops the newest message and returns it.
func (c *Conversation) RemoveLast() (llm.Message, error) {
	if len(c.msgs) == 0 {
		return llm.Message{}, ErrOutOfRange
	}
	m := c.msgs[len(c.msgs)-1]
	c.msgs = c.msgs[:len(c.msgs)-1]
	return m, nil
}

// Reset clears the history, keeping only the system prompt.
func (c *Conversation) Reset() {
	c.msgs = c.msgs[:0]
	if c.system != "" {
		c.msgs = append(c.msgs, llm.System(c.system))
	}
}

// #endregion conversation

// LatestUser returns the content of the newest message if it is a user
// message.
func LatestUser(v View) (string, bool) {
	m, ok := v.Last()
	if !ok || m.Role != llm.RoleUser {
		return "", false
	}
	return m.Content, true
}
