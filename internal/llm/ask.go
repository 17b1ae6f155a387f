package llm

import (
	"context"
	"strings"
)

// Ask sends msgs to c with c's model and returns the assistant text.
func Ask(ctx context.Context, c Client, msgs ...Message) (string, error) {
	resp, err := c.Chat(ctx, ChatRequest{Model: c.ModelID(), Messages: msgs})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Collect drains a stream, calling onDelta for each fragment. It returns the
// concatenated text and the first stream error, if any.
func Collect(ctx context.Context, stream <-chan StreamDelta, onDelta func(string) error) (string, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return b.String(), ctx.Err()
		case d, ok := <-stream:
			if !ok {
				return b.String(), nil
			}
			if d.Err != nil {
				return b.String(), d.Err
			}
			if d.Content != "" {
				b.WriteString(d.Content)
				if onDelta != nil {
					if err := onDelta(d.Content); err != nil {
						return b.String(), err
					}
				}
			}
			if d.Done {
				return b.String(), nil
			}
		}
	}
}
