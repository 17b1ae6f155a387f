// Package query turns the latest user message into a web search query.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/search-agent/internal/conversation"
	"github.com/danielpatrickdp/search-agent/internal/llm"
)

// SystemPrompt instructs the model to write a search query.
const SystemPrompt = `You are not an AI assistant that responds to a user. You are an AI web search query generator model. You will be given a prompt to an AI assistant with web search capabilities. If you are being used, an AI has determined this prompt to the actual AI assistant requires web search for more recent data. You must determine what the data is the assistant needs from search and generate the best possible DuckDuckGo query to find that data. Do not respond with anything but a query that an expert human search engine user would type into DuckDuckGo to find the needed data. Keep your queries simple, without any search engine code. Just type a query likely to retrieve the data we need.`

// UserPrefix precedes the latest user message in the formulation request.
const UserPrefix = "CREATE A SEARCH QUERY FOR THIS PROMPT: \n"

// ErrNoUserMessage is returned when the conversation does not end with a
// user message.
var ErrNoUserMessage = errors.New("latest message is not a user message")

// Config holds the formulator's call parameters.
type Config struct {
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{Timeout: 60 * time.Second}
}

// Formulator asks the model for a query.
type Formulator struct {
	config Config
	model  llm.Client
	logger *zap.Logger
}

func NewFormulator(config Config, model llm.Client, logger *zap.Logger) *Formulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formulator{config: config, model: model, logger: logger}
}

// Formulate returns the normalized query. A model failure is returned as is;
// an empty query is not an error.
func (f *Formulator) Formulate(ctx context.Context, view conversation.View) (string, error) {
	latest, ok := conversation.LatestUser(view)
	if !ok {
		return "", ErrNoUserMessage
	}
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	raw, err := llm.Ask(ctx, f.model, llm.System(SystemPrompt), llm.User(UserPrefix+latest))
	if err != nil {
		return "", fmt.Errorf("formulate query: %w", err)
	}
	q := Normalize(raw)
	f.logger.Debug("query formed", zap.String("raw", raw), zap.String("query", q))
	return q, nil
}

// Normalize trims surrounding whitespace and strips wrapping quotes. When
// the first character is a double quote, exactly one leading and one
// trailing character are dropped, whatever the closing character is, and
// the remainder is trimmed again. A lone quote yields "".
func Normalize(q string) string {
	q = strings.TrimSpace(q)
	if !strings.HasPrefix(q, `"`) {
		return q
	}
	q = q[1:]
	if q == "" {
		return ""
	}
	_, n := utf8.DecodeLastRuneInString(q)
	return strings.TrimSpace(q[:len(q)-n])
}
