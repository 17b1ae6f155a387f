package gate

import "time"

// #region prompt

// SystemPrompt instructs the model to make the search-or-not decision.
const SystemPrompt = `You are not an AI assistant. Your only task is to decide if the last user prompt in a conversation with an AI assistant requires more data to be retrieved from a web search for the assistant to respond correctly. The conversation may or may not already have exactly the context data needed. If the assistant should search the web for more data before responding, respond only with "True". If the conversation already has the context, or a web search would not help the assistant respond, respond only with "False". Do not generate any explanations. Only generate "True" or "False" as a response to the last user prompt.`

// #endregion prompt

// #region gate-config

// Config holds the gate's call parameters.
type Config struct {
	Timeout time.Duration
}

// DefaultConfig returns the gate defaults.
func DefaultConfig() Config {
	return Config{Timeout: 60 * time.Second}
}

// #endregion gate-config

// #region gate-decision

// Decision is the output of the search-or-not evaluation.
type Decision struct {
	Search bool
	Reason string
	Raw    string // model output, empty on call failure
	Err    error  // call or parse failure that forced the default
}

// #endregion gate-decision
