package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture. Each turn
// scripts every model answer it needs, the search results and the pages.
type Fixture struct {
	Description       string        `json:"description"`
	SystemPrompt      string        `json:"system_prompt"`
	KeepSearchContext *bool         `json:"keep_search_context,omitempty"`
	MaxStaleSelection int           `json:"max_stale_selections,omitempty"`
	Turns             []FixtureTurn `json:"turns"`
}

// FixtureTurn is one scripted user turn.
type FixtureTurn struct {
	Prompt     string             `json:"prompt"`
	Gate       string             `json:"gate"`
	Queries    []string           `json:"queries"`
	Selections []string           `json:"selections"`
	Verdicts   []string           `json:"verdicts"`
	Reply      string             `json:"reply"`
	Results    []websearch.Result `json:"results"`
	Pages      map[string]string  `json:"pages"`
	Expect     FixtureExpect      `json:"expect"`
}

// FixtureExpect is checked against the turn's outcome. Empty fields are
// not checked.
type FixtureExpect struct {
	Searched        bool     `json:"searched"`
	Found           bool     `json:"found"`
	Source          string   `json:"source,omitempty"`
	Tried           []string `json:"tried,omitempty"`
	ContextContains string   `json:"context_contains,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("fixture %s has no turns", path)
	}
	return &f, nil
}

// #endregion fixture-loader
