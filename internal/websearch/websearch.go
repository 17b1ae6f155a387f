package websearch

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// #region types

// Result holds a single search result. Ordinal is the 1-based position the
// provider reported it at and never changes.
type Result struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title,omitempty"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Provider turns a query into an ordered candidate list. An error is a
// failure of the search itself; an empty slice means zero results.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Config holds web search parameters.
type Config struct {
	Provider    string // "duckduckgo" or "codec"
	Endpoint    string
	UserAgent   string
	MaxResults  int
	Timeout     time.Duration
	MinInterval time.Duration
	Enabled     bool
}

// NoDescription is the snippet used when a result carries none.
const NoDescription = "No description available"

// MaxResultsCap is the most results any provider returns.
const MaxResultsCap = 10

// #endregion types

// #region config

// DefaultConfig returns default web search configuration. Environment
// overrides (WEB_SEARCH_*) are applied by the config loader.
func DefaultConfig() Config {
	return Config{
		Provider:    "duckduckgo",
		Endpoint:    "https://duckduckgo.com/html/",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxResults:  MaxResultsCap,
		Timeout:     15 * time.Second,
		MinInterval: time.Second,
		Enabled:     true,
	}
}

// ClampResults limits n to [1, MaxResultsCap].
func ClampResults(n int) int {
	if n <= 0 || n > MaxResultsCap {
		return MaxResultsCap
	}
	return n
}

// #endregion config

// #region format

// FormatResults renders a candidate list for logs and the terminal.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[Web Search Results]\n")
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = r.Link
		}
		fmt.Fprintf(&b, "%d. %s\n", r.Ordinal, title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		if r.Link != "" && r.Link != title {
			fmt.Fprintf(&b, "   Source: %s\n", r.Link)
		}
	}
	return b.String()
}

// #endregion format
