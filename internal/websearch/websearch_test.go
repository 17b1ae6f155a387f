package websearch

import (
	"strings"
	"testing"
)

// #region format_tests

func TestFormatResults_MultipleResults(t *testing.T) {
	results := []Result{
		{Ordinal: 1, Title: "Title A", Snippet: "Snippet A", Link: "https://a.com"},
		{Ordinal: 3, Title: "Title B", Snippet: "Snippet B", Link: "https://b.com"},
	}
	out := FormatResults(results)
	if !strings.Contains(out, "[Web Search Results]") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "1. Title A") {
		t.Error("missing result 1")
	}
	if !strings.Contains(out, "3. Title B") {
		t.Error("result should keep its provider ordinal")
	}
	if !strings.Contains(out, "Source: https://a.com") {
		t.Error("missing source URL")
	}
}

func TestFormatResults_Empty(t *testing.T) {
	if out := FormatResults(nil); out != "" {
		t.Errorf("expected empty string for nil results, got %q", out)
	}
}

func TestFormatResults_NoTitleUsesLink(t *testing.T) {
	out := FormatResults([]Result{{Ordinal: 1, Link: "https://c.com", Snippet: "S"}})
	if !strings.Contains(out, "1. https://c.com") {
		t.Errorf("expected link as title, got %q", out)
	}
	if strings.Contains(out, "Source:") {
		t.Error("should not repeat the link as Source")
	}
}

// #endregion format_tests

// #region config_tests

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxResults != 10 {
		t.Errorf("expected MaxResults=10, got %d", cfg.MaxResults)
	}
	if !cfg.Enabled {
		t.Error("expected Enabled=true by default")
	}
	if cfg.Provider != "duckduckgo" {
		t.Errorf("expected duckduckgo provider, got %q", cfg.Provider)
	}
}

func TestClampResults(t *testing.T) {
	for in, want := range map[int]int{0: 10, -3: 10, 3: 3, 10: 10, 25: 10} {
		if got := ClampResults(in); got != want {
			t.Errorf("ClampResults(%d) = %d, want %d", in, got, want)
		}
	}
}

// #endregion config_tests
