package verdict

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"True, a search is needed.", true, false},
		{"TRUE", true, false},
		{"false", false, false},
		{"False. No search.", false, false},
		{"I will not search.", false, true},
		{"", false, true},
		{"untrue", true, false},
	}
	for _, c := range cases {
		got, err := ParseVerdict(c.in)
		if got != c.want {
			t.Errorf("ParseVerdict(%q) = %v, want %v", c.in, got, c.want)
		}
		if (err != nil) != c.wantErr {
			t.Errorf("ParseVerdict(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
		}
		if err != nil && !errors.Is(err, ErrNoVerdict) {
			t.Errorf("expected ErrNoVerdict, got %v", err)
		}
	}
}

func TestParseIndex(t *testing.T) {
	if n, err := ParseIndex(" 2\n"); err != nil || n != 2 {
		t.Fatalf("expected 2, got %d (%v)", n, err)
	}
	if n, err := ParseIndex("-1"); err != nil || n != -1 {
		t.Fatalf("expected -1, got %d (%v)", n, err)
	}
	for _, bad := range []string{"abc", "", "2.", "index 2", "1 2"} {
		if _, err := ParseIndex(bad); !errors.Is(err, ErrNotInteger) {
			t.Errorf("ParseIndex(%q): expected ErrNotInteger, got %v", bad, err)
		}
	}
}

func TestParseIndex_LongResponseClipped(t *testing.T) {
	_, err := ParseIndex(strings.Repeat("x", 500))
	if err == nil || len(err.Error()) > 200 {
		t.Fatalf("expected clipped error, got %v", err)
	}
}

func TestClip_RuneBoundary(t *testing.T) {
	got := clip(strings.Repeat("é", 100))
	if !utf8.ValidString(got) {
		t.Fatalf("clipped text is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 80)+"..." {
		t.Errorf("expected 80 runes and an ellipsis, got %q", got)
	}
	if clip("short") != "short" {
		t.Error("short text should be unchanged")
	}
}
