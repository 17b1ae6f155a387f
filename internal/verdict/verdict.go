// Package verdict parses the short answers the decision prompts ask the model for.
// Parsers report failure explicitly; callers pick the default.
package verdict

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNoVerdict means the text mentioned neither "true" nor "false".
	ErrNoVerdict = errors.New("no boolean verdict in response")
	// ErrNotInteger means the text is not a bare integer.
	ErrNotInteger = errors.New("response is not a bare integer")
)

// ParseVerdict reads a boolean answer. Any case-insensitive occurrence of
// "true" wins, so "untrue" and "true or false" both read as true.
func ParseVerdict(text string) (bool, error) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "true") {
		return true, nil
	}
	if strings.Contains(lower, "false") {
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrNoVerdict, clip(text))
}

// ParseIndex reads a bare integer, ignoring surrounding whitespace.
func ParseIndex(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, clip(text))
	}
	return n, nil
}

func clip(s string) string {
	const max = 80
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
