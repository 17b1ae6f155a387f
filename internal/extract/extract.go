// Package extract downloads a page and reduces it to lightly formatted text.
package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/danielpatrickdp/search-agent/internal/failure"
)

// #region types

// Config holds extraction parameters.
type Config struct {
	Timeout      time.Duration
	MaxChars     int
	MaxBodyBytes int64
	IncludeLinks bool
	UserAgent    string
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		MaxChars:     32000,
		MaxBodyBytes: 4 << 20,
		IncludeLinks: true,
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Content is the result of one extraction. Err is set when no text could
// be produced; Text is then empty.
type Content struct {
	URL  string
	Text string
	Err  error
}

// Present reports whether usable text was extracted.
func (c Content) Present() bool {
	return c.Err == nil && c.Text != ""
}

// Source is anything that can turn a URL into Content.
type Source interface {
	Extract(ctx context.Context, url string) Content
}

// #endregion types

// #region extractor

// Extractor fetches pages over HTTP.
type Extractor struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates an Extractor. A nil client gets one with cfg.Timeout.
func New(cfg Config, client *http.Client, logger *zap.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, client: client, logger: logger}
}

// Extract never returns an error value; failures are carried in Content.Err.
func (e *Extractor) Extract(ctx context.Context, url string) Content {
	text, err := e.extract(ctx, strings.TrimSpace(url))
	if err != nil {
		e.logger.Debug("extraction failed", zap.String("url", url), zap.String("kind", string(failure.KindOf(err))), zap.Error(err))
		return Content{URL: url, Err: err}
	}
	return Content{URL: url, Text: text}
}

func (e *Extractor) extract(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", failure.Newf(failure.KindEmpty, "fetch", "url is empty")
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", failure.New(failure.KindTransport, "fetch", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", failure.Classify("fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", failure.Newf(failure.KindStatus, "fetch", "http %d", resp.StatusCode)
	}

	limit := e.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultConfig().MaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", failure.Classify("fetch", err)
	}

	var text string
	switch kind := contentKind(resp.Header.Get("Content-Type"), body); kind {
	case "html":
		doc, err := html.Parse(strings.NewReader(string(body)))
		if err != nil {
			return "", failure.New(failure.KindParse, "fetch", err)
		}
		base := resp.Request.URL
		text = Render(doc, RenderOptions{IncludeLinks: e.cfg.IncludeLinks, Base: base})
	case "text":
		text = Tidy(string(body))
	default:
		return "", failure.Newf(failure.KindUnsupported, "fetch", "content type %q", kind)
	}

	if text == "" {
		return "", failure.Newf(failure.KindEmpty, "fetch", "no text at %s", url)
	}
	return Truncate(text, e.cfg.MaxChars), nil
}

// #endregion extractor

// #region helpers

// contentKind classifies a response as "html", "text", or its media type.
func contentKind(header string, body []byte) string {
	if header == "" {
		header = http.DetectContentType(body)
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header
	}
	switch mt {
	case "text/html", "application/xhtml+xml":
		return "html"
	case "text/plain":
		return "text"
	}
	return mt
}

// Truncate cuts s to at most max runes. A non-positive max disables it.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// Tidy trims each line, collapses inner whitespace and keeps at most one
// blank line between paragraphs.
func Tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(out) > 0 && !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func (c Content) String() string {
	if c.Err != nil {
		return fmt.Sprintf("%s: %v", c.URL, c.Err)
	}
	return fmt.Sprintf("%s: %d chars", c.URL, utf8.RuneCountInString(c.Text))
}

// #endregion helpers
