package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/danielpatrickdp/search-agent/internal/failure"
)

const maxRetries = 2

// #region client-struct

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	cfg    Config
	client *http.Client
	gate   RateGate
	logger *zap.Logger
}

// NewDuckDuckGo creates a provider. A nil client gets one with cfg.Timeout;
// a nil gate gets a MemoryGate with cfg.MinInterval.
func NewDuckDuckGo(cfg Config, client *http.Client, gate RateGate, logger *zap.Logger) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if gate == nil {
		gate = NewMemoryGate(cfg.MinInterval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.MaxResults = ClampResults(cfg.MaxResults)
	return &DuckDuckGo{cfg: cfg, client: client, gate: gate, logger: logger}
}

// #endregion client-struct

// #region search

// Search fetches and parses one results page.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}

	endpoint := d.cfg.Endpoint + "?q=" + url.QueryEscape(query)

	var resp *http.Response
	delay := d.cfg.MinInterval
	if delay <= 0 {
		delay = time.Second
	}
	for attempt := 0; ; attempt++ {
		if err := d.gate.Wait(ctx); err != nil {
			return nil, failure.Classify("search", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build search request: %w", err)
		}
		req.Header.Set("User-Agent", d.cfg.UserAgent)

		resp, err = d.client.Do(req)
		if err != nil {
			return nil, failure.Classify("search", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			break
		}
		resp.Body.Close()
		d.logger.Warn("search rate limited, backing off", zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return nil, failure.Classify("search", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, failure.Newf(failure.KindStatus, "search", "duckduckgo http %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		if failure.IsTimeoutErr(err) {
			return nil, failure.New(failure.KindTimeout, "search", err)
		}
		return nil, failure.New(failure.KindParse, "search", err)
	}
	results := ParseResults(doc, d.cfg.MaxResults)
	d.logger.Debug("search complete", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// #endregion search

// #region parse

// ParseResults walks a DuckDuckGo results document. Every div.result block
// counts toward the ordinal and the limit, including blocks without a link,
// which are skipped.
func ParseResults(doc *html.Node, limit int) []Result {
	var blocks []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(blocks) >= limit {
			return
		}
		if isElement(n, "div") && hasClass(n, "result") {
			blocks = append(blocks, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	results := make([]Result, 0, len(blocks))
	for i, block := range blocks {
		link := findElement(block, "a", "result__a")
		if link == nil {
			continue
		}
		href := unwrapRedirect(attr(link, "href"))
		if href == "" {
			continue
		}
		snippet := NoDescription
		if s := findElement(block, "a", "result__snippet"); s != nil {
			if text := collapse(textOf(s)); text != "" {
				snippet = text
			}
		}
		results = append(results, Result{
			Ordinal: i + 1,
			Title:   collapse(textOf(link)),
			Link:    href,
			Snippet: snippet,
		})
	}
	return results
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= tracking links to the
// target URL and makes scheme-relative links absolute.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

// #endregion parse

// #region html-helpers
func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, tag, class string) *html.Node {
	if isElement(n, tag) && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// #endregion html-helpers
