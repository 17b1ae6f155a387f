package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/danielpatrickdp/search-agent/internal/failure"
)

const articlePage = `<!doctype html>
<html><head><title>Paris</title><style>body{color:red}</style></head>
<body>
<nav><a href="/">Home</a></nav>
<header>Site header</header>
<main>
  <h1>Paris</h1>
  <p>Paris is the   capital of <b>France</b>.</p>
  <script>var x = 1;</script>
  <h2>Facts</h2>
  <ul><li>Population: 2.1 million</li><li>River: <a href="/wiki/Seine">Seine</a></li></ul>
  <p>See <a href="#top">top</a> and <a href="https://example.org/more">more</a>.</p>
</main>
<footer>Footer text</footer>
</body></html>`

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func newExtractor(t *testing.T, srv *httptest.Server) *Extractor {
	return New(DefaultConfig(), srv.Client(), zaptest.NewLogger(t))
}

// #region render-tests

func TestRender_FormattingAndLinks(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(articlePage))
	require.NoError(t, err)

	base, _ := url.Parse("https://en.example.com/wiki/Paris")
	got := Render(doc, RenderOptions{IncludeLinks: true, Base: base})

	want := strings.Join([]string{
		"# Paris",
		"",
		"Paris is the capital of France.",
		"",
		"## Facts",
		"",
		"- Population: 2.1 million",
		"- River: [Seine](https://en.example.com/wiki/Seine)",
		"",
		"See top and [more](https://example.org/more).",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRender_NoLinks(t *testing.T) {
	doc, _ := html.Parse(strings.NewReader(articlePage))
	got := Render(doc, RenderOptions{})
	assert.Contains(t, got, "- River: Seine")
	assert.NotContains(t, got, "](")
	assert.NotContains(t, got, "Footer text")
	assert.NotContains(t, got, "var x")
	assert.NotContains(t, got, "Home")
}

// #endregion render-tests

// #region extract-tests

func TestExtract_HTML(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage)
	})
	c := newExtractor(t, srv).Extract(context.Background(), srv.URL+"/wiki/Paris")
	require.True(t, c.Present(), "err: %v", c.Err)
	assert.True(t, strings.HasPrefix(c.Text, "# Paris"))
	assert.Contains(t, c.Text, "["+"Seine]("+srv.URL+"/wiki/Seine)")
}

func TestExtract_PlainText(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "  Paris is the capital of France.  \n\n\n\nEnd.")
	})
	c := newExtractor(t, srv).Extract(context.Background(), srv.URL)
	require.True(t, c.Present())
	assert.Equal(t, "Paris is the capital of France.\n\nEnd.", c.Text)
}

func TestExtract_Unsupported(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	})
	c := newExtractor(t, srv).Extract(context.Background(), srv.URL)
	assert.False(t, c.Present())
	assert.Equal(t, failure.KindUnsupported, failure.KindOf(c.Err))
}

func TestExtract_Empty(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><script>only()</script></body></html>")
	})
	c := newExtractor(t, srv).Extract(context.Background(), srv.URL)
	assert.Equal(t, failure.KindEmpty, failure.KindOf(c.Err))
	assert.Empty(t, c.Text)
}

func TestExtract_Status(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	c := newExtractor(t, srv).Extract(context.Background(), srv.URL)
	assert.Equal(t, failure.KindStatus, failure.KindOf(c.Err))
}

func TestExtract_Timeout(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	cfg := DefaultConfig()
	cfg.Timeout = 30 * time.Millisecond
	c := New(cfg, srv.Client(), nil).Extract(context.Background(), srv.URL)
	assert.Equal(t, failure.KindTimeout, failure.KindOf(c.Err))
}

func TestExtract_EmptyURL(t *testing.T) {
	c := New(DefaultConfig(), nil, nil).Extract(context.Background(), " ")
	assert.Equal(t, failure.KindEmpty, failure.KindOf(c.Err))
}

func TestExtract_TruncatesRunes(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, strings.Repeat("é", 50))
	})
	cfg := DefaultConfig()
	cfg.MaxChars = 10
	c := New(cfg, srv.Client(), nil).Extract(context.Background(), srv.URL)
	require.True(t, c.Present())
	assert.Equal(t, strings.Repeat("é", 10), c.Text)
}

// #endregion extract-tests

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 3))
}

func TestTidy(t *testing.T) {
	assert.Equal(t, "a b\n\nc", Tidy("\n\n  a   b \n \n\n c \n"))
}
