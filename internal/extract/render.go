package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// RenderOptions controls HTML rendering.
type RenderOptions struct {
	IncludeLinks bool
	// Base resolves relative hrefs. May be nil.
	Base *url.URL
}

var skipped = map[string]bool{
	"head": true, "script": true, "style": true, "nav": true, "header": true,
	"footer": true, "aside": true, "form": true, "noscript": true, "svg": true,
	"iframe": true, "template": true, "button": true,
}

var blocks = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"blockquote": true, "pre": true, "table": true, "ul": true, "ol": true,
	"dl": true, "figure": true, "figcaption": true, "hr": true, "body": true,
}

var headings = map[string]int{"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6}

type renderer struct {
	b    strings.Builder
	opts RenderOptions
}

// Render turns a parsed document into text. Headings become "#" lines, list
// items become "- " lines and links become [text](href) when enabled.
func Render(doc *html.Node, opts RenderOptions) string {
	r := &renderer{opts: opts}
	r.walk(doc)
	return Tidy(r.b.String())
}

func (r *renderer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.text(n.Data)
		return
	case html.ElementNode:
		if skipped[n.Data] {
			return
		}
	case html.CommentNode:
		return
	}

	if level, ok := headings[n.Data]; ok && n.Type == html.ElementNode {
		r.b.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		r.children(n)
		r.b.WriteString("\n\n")
		return
	}

	if n.Type == html.ElementNode {
		switch {
		case n.Data == "li":
			r.b.WriteString("\n- ")
			r.children(n)
			return
		case n.Data == "br":
			r.b.WriteString("\n")
			return
		case n.Data == "tr":
			r.b.WriteString("\n")
			r.children(n)
			return
		case n.Data == "td" || n.Data == "th":
			r.children(n)
			r.b.WriteString(" ")
			return
		case n.Data == "a" && r.opts.IncludeLinks:
			if r.link(n) {
				return
			}
		case blocks[n.Data]:
			r.b.WriteString("\n\n")
			r.children(n)
			r.b.WriteString("\n\n")
			return
		}
	}
	r.children(n)
}

func (r *renderer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

// text writes a text node with whitespace runs collapsed, keeping a single
// space at either edge so inline elements stay separated.
func (r *renderer) text(s string) {
	if strings.TrimSpace(s) == "" {
		if s != "" {
			r.b.WriteString(" ")
		}
		return
	}
	if isSpace(s[0]) {
		r.b.WriteString(" ")
	}
	r.b.WriteString(strings.Join(strings.Fields(s), " "))
	if isSpace(s[len(s)-1]) {
		r.b.WriteString(" ")
	}
}

// link writes an anchor as markdown. It reports false when the anchor has
// no usable target, leaving the caller to render its text.
func (r *renderer) link(n *html.Node) bool {
	var href string
	for _, a := range n.Attr {
		if a.Key == "href" {
			href = strings.TrimSpace(a.Val)
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if r.opts.Base != nil {
		u = r.opts.Base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	inner := &renderer{opts: RenderOptions{Base: r.opts.Base}}
	inner.children(n)
	label := strings.Join(strings.Fields(inner.b.String()), " ")
	if label == "" {
		return true
	}
	r.b.WriteString("[" + label + "](" + u.String() + ")")
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f'
}
