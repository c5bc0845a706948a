package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// DuckDuckGoEndpoint is the lite HTML search page.
const DuckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"

const (
	minBackoff = 10 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// ddgGate spaces requests across every DuckDuckGo instance and goroutine.
var ddgGate struct {
	mu   sync.Mutex
	last time.Time
}

// DuckDuckGo scrapes web results from DuckDuckGo's lite interface.
type DuckDuckGo struct {
	opts options
}

// NewDuckDuckGo creates a DuckDuckGo searcher.
func NewDuckDuckGo(opts ...Option) *DuckDuckGo {
	return &DuckDuckGo{opts: buildOptions(DuckDuckGoEndpoint, 5, opts)}
}

// Search returns up to the configured number of web results for query.
// Requests are rate limited and retried with exponential backoff while
// the service answers 429.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errEmptyQuery
	}
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", query)

	var resp *http.Response
	delay := max(d.opts.backoff, minBackoff)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.opts.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("building duckduckgo request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err = d.opts.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("duckduckgo request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxBackoff)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	results, err := parseLite(resp.Body, d.opts.maxResults)
	if err != nil {
		return nil, fmt.Errorf("parsing duckduckgo results: %w", err)
	}
	return results, nil
}

// wait reserves the next free slot on the shared gate, then sleeps until it.
func (d *DuckDuckGo) wait(ctx context.Context) error {
	ddgGate.mu.Lock()
	now := time.Now()
	next := now
	if !ddgGate.last.IsZero() {
		next = later(now, ddgGate.last.Add(d.opts.interval))
	}
	ddgGate.last = next
	ddgGate.mu.Unlock()

	wait := next.Sub(now)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// parseLite walks the lite results table. Each result is an
// a.result-link followed by a td.result-snippet.
func parseLite(r io.Reader, limit int) ([]Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				href := resolveRedirect(attr(n, "href"))
				title := textContent(n)
				if href != "" && title != "" {
					results = append(results, Result{Title: title, URL: href})
				}
				return
			case n.Data == "td" && hasClass(n, "result-snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = textContent(n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= click-through links.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
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

// textContent returns the text beneath n with whitespace collapsed.
func textContent(n *html.Node) string {
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
	return strings.Join(strings.Fields(b.String()), " ")
}
