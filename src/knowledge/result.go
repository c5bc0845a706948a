// Package knowledge looks up reference material for the assistant: an
// encyclopedia summary from Wikipedia and general web results from
// DuckDuckGo.
package knowledge

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var errEmptyQuery = errors.New("query is empty")

// Result is one item of reference material.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Format renders results as numbered plain text for the model.
func Format(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Option configures a searcher.
type Option func(*options)

type options struct {
	client     *http.Client
	endpoint   string
	maxResults int
	interval   time.Duration
	backoff    time.Duration
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithEndpoint points the searcher at a different base URL.
func WithEndpoint(u string) Option {
	return func(o *options) { o.endpoint = u }
}

// WithMaxResults caps the number of results returned.
func WithMaxResults(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

// WithRateLimit sets the minimum spacing between requests and the first
// delay used when the service answers 429.
func WithRateLimit(interval, backoff time.Duration) Option {
	return func(o *options) {
		o.interval = interval
		o.backoff = backoff
	}
}

func buildOptions(endpoint string, maxResults int, opts []Option) options {
	o := options{
		client:     &http.Client{Timeout: defaultTimeout},
		endpoint:   endpoint,
		maxResults: maxResults,
		interval:   time.Second,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
