package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// WikipediaEndpoint is the English Wikipedia action API.
const WikipediaEndpoint = "https://en.wikipedia.org/w/api.php"

// maxExtract bounds each article summary.
const maxExtract = 1500

// Wikipedia searches articles and returns their plain-text introductions.
type Wikipedia struct {
	opts options
}

// NewWikipedia creates a Wikipedia searcher.
func NewWikipedia(opts ...Option) *Wikipedia {
	return &Wikipedia{opts: buildOptions(WikipediaEndpoint, 3, opts)}
}

type wikiPage struct {
	Title   string `json:"title"`
	Index   int    `json:"index"`
	Extract string `json:"extract"`
	FullURL string `json:"fullurl"`
	Missing bool   `json:"missing"`
}

type wikiResponse struct {
	Query struct {
		Pages []wikiPage `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Search finds the best matching articles for query in relevance order.
func (w *Wikipedia) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errEmptyQuery
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", strconv.Itoa(w.opts.maxResults))
	params.Set("prop", "extracts|info")
	params.Set("inprop", "url")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exlimit", "max")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.opts.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia http %d", resp.StatusCode)
	}

	var body wikiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding wikipedia response: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("wikipedia api error %s: %s", body.Error.Code, body.Error.Info)
	}

	pages := body.Query.Pages
	slices.SortFunc(pages, func(a, b wikiPage) int { return a.Index - b.Index })

	results := make([]Result, 0, len(pages))
	for _, p := range pages {
		if p.Missing {
			continue
		}
		results = append(results, Result{
			Title:   p.Title,
			URL:     p.FullURL,
			Snippet: truncateRunes(strings.TrimSpace(p.Extract), maxExtract),
		})
	}
	return results, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
