// Package toolbox exposes the knowledge searchers as MCP tools and turns
// every connected toolbox into functions the assistant can call.
package toolbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/knowledge"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/transport"
)

const (
	ToolWikipedia  = "search_wikipedia"
	ToolDuckDuckGo = "duckduckgo_search"
)

// Searcher looks up reference material for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]knowledge.Result, error)
}

// SearchInput is the argument object of every search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"what to look up, e.g. a symptom or a medicine name"`
}

// NewServer builds the in-process MCP server carrying the knowledge tools.
// A nil searcher leaves its tool out.
func NewServer(wiki, ddg Searcher, logger *slog.Logger) (*mcp.Server, error) {
	logger = logger.With("area", "toolbox")
	srv := mcp.NewServer(
		&mcp.Implementation{Name: "medimate-knowledge", Version: transport.Version},
		&mcp.ServerOptions{Logger: logger},
	)

	schema, err := jsonschema.For[SearchInput](nil)
	if err != nil {
		return nil, fmt.Errorf("search input schema: %w", err)
	}

	if wiki != nil {
		mcp.AddTool(srv, &mcp.Tool{
			Name:        ToolWikipedia,
			Description: "Search Wikipedia and return the introduction of the best matching articles. Use it for background on a condition or medicine.",
			InputSchema: schema,
		}, searchHandler("wikipedia", wiki, logger))
	}
	if ddg != nil {
		mcp.AddTool(srv, &mcp.Tool{
			Name:        ToolDuckDuckGo,
			Description: "Search the web with DuckDuckGo and return result titles, links and snippets. Use it for current dosage guidance and product names.",
			InputSchema: schema,
		}, searchHandler("duckduckgo", ddg, logger))
	}
	return srv, nil
}

func searchHandler(source string, s Searcher, logger *slog.Logger) mcp.ToolHandlerFor[SearchInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
		query := strings.TrimSpace(in.Query)
		if query == "" {
			return errorResult("query is required"), nil, nil
		}

		results, err := s.Search(ctx, query)
		if err != nil {
			logger.Warn("search failed", "source", source, "query", query, "err", err)
			return errorResult(fmt.Sprintf("%s search failed: %v", source, err)), nil, nil
		}
		logger.Debug("search", "source", source, "query", query, "results", len(results))

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: knowledge.Format(query, results)}},
		}, nil, nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
