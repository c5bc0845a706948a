package toolbox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/knowledge"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeSearcher returns canned results and records queries.
type fakeSearcher struct {
	results []knowledge.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]knowledge.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

// connect runs srv over in-memory transports and returns a client session.
func connect(t *testing.T, ctx context.Context, srv *mcp.Server) *mcp.ClientSession {
	t.Helper()
	srvTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = srv.Run(ctx, srvTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, ctx context.Context, s *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	result, err := s.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected *TextContent, got %T", result.Content[0])
	}
	return tc.Text, result.IsError
}

func TestNewServer_ListsTools(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := NewServer(&fakeSearcher{}, &fakeSearcher{}, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	session := connect(t, ctx, srv)

	var names []string
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			t.Fatalf("listing tools: %v", err)
		}
		names = append(names, tool.Name)
		schema, ok := tool.InputSchema.(map[string]any)
		if !ok {
			t.Fatalf("input schema = %T, want object", tool.InputSchema)
		}
		props, _ := schema["properties"].(map[string]any)
		if _, ok := props["query"]; !ok {
			t.Errorf("%s schema missing query property: %v", tool.Name, schema)
		}
	}
	if len(names) != 2 {
		t.Fatalf("tools = %v, want 2", names)
	}
}

func TestNewServer_OmitsNilSearcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := NewServer(&fakeSearcher{}, nil, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	session := connect(t, ctx, srv)

	count := 0
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			t.Fatalf("listing tools: %v", err)
		}
		if tool.Name != ToolWikipedia {
			t.Errorf("unexpected tool %s", tool.Name)
		}
		count++
	}
	if count != 1 {
		t.Errorf("tools = %d, want 1", count)
	}
}

func TestSearchTool_FormatsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wiki := &fakeSearcher{results: []knowledge.Result{
		{Title: "Headache", URL: "https://en.wikipedia.org/wiki/Headache", Snippet: "Headache is pain in the head."},
	}}
	srv, err := NewServer(wiki, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	session := connect(t, ctx, srv)

	text, isErr := callText(t, ctx, session, ToolWikipedia, map[string]any{"query": " headache "})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	if !strings.Contains(text, "1. Headache") || !strings.Contains(text, "Headache is pain in the head.") {
		t.Errorf("text = %q", text)
	}
	if len(wiki.queries) != 1 || wiki.queries[0] != "headache" {
		t.Errorf("queries = %v, want [headache]", wiki.queries)
	}
}

func TestSearchTool_Errors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ddg := &fakeSearcher{err: errors.New("duckduckgo http 403")}
	srv, err := NewServer(nil, ddg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	session := connect(t, ctx, srv)

	text, isErr := callText(t, ctx, session, ToolDuckDuckGo, map[string]any{"query": "fever"})
	if !isErr || !strings.Contains(text, "403") {
		t.Errorf("result = %q (isError=%v), want search failure", text, isErr)
	}

	text, isErr = callText(t, ctx, session, ToolDuckDuckGo, map[string]any{"query": "   "})
	if !isErr || text != "query is required" {
		t.Errorf("result = %q (isError=%v), want query is required", text, isErr)
	}
}
