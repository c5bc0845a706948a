package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/config"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/transport"
)

const namespaceSep = "__"

// ErrUnknownTool is returned by Call for a name Discover never saw.
var ErrUnknownTool = errors.New("unknown tool")

// Registry discovers tools from every connected toolbox, namespaces them
// as toolbox__tool, and forwards the assistant's calls. Each result runs
// through its toolbox's sanitization pipeline before the model sees it.
type Registry struct {
	manager   *transport.ToolboxManager
	globalCfg config.SanitizationConfig
	logger    *slog.Logger

	mu    sync.RWMutex
	tools map[string]*entry
}

type entry struct {
	toolbox  string
	name     string
	def      openai.Tool
	pipeline *sanitizer.Pipeline
}

// NewRegistry creates a registry over the manager's sessions.
func NewRegistry(manager *transport.ToolboxManager, globalCfg config.SanitizationConfig, logger *slog.Logger) *Registry {
	return &Registry{
		manager:   manager,
		globalCfg: globalCfg,
		logger:    logger.With("area", "registry"),
		tools:     make(map[string]*entry),
	}
}

// Discover lists the tools of every connected toolbox and replaces the
// registry's contents. Returns the total number of tools registered.
func (r *Registry) Discover(ctx context.Context) (int, error) {
	conns := r.manager.Conns()
	tools := make(map[string]*entry)

	for _, name := range slices.Sorted(maps.Keys(conns)) {
		conn := conns[name]
		merged := config.Merge(&r.globalCfg, conn.Config.Sanitization)

		pipeline, err := BuildPipeline(merged, name)
		if err != nil {
			return 0, fmt.Errorf("building pipeline for %s: %w", name, err)
		}

		count, err := r.discoverToolbox(ctx, name, conn.Session, pipeline, tools)
		if err != nil {
			return 0, fmt.Errorf("listing tools for %s: %w", name, err)
		}
		r.logger.Info("registered tools", "toolbox", name, "count", count)
	}

	if len(tools) == 0 {
		r.logger.Warn("no tools discovered; the assistant will answer without lookups")
	}

	r.mu.Lock()
	r.tools = tools
	r.mu.Unlock()
	return len(tools), nil
}

func (r *Registry) discoverToolbox(
	ctx context.Context,
	toolbox string,
	session *mcp.ClientSession,
	pipeline *sanitizer.Pipeline,
	into map[string]*entry,
) (int, error) {
	count := 0
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return count, err
		}

		namespaced := toolbox + namespaceSep + tool.Name
		into[namespaced] = &entry{
			toolbox:  toolbox,
			name:     tool.Name,
			def:      definition(tool, namespaced),
			pipeline: pipeline,
		}
		count++
	}
	return count, nil
}

// definition converts an MCP tool into an OpenAI function definition under
// its namespaced name.
func definition(tool *mcp.Tool, namespaced string) openai.Tool {
	params := tool.InputSchema
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	desc := tool.Description
	if desc == "" {
		desc = tool.Title
	}
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        namespaced,
			Description: desc,
			Parameters:  params,
		},
	}
}

// Names lists the namespaced tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.tools))
}

// Definitions returns the function definitions offered to the model, in
// name order.
func (r *Registry) Definitions() []openai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]openai.Tool, 0, len(r.tools))
	for _, name := range slices.Sorted(maps.Keys(r.tools)) {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// Call forwards a namespaced tool call to its toolbox and returns the
// sanitized text of the result. A tool error or a blocked result is
// returned as an error. The session is looked up at call time so that
// reconnected sessions are used automatically.
func (r *Registry) Call(ctx context.Context, name, arguments string) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	session := r.manager.Session(e.toolbox)
	if session == nil {
		return "", fmt.Errorf("toolbox %s not connected", e.toolbox)
	}

	args := json.RawMessage(strings.TrimSpace(arguments))
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return "", fmt.Errorf("invalid arguments for %s: %s", name, arguments)
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      e.name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("toolbox call %s: %w", name, err)
	}

	result, err = sanitizeResult(ctx, result, e.pipeline, r.logger.With("tool", name))
	if err != nil {
		return "", fmt.Errorf("sanitizing %s: %w", name, err)
	}

	text := resultText(result)
	if result.IsError {
		return "", errors.New(text)
	}
	return text, nil
}

// resultText joins the text items of a result.
func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// sanitizeResult runs each TextContent through the pipeline.
// On Block: replaces entire result with an IsError response.
// On Modify: replaces text content with sanitized version.
func sanitizeResult(
	ctx context.Context,
	result *mcp.CallToolResult,
	pipeline *sanitizer.Pipeline,
	logger *slog.Logger,
) (*mcp.CallToolResult, error) {
	for i, content := range result.Content {
		tc, ok := content.(*mcp.TextContent)
		if !ok {
			continue
		}

		pr, err := pipeline.Process(ctx, tc.Text)
		if err != nil {
			return nil, err
		}

		switch pr.FinalVerdict {
		case sanitizer.VerdictBlock:
			reason := "blocked by sanitization"
			if len(pr.AllThreats) > 0 {
				reason = strings.Join(pr.AllThreats, "; ")
			}
			logger.Warn("blocked tool response", "threats", pr.AllThreats)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: reason}},
				IsError: true,
			}, nil

		case sanitizer.VerdictModify:
			result.Content[i] = &mcp.TextContent{
				Text:        pr.FinalContent,
				Annotations: tc.Annotations,
			}
		}
	}

	return result, nil
}

// BuildPipeline constructs a sanitizer.Pipeline from a (merged) config.
// Scanner order: console -> unicode -> length -> injection -> override -> url -> boundary.
func BuildPipeline(cfg config.SanitizationConfig, source string) (*sanitizer.Pipeline, error) {
	var scanners []sanitizer.Scanner

	if config.Enabled(cfg.EnableTerminalCleanup) {
		scanners = append(scanners, sanitizer.ConsoleScanner{})
	}

	if config.Enabled(cfg.EnableInvisibleTextRemoval) {
		scanners = append(scanners, &sanitizer.UnicodeScanner{})
	}

	if cfg.MaxResponseChars != nil && *cfg.MaxResponseChars > 0 {
		scanners = append(scanners, sanitizer.NewLengthScanner(*cfg.MaxResponseChars))
	}

	if config.Enabled(cfg.EnablePromptInjectionDetection) {
		s, err := sanitizer.NewInjectionScanner(
			config.Enabled(cfg.DisableBuiltInPatterns),
			cfg.CustomInjectionPatterns,
		)
		if err != nil {
			return nil, fmt.Errorf("injection scanner: %w", err)
		}
		scanners = append(scanners, s)
	}

	if config.Enabled(cfg.EnableSystemOverrideDetection) {
		scanners = append(scanners, &sanitizer.OverrideScanner{})
	}

	if config.Enabled(cfg.EnableURLValidation) {
		scanners = append(scanners, &sanitizer.URLScanner{})
	}

	if config.Enabled(cfg.EnableBoundaryInjection) {
		scanners = append(scanners, sanitizer.NewBoundaryScanner(source))
	}

	return sanitizer.NewPipeline(scanners...), nil
}
