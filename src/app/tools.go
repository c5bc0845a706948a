package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/evaluation"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
)

const (
	ToolCleanOutput      = "clean_output"
	ToolValidateKeywords = "validate_keywords"
	ToolAsk              = "ask_medimate"
)

// CleanInput is the argument object of clean_output.
type CleanInput struct {
	Text string `json:"text" jsonschema:"terminal output to strip of colour codes and panel borders"`
}

// ValidateInput is the argument object of validate_keywords.
type ValidateInput struct {
	Text     string   `json:"text" jsonschema:"response text to check"`
	Keywords []string `json:"keywords" jsonschema:"keywords that must appear, matched case-insensitively"`
}

// AskInput is the argument object of ask_medimate.
type AskInput struct {
	Prompt  string `json:"prompt" jsonschema:"the symptoms to get recommendations for"`
	Profile string `json:"profile,omitempty" jsonschema:"instruction profile: otc or ayurvedic"`
}

// RegisterTools adds medimate's own tools to srv.
func (a *App) RegisterTools(srv *mcp.Server) error {
	cleanSchema, err := jsonschema.For[CleanInput](nil)
	if err != nil {
		return fmt.Errorf("%s schema: %w", ToolCleanOutput, err)
	}
	validateSchema, err := jsonschema.For[ValidateInput](nil)
	if err != nil {
		return fmt.Errorf("%s schema: %w", ToolValidateKeywords, err)
	}
	askSchema, err := jsonschema.For[AskInput](nil)
	if err != nil {
		return fmt.Errorf("%s schema: %w", ToolAsk, err)
	}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolCleanOutput,
		Description: "Remove ANSI colour/cursor sequences and heavy box-drawing borders from captured terminal output.",
		InputSchema: cleanSchema,
	}, cleanHandler)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolValidateKeywords,
		Description: "Check that every keyword occurs in the text, ignoring case. Reports the missing keywords.",
		InputSchema: validateSchema,
	}, validateHandler)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolAsk,
		Description: "Ask the medicine assistant for recommendations for the given symptoms.",
		InputSchema: askSchema,
	}, a.askHandler)

	a.logger.Info("registered mcp tools", "tools", []string{ToolCleanOutput, ToolValidateKeywords, ToolAsk})
	return nil
}

func cleanHandler(_ context.Context, _ *mcp.CallToolRequest, in CleanInput) (*mcp.CallToolResult, any, error) {
	return textResult(sanitizer.Clean(in.Text)), nil, nil
}

func validateHandler(_ context.Context, _ *mcp.CallToolRequest, in ValidateInput) (*mcp.CallToolResult, any, error) {
	v := evaluation.Validate(in.Text, in.Keywords)
	if v.Passed() {
		return textResult(fmt.Sprintf("PASS: all %d keywords present", len(in.Keywords))), nil, nil
	}
	return textResult("FAIL: missing " + strings.Join(v.Missing, ", ")), nil, nil
}

func (a *App) askHandler(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, any, error) {
	asst, err := a.Assistant(in.Profile)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	raw, out := a.Ask(ctx, asst, in.Prompt)
	if !out.OK() {
		return errorResult(raw), nil, nil
	}
	return textResult(sanitizer.Clean(raw)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
