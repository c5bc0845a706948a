// Package agent runs the medicine assistant: a hosted chat model that can
// call knowledge tools before answering a symptom prompt.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// GroqBaseURL is Groq's OpenAI-compatible endpoint.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	DefaultMaxIterations = 6
	DefaultMaxToolOutput = 8000
)

// ChatModel is the chat-completions API the assistant talks to.
// *openai.Client satisfies it.
type ChatModel interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Toolset supplies the functions the model may call.
type Toolset interface {
	Definitions() []openai.Tool
	Call(ctx context.Context, name, arguments string) (string, error)
}

// NewClient returns an OpenAI-compatible client for baseURL, Groq when
// baseURL is empty.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = GroqBaseURL
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Assistant answers symptom prompts. It holds no conversation state, so
// one Assistant may serve concurrent callers.
type Assistant struct {
	model         ChatModel
	modelID       string
	tools         Toolset
	system        string
	temperature   float32
	maxIterations int
	maxToolOutput int
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithTools lets the model call functions from ts.
func WithTools(ts Toolset) Option {
	return func(a *Assistant) { a.tools = ts }
}

// WithProfile uses p's title and instructions for the system prompt.
func WithProfile(p Profile, markdown bool) Option {
	return func(a *Assistant) { a.system = SystemPrompt(p.Title, p.Instructions, markdown) }
}

// WithSystemPrompt sets the system prompt verbatim.
func WithSystemPrompt(s string) Option {
	return func(a *Assistant) { a.system = s }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(a *Assistant) { a.temperature = t }
}

// WithMaxIterations bounds the number of model round trips per prompt.
func WithMaxIterations(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithMaxToolOutput truncates tool results longer than n bytes before they
// are sent back to the model.
func WithMaxToolOutput(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxToolOutput = n
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// New creates an Assistant that calls modelID through model.
func New(model ChatModel, modelID string, logger *slog.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		model:         model,
		modelID:       modelID,
		maxIterations: DefaultMaxIterations,
		maxToolOutput: DefaultMaxToolOutput,
		logger:        logger.With("area", "agent"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Respond answers prompt. Tool calls requested by the model are executed
// in order and their results fed back until the model replies with text
// or the iteration limit is reached. A failing tool does not fail the
// outcome: its error text is what the model sees.
func (a *Assistant) Respond(ctx context.Context, prompt string) Outcome {
	start := a.now()
	var reply Reply
	fail := func(err error) Outcome {
		reply.Elapsed = a.now().Sub(start)
		a.logger.Warn("respond failed", "err", err, "iterations", reply.Iterations)
		return Outcome{Reply: reply, Err: err}
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fail(ErrEmptyPrompt)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 4)
	if a.system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: a.system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	var defs []openai.Tool
	if a.tools != nil {
		defs = a.tools.Definitions()
	}

	for reply.Iterations < a.maxIterations {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		reply.Iterations++

		req := openai.ChatCompletionRequest{
			Model:       a.modelID,
			Messages:    messages,
			Temperature: a.temperature,
		}
		if len(defs) > 0 {
			req.Tools = defs
		}

		resp, err := a.model.CreateChatCompletion(ctx, req)
		if err != nil {
			return fail(fmt.Errorf("chat completion (iteration %d): %w", reply.Iterations, err))
		}
		reply.Usage.PromptTokens += resp.Usage.PromptTokens
		reply.Usage.CompletionTokens += resp.Usage.CompletionTokens
		reply.Usage.TotalTokens += resp.Usage.TotalTokens

		if len(resp.Choices) == 0 {
			return fail(fmt.Errorf("chat completion (iteration %d): response has no choices", reply.Iterations))
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			reply.Content = strings.TrimSpace(msg.Content)
			reply.Elapsed = a.now().Sub(start)
			a.logger.Debug("respond complete",
				"iterations", reply.Iterations,
				"tool_calls", len(reply.ToolCalls),
				"tokens", reply.Usage.TotalTokens,
			)
			return Outcome{Reply: reply}
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})
		for _, tc := range msg.ToolCalls {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
			call := a.callTool(ctx, tc)
			reply.ToolCalls = append(reply.ToolCalls, call)

			content := call.Result
			if call.Err != "" {
				content = "error: " + call.Err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: tc.ID,
			})
		}
	}

	return fail(fmt.Errorf("%w (%d)", ErrMaxIterations, a.maxIterations))
}

func (a *Assistant) callTool(ctx context.Context, tc openai.ToolCall) ToolCall {
	call := ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments}
	if a.tools == nil {
		call.Err = fmt.Sprintf("tool %q is not available", call.Name)
		return call
	}

	start := a.now()
	result, err := a.tools.Call(ctx, call.Name, call.Arguments)
	call.Duration = a.now().Sub(start)
	if err != nil {
		a.logger.Warn("tool call failed", "tool", call.Name, "err", err)
		call.Err = err.Error()
		return call
	}

	if len(result) > a.maxToolOutput {
		n := a.maxToolOutput
		for n > 0 && !utf8.RuneStart(result[n]) {
			n--
		}
		result = fmt.Sprintf("%s\n\n[output truncated: %d bytes total, showing first %d bytes]",
			result[:n], len(result), n)
	}
	call.Result = result
	a.logger.Debug("tool call", "tool", call.Name, "duration", call.Duration, "bytes", len(result))
	return call
}
