package agent

import (
	"errors"
	"time"
)

var (
	// ErrEmptyPrompt is returned for a prompt with no visible text.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrMaxIterations is returned when the model keeps requesting tools
	// past the configured iteration limit.
	ErrMaxIterations = errors.New("exceeded maximum tool iterations")
)

// placeholderPrefix starts the text shown in place of a reply that could
// not be produced.
const placeholderPrefix = "Error: "

// ToolCall records one tool invocation made while answering.
type ToolCall struct {
	Name      string        `json:"name"`
	Arguments string        `json:"arguments"`
	Result    string        `json:"result,omitempty"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Usage is the token consumption summed over every model round trip.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply is a completed answer and the trace that produced it.
type Reply struct {
	Content    string        `json:"content"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	Usage      Usage         `json:"usage"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Outcome is the result of one Respond call: a Reply on success, or the
// error that prevented one. The trace gathered before a failure is kept
// in Reply.
type Outcome struct {
	Reply Reply
	Err   error
}

// OK reports whether a reply was produced.
func (o Outcome) OK() bool { return o.Err == nil }

// Placeholder is the text displayed instead of a reply when Err is set.
// It is empty for a successful outcome.
func (o Outcome) Placeholder() string {
	if o.Err == nil {
		return ""
	}
	return Placeholder(o.Err)
}

// Text returns the reply content, or the placeholder on failure.
func (o Outcome) Text() string {
	if o.Err != nil {
		return Placeholder(o.Err)
	}
	return o.Reply.Content
}

// Placeholder formats err as the text shown where a reply was expected.
func Placeholder(err error) string {
	return placeholderPrefix + err.Error()
}
