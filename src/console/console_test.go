package console

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/agent"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
)

func sampleReply() agent.Reply {
	return agent.Reply{
		Content: "- **Headache**: Recommend acetaminophen with dosage 500mg.",
		ToolCalls: []agent.ToolCall{
			{Name: "builtin__search_wikipedia", Arguments: `{"query":"headache","max_results":2}`},
		},
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestCapture_Panels(t *testing.T) {
	out := Capture("I have a headache", sampleReply(), Options{Width: 80, ShowToolCalls: true})

	for _, want := range []string{
		"┏━ Message ━",
		"┏━ Tool Calls ━",
		"┏━ Response (1.5s) ━",
		"I have a headache",
		"• builtin__search_wikipedia(max_results=2, query=headache)",
		"acetaminophen",
		"┗",
		"┛",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colourless output contains escape codes:\n%q", out)
	}

	for i, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if w := lipgloss.Width(line); w > 80 {
			t.Errorf("line %d width = %d, want <= 80: %q", i, w, line)
		}
	}
}

func TestCapture_HidesToolCalls(t *testing.T) {
	out := Capture("hi", sampleReply(), Options{})
	if strings.Contains(out, "Tool Calls") {
		t.Errorf("tool panel rendered without ShowToolCalls:\n%s", out)
	}
}

func TestCapture_ColorIsCleanable(t *testing.T) {
	out := Capture("I have a headache", sampleReply(), Options{Color: true, ShowToolCalls: true})
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("coloured output has no escape codes:\n%q", out)
	}

	cleaned := sanitizer.Clean(out)
	if strings.ContainsAny(cleaned, "\x1b┏┓┗┛┃━") {
		t.Errorf("cleaned output still has terminal decoration:\n%q", cleaned)
	}
	for _, want := range []string{"Message", "I have a headache", "acetaminophen"} {
		if !strings.Contains(cleaned, want) {
			t.Errorf("cleaned output missing %q:\n%s", want, cleaned)
		}
	}
}

func TestOptions_Width(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultWidth},
		{-3, DefaultWidth},
		{5, minWidth},
		{100, 100},
	}
	for _, tt := range tests {
		if got := (Options{Width: tt.in}).width(); got != tt.want {
			t.Errorf("width(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatArguments(t *testing.T) {
	if got := formatArguments(`{"b":1,"a":"x"}`); got != "a=x, b=1" {
		t.Errorf("formatArguments = %q", got)
	}
	if got := formatArguments("not json"); got != "not json" {
		t.Errorf("formatArguments = %q", got)
	}
}
