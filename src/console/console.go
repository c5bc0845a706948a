// Package console draws an assistant exchange as framed terminal panels.
// The same output is shown in the terminal chat and, once cleaned, in the
// web chat and the accuracy report.
package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/agent"
)

const (
	DefaultWidth = 80
	minWidth     = 20
)

// Panel colours, ANSI 256 palette.
var (
	messageColor  = lipgloss.Color("36")
	toolColor     = lipgloss.Color("178")
	responseColor = lipgloss.Color("33")
)

// Options controls how an exchange is drawn.
type Options struct {
	Width         int
	Color         bool
	ShowToolCalls bool
}

func (o Options) width() int {
	switch {
	case o.Width <= 0:
		return DefaultWidth
	case o.Width < minWidth:
		return minWidth
	default:
		return o.Width
	}
}

// Render writes the Message, Tool Calls and Response panels for one
// exchange to w.
func Render(w io.Writer, prompt string, reply agent.Reply, opts Options) error {
	r := lipgloss.NewRenderer(w)
	if opts.Color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	width := opts.width()

	panels := []string{panel(r, "Message", prompt, messageColor, width)}
	if opts.ShowToolCalls && len(reply.ToolCalls) > 0 {
		panels = append(panels, panel(r, "Tool Calls", toolCallLines(reply.ToolCalls), toolColor, width))
	}
	title := fmt.Sprintf("Response (%.1fs)", reply.Elapsed.Seconds())
	panels = append(panels, panel(r, title, reply.Content, responseColor, width))

	_, err := io.WriteString(w, strings.Join(panels, "\n")+"\n")
	return err
}

// Capture renders an exchange into a string.
func Capture(prompt string, reply agent.Reply, opts Options) string {
	var buf bytes.Buffer
	_ = Render(&buf, prompt, reply, opts)
	return buf.String()
}

// panel draws body inside a thick border whose top edge carries title.
func panel(r *lipgloss.Renderer, title, body string, color lipgloss.Color, width int) string {
	border := lipgloss.ThickBorder()

	label := " " + title + " "
	fill := max(width-lipgloss.Width(label)-3, 0)
	top := border.TopLeft + border.Top + label + strings.Repeat(border.Top, fill) + border.TopRight

	frame := r.NewStyle().Foreground(color)
	box := r.NewStyle().
		Border(border, false, true, true, true).
		BorderForeground(color).
		Padding(0, 1).
		Width(width - 2)

	return frame.Render(top) + "\n" + box.Render(body)
}

func toolCallLines(calls []agent.ToolCall) string {
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, "• "+c.Name+"("+formatArguments(c.Arguments)+")")
	}
	return strings.Join(lines, "\n")
}

// formatArguments renders a JSON object as key=value pairs in key order,
// falling back to the raw text.
func formatArguments(raw string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return raw
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(parts, ", ")
}
