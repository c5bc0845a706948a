// Package tui is the terminal chat: a prompt line under a scrolling view
// of framed assistant answers.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/chat"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

const (
	headerHeight = 2
	footerHeight = 3
	clearCommand = "/clear"
	welcome      = "Describe your symptoms and press enter."
)

// AskFunc answers prompt with the console rendering of the exchange, or
// the error placeholder.
type AskFunc func(ctx context.Context, prompt string) string

// answerMsg carries a finished answer back to the update loop.
type answerMsg struct {
	prompt string
	raw    string
}

// Model is the bubbletea model of the terminal chat.
type Model struct {
	ctx        context.Context
	ask        AskFunc
	title      string
	transcript *chat.Transcript

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	blocks []string
	busy   bool
	ready  bool
}

// NewModel creates the chat model. Prompts and cleaned answers are
// appended to transcript.
func NewModel(ctx context.Context, title string, ask AskFunc, transcript *chat.Transcript) Model {
	ti := textinput.New()
	ti.Placeholder = "e.g. I have a headache and a runny nose"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 70

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(pendingStyle))

	return Model{
		ctx:        ctx,
		ask:        ask,
		title:      title,
		transcript: transcript,
		input:      ti,
		spinner:    sp,
	}
}

// Transcript returns the conversation log.
func (m Model) Transcript() *chat.Transcript { return m.transcript }

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-headerHeight-footerHeight, 3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			val := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			switch val {
			case "":
				return m, nil
			case clearCommand:
				m.blocks = nil
				m.refresh()
				return m, nil
			}
			m.transcript.Append(chat.NewMessage(chat.SenderUser, val))
			m.busy = true
			return m, tea.Batch(m.spinner.Tick, m.askCmd(val))
		}

	case answerMsg:
		m.busy = false
		m.blocks = append(m.blocks, strings.TrimRight(msg.raw, "\n"))
		m.transcript.Append(chat.NewMessage(chat.SenderAssistant, sanitizer.Clean(msg.raw)))
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.busy {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// askCmd runs the assistant off the update loop.
func (m Model) askCmd(prompt string) tea.Cmd {
	ctx, ask := m.ctx, m.ask
	return func() tea.Msg {
		return answerMsg{prompt: prompt, raw: ask(ctx, prompt)}
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	if len(m.blocks) == 0 {
		m.viewport.SetContent(helpStyle.Render(welcome))
		return
	}
	m.viewport.SetContent(strings.Join(m.blocks, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")
	b.WriteString(m.viewport.View() + "\n")
	if m.busy {
		b.WriteString(m.spinner.View() + pendingStyle.Render(" Fetching recommendations...") + "\n")
	} else {
		b.WriteString(promptStyle.Render("> ") + m.input.View() + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter: ask • /clear: clear the view • pgup/pgdown: scroll • esc: quit"))
	return b.String()
}

// Run starts the full-screen chat and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
