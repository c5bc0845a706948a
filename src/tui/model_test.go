package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/chat"
)

const cannedRaw = "┏━ Response (0.1s) ━┓\n┃ Rest and drink fluids ┃\n┗━━━━┛\n"

func newTestModel(t *testing.T, prompts *[]string) Model {
	t.Helper()
	ask := func(_ context.Context, prompt string) string {
		*prompts = append(*prompts, prompt)
		return cannedRaw
	}
	m := NewModel(context.Background(), "Medicine Assistant", ask, chat.NewTranscript("test"))
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// runBatch executes cmd and any batched commands, returning the messages.
func runBatch(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runBatch(c)...)
	}
	return out
}

func TestModel_AskRoundTrip(t *testing.T) {
	var prompts []string
	m := newTestModel(t, &prompts)

	if !strings.Contains(m.View(), welcome) {
		t.Errorf("initial view missing welcome text:\n%s", m.View())
	}

	m = typeText(t, m, "  headache ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if !m.busy {
		t.Fatal("model not busy after enter")
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q, want cleared", m.input.Value())
	}
	if !strings.Contains(m.View(), "Fetching recommendations...") {
		t.Errorf("busy view missing pending line:\n%s", m.View())
	}

	var answer *answerMsg
	for _, msg := range runBatch(cmd) {
		if a, ok := msg.(answerMsg); ok {
			answer = &a
		}
	}
	if answer == nil {
		t.Fatal("enter did not schedule an answer")
	}
	if len(prompts) != 1 || prompts[0] != "headache" {
		t.Errorf("prompts = %q, want [headache]", prompts)
	}

	m = update(t, m, *answer)
	if m.busy {
		t.Error("model still busy after answer")
	}
	if !strings.Contains(m.View(), "Rest and drink fluids") {
		t.Errorf("view missing answer:\n%s", m.View())
	}

	msgs := m.Transcript().Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[0].Sender != chat.SenderUser || msgs[0].Text != "headache" {
		t.Errorf("first message = %+v, want user headache", msgs[0])
	}
	if msgs[1].Sender != chat.SenderAssistant || strings.ContainsAny(msgs[1].Text, "┏┃━") {
		t.Errorf("second message = %+v, want cleaned assistant answer", msgs[1])
	}
}

func TestModel_EnterIgnoredWhileBusy(t *testing.T) {
	var prompts []string
	m := newTestModel(t, &prompts)

	m = typeText(t, m, "cough")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "fever")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter while busy scheduled a command")
	}
	if m.Transcript().Len() != 1 {
		t.Errorf("transcript len = %d, want 1", m.Transcript().Len())
	}
}

func TestModel_Clear(t *testing.T) {
	var prompts []string
	m := newTestModel(t, &prompts)

	m = update(t, m, answerMsg{prompt: "x", raw: cannedRaw})
	if !strings.Contains(m.View(), "Rest and drink fluids") {
		t.Fatalf("view missing answer:\n%s", m.View())
	}

	m = typeText(t, m, clearCommand)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if strings.Contains(m.View(), "Rest and drink fluids") {
		t.Errorf("view still shows answer after %s:\n%s", clearCommand, m.View())
	}
	if len(prompts) != 0 {
		t.Errorf("%s was sent to the assistant", clearCommand)
	}
	if m.Transcript().Len() != 1 {
		t.Errorf("transcript len = %d, want 1 (clear only resets the view)", m.Transcript().Len())
	}
}

func TestModel_EmptyEnter(t *testing.T) {
	var prompts []string
	m := newTestModel(t, &prompts)

	m = typeText(t, m, "   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || next.(Model).busy {
		t.Error("blank prompt started a request")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	var prompts []string
	m := newTestModel(t, &prompts)

	for _, key := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s returned no command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not quit", key)
		}
	}
}

func TestModel_ViewBeforeSize(t *testing.T) {
	m := NewModel(context.Background(), "t", nil, chat.NewTranscript("x"))
	if m.View() != "Initializing..." {
		t.Errorf("view = %q, want %q", m.View(), "Initializing...")
	}
}
