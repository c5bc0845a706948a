package sanitizer

import (
	"strings"
	"sync"
	"testing"
)

func TestClean_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"colour codes", "\x1b[31mHello\x1b[0m", "Hello"},
		{"panel frame", "┏━━┓\nHi\n┗━━┛", "\nHi\n"},
		{"empty", "", ""},
		{"plain text unchanged", "Take 500mg with water.", "Take 500mg with water."},
		{"only matches", "\x1b[1m┃\x1b[0m━", ""},
		{"cursor movement", "a\x1b[2Kb\x1b[1;1Hc", "abc"},
		{"intermediate byte", "x\x1b[1 qy", "xy"},
		{"private parameter", "\x1b[?25lhidden cursor\x1b[?25h", "hidden cursor"},
		{"side bars", "┃ Response ┃", " Response "},
		{"light glyphs kept", "┌─┐│└┘", "┌─┐│└┘"},
		{"osc left alone", "\x1b]0;title\x07text", "\x1b]0;title\x07text"},
		{"bare escape left alone", "\x1bM up", "\x1bM up"},
		{"unterminated csi left alone", "tail \x1b[31", "tail \x1b[31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean_SplicedSequences(t *testing.T) {
	tests := []string{
		"\x1b┏[31mred",
		"\x1b\x1b[m[31mred",
		"\x1b━\x1b[0m[1mred",
	}
	for _, input := range tests {
		got := Clean(input)
		if got != "red" {
			t.Errorf("Clean(%q) = %q, want %q", input, got, "red")
		}
	}
}

func TestClean_Idempotent(t *testing.T) {
	pieces := []string{"", "a", "\x1b", "[", "31", "m", "┏", "━", "┃", "\n", "é", "\x1b[0m", "?", " ", "~"}
	// Every ordered combination of three pieces.
	for _, a := range pieces {
		for _, b := range pieces {
			for _, c := range pieces {
				s := a + b + c
				once := Clean(s)
				if twice := Clean(once); twice != once {
					t.Fatalf("Clean not idempotent for %q: once=%q twice=%q", s, once, twice)
				}
			}
		}
	}
}

func TestClean_NoOpOnCleanInput(t *testing.T) {
	inputs := []string{
		"- **Headache**: Recommend acetaminophen with dosage 500mg.",
		"I am not a doctor.\n\tConsult a healthcare professional.",
		"[bracketed] text with ESC-free content",
		"unicode: 日本語 ┌ light box └",
	}
	for _, s := range inputs {
		if got := Clean(s); got != s {
			t.Errorf("Clean(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestClean_OrderIndependentForDisjointInput(t *testing.T) {
	s := "\x1b[1m┏━ Response ━┓\x1b[0m\n┃ Drink fluids ┃"
	a := RemoveBoxGlyphs(StripTerminalCodes(s))
	b := StripTerminalCodes(RemoveBoxGlyphs(s))
	if a != b {
		t.Errorf("orders differ: %q vs %q", a, b)
	}
	if got := Clean(s); got != a {
		t.Errorf("Clean = %q, want %q", got, a)
	}
}

func TestClean_Concurrent(t *testing.T) {
	input := strings.Repeat("\x1b[32m┃ ok ┃\x1b[0m\n", 50)
	want := Clean(input)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Clean(input); got != want {
				t.Errorf("concurrent Clean = %q, want %q", got, want)
			}
		}()
	}
	wg.Wait()
}
