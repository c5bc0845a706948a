package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/transport"
)

// resetHelpFlags clears --help set by an earlier Execute, since cobra keeps
// flag values on the shared command tree between runs.
func resetHelpFlags(c *cobra.Command) {
	if f := c.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	for _, sub := range c.Commands() {
		resetHelpFlags(sub)
	}
}

func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		rootCmd.SetIn(nil)
		resetHelpFlags(rootCmd)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, nil, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "medimate version "+transport.Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand(t, nil, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range []string{"ask", "chat", "web", "evaluate", "clean", "mcp", "tools", "config", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	for _, args := range [][]string{
		{"ask", "--help"},
		{"chat", "--help"},
		{"web", "--help"},
		{"evaluate", "--help"},
		{"mcp", "--help"},
		{"config", "show", "--help"},
	} {
		out, err := executeCommand(t, nil, args...)
		if err != nil {
			t.Errorf("%v failed: %v", args, err)
		}
		if out == "" {
			t.Errorf("%v produced no output", args)
		}
	}
}

func TestCleanCommand_Stdin(t *testing.T) {
	out, err := executeCommand(t, strings.NewReader("\x1b[31mHello\x1b[0m\n┃ Take rest ┃\n"), "clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Hello\n Take rest \n" {
		t.Errorf("output = %q, want %q", out, "Hello\n Take rest \n")
	}
}

func TestCleanCommand_Files(t *testing.T) {
	a := writeFile(t, "a.txt", "┏━━┓\n")
	b := writeFile(t, "b.txt", "\x1b[1mbold\x1b[0m")

	out, err := executeCommand(t, nil, "clean", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "\nbold" {
		t.Errorf("output = %q, want %q", out, "\nbold")
	}

	if _, err := executeCommand(t, nil, "clean", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfigShow(t *testing.T) {
	path := writeFile(t, "medimate.json", `{"model": {"id": "custom-model"}}`)

	out, err := executeCommand(t, nil, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"id": "custom-model"`, `"addr": ":8501"`, `"profile": "otc"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %s:\n%s", want, out)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	good := writeFile(t, "good.json", `{"assistant": {"profile": "ayurvedic"}}`)
	out, err := executeCommand(t, nil, "--config", good, "config", "validate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid.") {
		t.Errorf("output = %q", out)
	}

	badProfile := writeFile(t, "profile.json", `{"web": {"profile": "homeopathic"}}`)
	if _, err := executeCommand(t, nil, "--config", badProfile, "config", "validate"); err == nil || !strings.Contains(err.Error(), "homeopathic") {
		t.Errorf("err = %v, want unknown profile error", err)
	}

	badJSON := writeFile(t, "bad.json", `{"model": `)
	if _, err := executeCommand(t, nil, "--config", badJSON, "config", "validate"); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestAsk_RequiresSymptoms(t *testing.T) {
	if _, err := executeCommand(t, nil, "ask"); err == nil {
		t.Error("expected error without symptoms")
	}
}

func TestEvaluate_UnknownSuite(t *testing.T) {
	t.Cleanup(func() { evalSuite = "otc" })
	_, err := executeCommand(t, nil, "evaluate", "--suite", "no-such-suite")
	if err == nil || !strings.Contains(err.Error(), "no-such-suite") {
		t.Errorf("err = %v, want unknown suite error", err)
	}
}

func TestResolveSuite(t *testing.T) {
	s, err := resolveSuite("otc")
	if err != nil {
		t.Fatalf("builtin suite: %v", err)
	}
	if len(s.Cases) == 0 {
		t.Error("builtin suite has no cases")
	}

	path := writeFile(t, "suite.yaml", "name: mine\ncases:\n  - input: cough\n    expected_keywords: [syrup]\n")
	s, err = resolveSuite(path)
	if err != nil {
		t.Fatalf("file suite: %v", err)
	}
	if s.Name != "mine" || len(s.Cases) != 1 {
		t.Errorf("suite = %+v, want mine with one case", s)
	}
}
