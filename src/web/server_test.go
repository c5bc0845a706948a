package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/chat"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// recordingAsk returns a fixed raw rendering and records prompts.
type recordingAsk struct {
	mu      sync.Mutex
	raw     string
	prompts []string
}

func (r *recordingAsk) ask(_ context.Context, prompt string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return r.raw
}

func newTestServer(t *testing.T, ask *recordingAsk) (*httptest.Server, *http.Client) {
	t.Helper()
	s := NewServer(config.Default().Web, ask.ask, chat.NewSessions(nil, testLogger()), testLogger())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return ts, &http.Client{Jar: jar}
}

func getBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}

func TestIndex_RendersPage(t *testing.T) {
	ts, client := newTestServer(t, &recordingAsk{})

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := getBody(t, resp)

	for _, want := range []string{
		config.DefaultWebTitle,
		config.DefaultWebDescription,
		"Important Information",
		"Ambulance Number (India):</strong> 108",
		config.DefaultDietPlanURL,
		config.DefaultImmunityURL,
		"Enter your symptoms:",
		"Get Medicine Advice",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	for _, c := range resp.Cookies() {
		if c.Name == conversationCookie {
			t.Errorf("GET / issued conversation cookie %q", c.Value)
		}
	}
}

func TestIndex_CookielessRetainsNothing(t *testing.T) {
	sessions := chat.NewSessions(nil, testLogger())
	ts := httptest.NewServer(NewServer(config.Default().Web, (&recordingAsk{raw: "ok"}).ask, sessions, testLogger()).Handler())
	defer ts.Close()

	for range 50 {
		resp, err := http.Get(ts.URL + "/")
		if err != nil {
			t.Fatalf("GET /: %v", err)
		}
		_ = getBody(t, resp)
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: conversationCookie, Value: "6f1c1f8e-5a9e-4c55-9c39-3d2a3f0e7b11"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET / with cookie: %v", err)
	}
	_ = getBody(t, resp)

	if n := sessions.Len(); n != 0 {
		t.Errorf("conversations held = %d, want 0", n)
	}

	resp, err = http.PostForm(ts.URL+"/ask", url.Values{"symptoms": {"fever"}})
	if err != nil {
		t.Fatalf("POST /ask: %v", err)
	}
	_ = getBody(t, resp)
	if n := sessions.Len(); n != 1 {
		t.Errorf("conversations held = %d, want 1 after asking", n)
	}
}

func TestAsk_AppendsCleanedAnswer(t *testing.T) {
	ask := &recordingAsk{raw: "\x1b[34m┏━ Response (1.0s) ━┓\x1b[0m\n┃ Drink <warm> fluids ┃\n┗━━┛"}
	ts, client := newTestServer(t, ask)

	resp, err := client.PostForm(ts.URL+"/ask", url.Values{"symptoms": {"  sore throat  "}})
	if err != nil {
		t.Fatalf("POST /ask: %v", err)
	}
	if resp.Request.URL.Path != "/" {
		t.Errorf("ended at %q, want redirect to /", resp.Request.URL.Path)
	}
	body := getBody(t, resp)

	if len(ask.prompts) != 1 || ask.prompts[0] != "sore throat" {
		t.Fatalf("prompts = %q, want [sore throat]", ask.prompts)
	}
	if !strings.Contains(body, `<div class="msg msg-user">sore throat</div>`) {
		t.Errorf("user message not rendered:\n%s", body)
	}
	if !strings.Contains(body, "Drink &lt;warm&gt; fluids") {
		t.Errorf("assistant answer not rendered escaped:\n%s", body)
	}
	if strings.ContainsAny(body, "┏┓┗┛┃━\x1b") {
		t.Errorf("page contains terminal decoration:\n%q", body)
	}
	if strings.Index(body, `class="msg msg-user"`) > strings.Index(body, `class="msg msg-assistant"`) {
		t.Error("assistant message rendered before the user message")
	}
}

func TestAsk_HistoryPerConversation(t *testing.T) {
	ask := &recordingAsk{raw: "answer"}
	ts, client := newTestServer(t, ask)

	for _, p := range []string{"first", "second"} {
		resp, err := client.PostForm(ts.URL+"/ask", url.Values{"symptoms": {p}})
		if err != nil {
			t.Fatalf("POST /ask: %v", err)
		}
		_ = getBody(t, resp)
	}

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body := getBody(t, resp)
	if strings.Count(body, `class="msg msg-`) != 4 {
		t.Errorf("history has %d messages, want 4", strings.Count(body, `class="msg msg-`))
	}
	if strings.Index(body, ">first<") > strings.Index(body, ">second<") {
		t.Error("messages out of order")
	}

	// A client without the cookie starts a fresh conversation.
	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	if body := getBody(t, resp); strings.Contains(body, `class="msg msg-`) {
		t.Error("new conversation shows another conversation's history")
	}
}

func TestAsk_EmptyPromptIgnored(t *testing.T) {
	ask := &recordingAsk{raw: "unused"}
	ts, client := newTestServer(t, ask)

	resp, err := client.PostForm(ts.URL+"/ask", url.Values{"symptoms": {"   "}})
	if err != nil {
		t.Fatalf("POST /ask: %v", err)
	}
	body := getBody(t, resp)
	if len(ask.prompts) != 0 {
		t.Errorf("ask called with %q", ask.prompts)
	}
	if strings.Contains(body, `class="msg msg-`) {
		t.Error("empty prompt added messages")
	}
}

func TestAsk_MethodNotAllowed(t *testing.T) {
	ts, client := newTestServer(t, &recordingAsk{})
	resp, err := client.Get(ts.URL + "/ask")
	if err != nil {
		t.Fatalf("GET /ask: %v", err)
	}
	_ = getBody(t, resp)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts, client := newTestServer(t, &recordingAsk{})
	resp, err := client.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if body := getBody(t, resp); body != "ok\n" {
		t.Errorf("body = %q, want %q", body, "ok\n")
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := config.Default().Web
	cfg.Addr = "127.0.0.1:0"

	var opened string
	s := NewServer(cfg, (&recordingAsk{}).ask, chat.NewSessions(nil, testLogger()), testLogger())
	s.openBrowser = func(u string) error {
		opened = u
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !strings.HasPrefix(opened, "http://localhost:") {
		t.Errorf("opened %q, want local URL", opened)
	}
}
