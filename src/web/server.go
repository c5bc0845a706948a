// Package web serves the browser chat: a symptom form above a scrollable
// history of cleaned assistant answers.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skratchdot/open-golang/open"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/chat"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/config"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
)

//go:embed templates
var templateFS embed.FS

const (
	conversationCookie = "medimate_conversation"
	shutdownTimeout    = 5 * time.Second
)

// AskFunc answers prompt with the raw console rendering of the exchange,
// or the error placeholder when no answer could be produced.
type AskFunc func(ctx context.Context, prompt string) string

// Server is the web chat.
type Server struct {
	cfg       config.WebConfig
	pageTitle string
	ask       AskFunc
	sessions  *chat.Sessions
	logger    *slog.Logger
	tmpl      *template.Template

	openBrowser func(string) error
}

// Option configures a Server.
type Option func(*Server)

// WithBrowser opens the chat in the default browser once listening.
func WithBrowser() Option {
	return func(s *Server) { s.openBrowser = open.Run }
}

// WithPageTitle sets the browser tab title. It defaults to the page heading.
func WithPageTitle(title string) Option {
	return func(s *Server) { s.pageTitle = title }
}

// NewServer creates a Server that answers with ask and records every
// conversation in sessions.
func NewServer(cfg config.WebConfig, ask AskFunc, sessions *chat.Sessions, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		pageTitle: cfg.Title,
		ask:       ask,
		sessions:  sessions,
		logger:    logger.With("area", "web"),
		tmpl:      template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes the chat pages.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Run serves on the configured address and blocks until ctx is cancelled
// or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	url := localURL(ln.Addr())
	s.logger.Info("web chat listening", "url", url)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if s.openBrowser != nil {
		if err := s.openBrowser(url); err != nil {
			s.logger.Warn("could not open browser", "url", url, "err", err)
		}
	}

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down web chat")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func localURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String() + "/"
	}
	return fmt.Sprintf("http://localhost:%d/", tcp.Port)
}

type messageView struct {
	Sender string
	Text   string
}

type pageData struct {
	PageTitle       string
	Title           string
	Description     string
	AmbulanceNumber string
	DietPlanURL     string
	ImmunityURL     string
	Messages        []messageView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var msgs []chat.Message
	if convID, ok := existingConversation(r); ok {
		var err error
		msgs, err = s.sessions.Messages(convID)
		if err != nil {
			s.logger.Error("loading conversation", "conversation", convID, "err", err)
			http.Error(w, "could not load conversation", http.StatusInternalServerError)
			return
		}
	}

	data := pageData{
		PageTitle:       s.pageTitle,
		Title:           s.cfg.Title,
		Description:     s.cfg.Description,
		AmbulanceNumber: s.cfg.AmbulanceNumber,
		DietPlanURL:     s.cfg.DietPlanURL,
		ImmunityURL:     s.cfg.ImmunityURL,
	}
	for _, m := range msgs {
		data.Messages = append(data.Messages, messageView{Sender: string(m.Sender), Text: m.Text})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index", data); err != nil {
		s.logger.Error("rendering page", "err", err)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	convID := s.conversation(w, r)
	prompt := strings.TrimSpace(r.FormValue("symptoms"))
	if prompt == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := s.sessions.Append(convID, chat.NewMessage(chat.SenderUser, prompt)); err != nil {
		s.logger.Error("recording prompt", "conversation", convID, "err", err)
		http.Error(w, "could not record message", http.StatusInternalServerError)
		return
	}

	answer := sanitizer.Clean(s.ask(r.Context(), prompt))
	if err := s.sessions.Append(convID, chat.NewMessage(chat.SenderAssistant, answer)); err != nil {
		s.logger.Error("recording answer", "conversation", convID, "err", err)
		http.Error(w, "could not record message", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// existingConversation returns the conversation id carried by the request.
func existingConversation(r *http.Request) (string, bool) {
	c, err := r.Cookie(conversationCookie)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// conversation returns the caller's conversation id, issuing a new one
// in a cookie when the request carries none.
func (s *Server) conversation(w http.ResponseWriter, r *http.Request) string {
	if id, ok := existingConversation(r); ok {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     conversationCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
