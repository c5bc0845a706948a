// Package app wires config, the chat model, the toolboxes and the tool
// registry into the assistant every front end talks to.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/agent"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/config"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/console"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/evaluation"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/knowledge"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/toolbox"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/transport"
)

// App is the top-level orchestrator shared by the web chat, the terminal
// chat, the accuracy harness and the MCP server.
type App struct {
	cfg      config.Config
	logger   *slog.Logger
	model    agent.ChatModel
	manager  *transport.ToolboxManager
	registry *toolbox.Registry
}

// Option configures how New builds an App.
type Option func(*options)

type options struct {
	model            agent.ChatModel
	searchersSet     bool
	wiki, ddg        toolbox.Searcher
	transportFactory transport.TransportFactory
}

// WithChatModel replaces the Groq client built from config.
func WithChatModel(m agent.ChatModel) Option {
	return func(o *options) { o.model = m }
}

// WithSearchers replaces the Wikipedia and DuckDuckGo searchers. A nil
// searcher disables its tool.
func WithSearchers(wiki, ddg toolbox.Searcher) Option {
	return func(o *options) {
		o.searchersSet = true
		o.wiki, o.ddg = wiki, ddg
	}
}

// WithTransportFactory replaces the transport factory used for external
// toolboxes.
func WithTransportFactory(f transport.TransportFactory) Option {
	return func(o *options) { o.transportFactory = f }
}

// New connects the built-in knowledge toolbox and every configured
// external toolbox, then discovers their tools. ctx bounds the lifetime
// of the toolbox health checks.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger.With("area", "app"), model: o.model}
	if a.model == nil {
		if cfg.Model.APIKey() == "" {
			a.logger.Warn("model API key is not set", "env", cfg.Model.APIKeyEnv)
		}
		a.model = agent.NewClient(cfg.Model.APIKey(), cfg.Model.BaseURL)
	}

	wiki, ddg := o.wiki, o.ddg
	if !o.searchersSet {
		wiki, ddg = defaultSearchers(cfg.Tools)
	}

	var managerOpts []transport.ManagerOption
	if wiki != nil || ddg != nil {
		srv, err := toolbox.NewServer(wiki, ddg, logger)
		if err != nil {
			return nil, fmt.Errorf("knowledge toolbox: %w", err)
		}
		managerOpts = append(managerOpts, transport.WithBuiltin(srv, cfg.Tools.Sanitization))
	}
	if o.transportFactory != nil {
		managerOpts = append(managerOpts, transport.WithTransportFactory(o.transportFactory))
	}

	manager, err := transport.NewToolboxManager(ctx, cfg.Toolboxes, logger, managerOpts...)
	if err != nil {
		return nil, fmt.Errorf("toolboxes: %w", err)
	}
	a.manager = manager

	a.registry = toolbox.NewRegistry(manager, cfg.Sanitization, logger)
	count, err := a.registry.Discover(ctx)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("registry: %w", err)
	}
	a.logger.Info("tool discovery complete", "total", count)

	return a, nil
}

func defaultSearchers(cfg config.ToolsConfig) (wiki, ddg toolbox.Searcher) {
	if config.Enabled(cfg.Wikipedia) {
		wiki = knowledge.NewWikipedia()
	}
	if config.Enabled(cfg.DuckDuckGo) {
		ddg = knowledge.NewDuckDuckGo(knowledge.WithMaxResults(cfg.MaxResults))
	}
	return wiki, ddg
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Tools lists the namespaced tools the assistant may call.
func (a *App) Tools() []string { return a.registry.Names() }

// Close disconnects every toolbox.
func (a *App) Close() {
	a.manager.Close()
}

// Assistant builds an assistant for the named instruction profile, or the
// configured default profile when name is empty. Instructions set in
// config replace the profile's own.
func (a *App) Assistant(name string) (*agent.Assistant, error) {
	if name == "" {
		name = a.cfg.Assistant.Profile
	}
	p, err := agent.LookupProfile(name)
	if err != nil {
		return nil, err
	}
	if len(a.cfg.Assistant.Instructions) > 0 {
		p.Instructions = a.cfg.Assistant.Instructions
	}

	return agent.New(a.model, a.cfg.Model.ID, a.logger,
		agent.WithTools(a.registry),
		agent.WithProfile(p, config.Enabled(a.cfg.Assistant.Markdown)),
		agent.WithTemperature(a.cfg.Model.Temperature),
		agent.WithMaxIterations(a.cfg.Assistant.MaxIterations),
		agent.WithMaxToolOutput(a.cfg.Assistant.MaxToolOutput),
	), nil
}

// ConsoleOptions returns the panel settings from config.
func (a *App) ConsoleOptions() console.Options {
	return console.Options{
		Width:         a.cfg.Console.Width,
		Color:         config.Enabled(a.cfg.Console.Color),
		ShowToolCalls: config.Enabled(a.cfg.Console.ShowToolCalls),
	}
}

// Ask runs prompt through asst and returns the raw console rendering of
// the exchange. When the assistant fails, raw is the error placeholder.
// Callers that display raw outside a terminal pass it through
// sanitizer.Clean first.
func (a *App) Ask(ctx context.Context, asst *agent.Assistant, prompt string) (raw string, out agent.Outcome) {
	if a.cfg.Model.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.Model.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	out = asst.Respond(ctx, prompt)
	if !out.OK() {
		return out.Placeholder(), out
	}
	return console.Capture(prompt, out.Reply, a.ConsoleOptions()), out
}

// Invoker adapts asst to the accuracy harness. The raw rendering is
// returned; the runner substitutes the placeholder on error and cleans.
func (a *App) Invoker(asst *agent.Assistant) evaluation.Invoker {
	return func(ctx context.Context, prompt string) (string, error) {
		raw, out := a.Ask(ctx, asst, prompt)
		if !out.OK() {
			return "", out.Err
		}
		return raw, nil
	}
}
