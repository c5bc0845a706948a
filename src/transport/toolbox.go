// Package transport manages MCP connections: sessions to the toolboxes the
// assistant calls, and the server medimate exposes to MCP clients.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/config"
)

// TransportMemory marks the in-process built-in toolbox.
const TransportMemory = "memory"

const (
	healthCheckInterval = 30 * time.Second
	pingTimeout         = 5 * time.Second
)

// ToolboxConn holds a live client session to a toolbox along with the
// config that created it.
type ToolboxConn struct {
	Name    string
	Session *mcp.ClientSession
	Config  config.ToolboxConfig
}

// TransportFactory creates a Transport for a given toolbox config.
// Exists to allow injection of test transports.
type TransportFactory func(config.ToolboxConfig) (mcp.Transport, error)

// ToolboxManager keeps sessions to the built-in toolbox and to every
// configured external MCP server, health-checking and reconnecting them.
type ToolboxManager struct {
	mu               sync.RWMutex
	conns            map[string]*ToolboxConn
	cfgs             []config.ToolboxConfig
	builtin          *mcp.Server
	logger           *slog.Logger
	transportFactory TransportFactory
	interval         time.Duration

	// cancelHealthCheck stops the background health check goroutine.
	cancelHealthCheck context.CancelFunc
}

// ManagerOption configures a ToolboxManager.
type ManagerOption func(*ToolboxManager)

// WithBuiltin connects srv in-process under config.BuiltinToolbox, with
// its results sanitized by sanitization on top of the global settings.
func WithBuiltin(srv *mcp.Server, sanitization *config.SanitizationConfig) ManagerOption {
	return func(m *ToolboxManager) {
		m.builtin = srv
		m.cfgs = append([]config.ToolboxConfig{{
			Name:         config.BuiltinToolbox,
			Transport:    TransportMemory,
			Sanitization: sanitization,
		}}, m.cfgs...)
	}
}

// WithTransportFactory replaces the stdio/HTTP transport factory.
func WithTransportFactory(f TransportFactory) ManagerOption {
	return func(m *ToolboxManager) { m.transportFactory = f }
}

// WithHealthCheckInterval changes how often sessions are pinged.
func WithHealthCheckInterval(d time.Duration) ManagerOption {
	return func(m *ToolboxManager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// NewToolboxManager connects to the built-in toolbox (when given) and all
// configured toolboxes. Connections that fail are logged but do not
// prevent startup; they are retried by health checks. It fails only when
// toolboxes were configured and none could be reached.
func NewToolboxManager(ctx context.Context, toolboxes []config.ToolboxConfig, logger *slog.Logger, opts ...ManagerOption) (*ToolboxManager, error) {
	tm := &ToolboxManager{
		conns:            make(map[string]*ToolboxConn, len(toolboxes)+1),
		cfgs:             slices.Clone(toolboxes),
		logger:           logger.With("area", "toolbox"),
		transportFactory: newTransport,
		interval:         healthCheckInterval,
	}
	for _, opt := range opts {
		opt(tm)
	}

	for _, tb := range tm.cfgs {
		conn, err := tm.connect(ctx, tb)
		if err != nil {
			tm.logger.Error("failed to connect", "toolbox", tb.Name, "err", err)
			continue
		}
		tm.conns[tb.Name] = conn
		tm.logger.Info("connected", "toolbox", tb.Name, "transport", tb.Transport)
	}

	if len(tm.cfgs) > 0 && len(tm.conns) == 0 {
		return nil, fmt.Errorf("failed to connect to any toolbox")
	}

	hctx, cancel := context.WithCancel(ctx)
	tm.cancelHealthCheck = cancel
	go tm.healthCheckLoop(hctx)

	return tm, nil
}

// Session returns the active session for a named toolbox.
// Returns nil if the toolbox is not connected.
func (tm *ToolboxManager) Session(name string) *mcp.ClientSession {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	conn, ok := tm.conns[name]
	if !ok {
		return nil
	}
	return conn.Session
}

// Conns returns a snapshot of all active connections.
func (tm *ToolboxManager) Conns() map[string]*ToolboxConn {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	out := make(map[string]*ToolboxConn, len(tm.conns))
	for k, v := range tm.conns {
		out[k] = v
	}
	return out
}

// Close terminates all toolbox connections and stops health checks.
func (tm *ToolboxManager) Close() {
	if tm.cancelHealthCheck != nil {
		tm.cancelHealthCheck()
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	for name, conn := range tm.conns {
		if err := conn.Session.Close(); err != nil {
			tm.logger.Error("error closing session", "toolbox", name, "err", err)
		}
	}
	tm.conns = make(map[string]*ToolboxConn)
}

func (tm *ToolboxManager) connect(ctx context.Context, tb config.ToolboxConfig) (*ToolboxConn, error) {
	client := mcp.NewClient(
		&mcp.Implementation{
			Name:    "medimate",
			Version: Version,
		},
		&mcp.ClientOptions{Logger: tm.logger},
	)

	transport, err := tm.transportFor(ctx, tb)
	if err != nil {
		return nil, fmt.Errorf("creating transport for %s: %w", tb.Name, err)
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", tb.Name, err)
	}

	return &ToolboxConn{
		Name:    tb.Name,
		Session: session,
		Config:  tb,
	}, nil
}

// transportFor returns an in-memory pipe to the built-in server, or asks
// the factory for an external one.
func (tm *ToolboxManager) transportFor(ctx context.Context, tb config.ToolboxConfig) (mcp.Transport, error) {
	if tb.Transport != TransportMemory {
		return tm.transportFactory(tb)
	}
	if tm.builtin == nil {
		return nil, fmt.Errorf("no in-process server for %s", tb.Name)
	}
	srvTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := tm.builtin.Connect(ctx, srvTransport, nil); err != nil {
		return nil, fmt.Errorf("starting in-process server: %w", err)
	}
	return clientTransport, nil
}

func newTransport(tb config.ToolboxConfig) (mcp.Transport, error) {
	switch tb.Transport {
	case config.TransportStdio:
		if len(tb.Command) == 0 {
			return nil, fmt.Errorf("stdio transport requires a command")
		}
		cmd := exec.Command(tb.Command[0], tb.Command[1:]...)
		return &mcp.CommandTransport{Command: cmd}, nil

	case config.TransportHTTP:
		if tb.URL == "" {
			return nil, fmt.Errorf("http transport requires a url")
		}
		return &mcp.StreamableClientTransport{Endpoint: tb.URL}, nil

	default:
		return nil, fmt.Errorf("unsupported transport: %s", tb.Transport)
	}
}

func (tm *ToolboxManager) healthCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(tm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tm.checkAndReconnect(ctx)
		}
	}
}

func (tm *ToolboxManager) checkAndReconnect(ctx context.Context) {
	for _, cfg := range tm.cfgs {
		if ctx.Err() != nil {
			return
		}

		tm.mu.RLock()
		conn, connected := tm.conns[cfg.Name]
		tm.mu.RUnlock()

		if connected {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Session.Ping(pingCtx, &mcp.PingParams{})
			cancel()
			if err == nil {
				continue
			}
			tm.logger.Warn("health check failed, reconnecting", "toolbox", cfg.Name, "err", err)
			_ = conn.Session.Close()
		}

		newConn, err := tm.connect(ctx, cfg)
		if err != nil {
			tm.logger.Error("reconnect failed", "toolbox", cfg.Name, "err", err)
			tm.mu.Lock()
			delete(tm.conns, cfg.Name)
			tm.mu.Unlock()
			continue
		}

		tm.mu.Lock()
		tm.conns[cfg.Name] = newConn
		tm.mu.Unlock()
		tm.logger.Info("reconnected", "toolbox", cfg.Name)
	}
}
