// Package server exposes a memory store over HTTP and a WebSocket tool
// channel.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/core"
	"github.com/becomeliminal/nim-memory/engine"
	"github.com/becomeliminal/nim-memory/logging"
	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/tools"
)

// Config holds the listener settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DefaultAddr is used when Config.Addr is empty.
const DefaultAddr = "127.0.0.1:8420"

// Server is the nim-memory HTTP API server.
type Server struct {
	cfg      Config
	http     *http.Server
	store    *memory.Store
	registry *tools.Registry
	gen      core.Generator // Optional: chat and consolidation need it
	engine   *engine.Engine
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Client
}

// Option configures the server.
type Option func(*Server)

// WithGenerator enables /v1/chat and /v1/memory/consolidate.
func WithGenerator(gen core.Generator) Option {
	return func(s *Server) {
		s.gen = gen
	}
}

// WithLogger sets the logger. Defaults to logging.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New creates a server over store.
func New(cfg Config, store *memory.Store, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		registry: tools.NewRegistry(tools.MemoryTools(store)...),
		clients:  make(map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Default()
	}
	if s.gen != nil {
		s.engine = engine.New(s.gen,
			engine.WithMemory(store),
			engine.WithLogger(s.log),
			engine.WithEmotionalContext(2),
		)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withLogging(withCORS(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return goerr.Wrap(err, "listen", goerr.V("addr", s.cfg.Addr))
	}

	s.log.Info("memory server listening",
		"addr", ln.Addr().String(),
		"memory_enabled", s.store.Enabled(),
		"chat", s.gen != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.closeClients()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("server shutdown error", "error", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "serve")
	}
}

func (s *Server) addClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *Server) removeClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c.id)
}

// closeClients closes hijacked websocket connections, which
// http.Server.Shutdown does not track.
func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.conn.Close()
	}
}
