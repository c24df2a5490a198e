// Package server exposes the tracked collection over HTTP: read endpoints,
// manual cycle triggers, and live change events over WebSocket and SSE.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/comicmap"
	"github.com/agentstation/comicmap/internal/server/cache"
	"github.com/agentstation/comicmap/internal/server/events"
	"github.com/agentstation/comicmap/internal/server/events/adapters"
	"github.com/agentstation/comicmap/internal/server/sse"
	ws "github.com/agentstation/comicmap/internal/server/websocket"
	"github.com/agentstation/comicmap/pkg/comics"
	pkgerrors "github.com/agentstation/comicmap/pkg/errors"
)

const shutdownTimeout = 30 * time.Second

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         comicmap.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	startTime      time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server for client and connects the client's change hooks to
// the event broker.
func New(client comicmap.Client, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if client == nil {
		return nil, &pkgerrors.ValidationError{Field: "client", Message: "cannot be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		client:         client,
		cache:          cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.connectHooks()
	return s, nil
}

// connectHooks publishes collection changes and invalidates cached reads.
func (s *Server) connectHooks() {
	s.client.OnComicAdded(func(rec comics.Record) {
		s.cache.Clear()
		s.broker.Publish(events.ComicAdded, map[string]any{"comic": rec})
	})
	s.client.OnComicUpdated(func(old, updated comics.Record) {
		s.cache.Clear()
		s.broker.Publish(events.ComicUpdated, map[string]any{
			"old": old,
			"new": updated,
		})
	})
}

// Start launches the broker and the realtime transports.
func (s *Server) Start() {
	for _, run := range []func(context.Context){s.broker.Run, s.wsHub.Run, s.sseBroadcaster.Run} {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run(s.ctx)
		}()
	}
	s.logger.Debug().Msg("Realtime services started")
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// ListenAndServe serves on the configured address until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return pkgerrors.WrapResource("listen", "http server", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return s.ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Str("prefix", s.prefix()).Msg("API server listening")
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Streams never finish on their own; stop them before draining.
	s.cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.WrapResource("shutdown", "http server", ln.Addr().String(), err)
	}
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the realtime services and waits for them to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Debug().Msg("Realtime services stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Realtime services shutdown timed out")
		return ctx.Err()
	}
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}
