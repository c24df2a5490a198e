package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agentstation/comicmap/internal/server/handlers"
	"github.com/agentstation/comicmap/internal/server/middleware"
)

// setupRouter builds the routes and middleware chain.
func (s *Server) setupRouter() http.Handler {
	h := handlers.New(
		s.client,
		s.cache,
		s.broker,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
		s.startTime,
	)

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	)
	if s.config.CORSEnabled {
		cors := middleware.DefaultCORSConfig()
		if len(s.config.CORSOrigins) > 0 {
			cors.AllowAll = false
			cors.AllowedOrigins = s.config.CORSOrigins
		}
		r.Use(middleware.CORS(cors))
	}

	r.NotFound(h.HandleNotFound)
	r.MethodNotAllowed(h.HandleMethodNotAllowed)

	r.Get("/health", h.HandleHealth)
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	api := func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/ready", h.HandleReady)
		r.Get("/stats", h.HandleStats)

		r.Get("/comics", h.HandleListComics)
		r.Get("/comics/lookup", h.HandleGetComic)

		r.Group(func(r chi.Router) {
			if s.config.RateLimit > 0 {
				r.Use(middleware.RateLimit(middleware.NewRateLimiter(s.ctx, s.config.RateLimit, s.logger)))
			}
			r.Post("/cycles/ingest", h.HandleIngest)
			r.Post("/cycles/refresh", h.HandleRefresh)
		})

		r.Get("/updates/ws", h.HandleWebSocket)
		r.Get("/updates/stream", h.HandleSSE)
	}
	if prefix := s.prefix(); prefix == "/" {
		api(r)
	} else {
		r.Route(prefix, api)
	}

	return r
}

func (s *Server) prefix() string {
	p := strings.TrimRight(s.config.PathPrefix, "/")
	if p == "" {
		return "/"
	}
	return p
}
