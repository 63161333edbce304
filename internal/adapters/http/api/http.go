// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/okian/swiss/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HealthDependencies
	PlayerDependencies
	MatchDependencies
	StandingsDependencies
}

// LiveHandler serves the websocket feed and reports its client count.
type LiveHandler interface {
	http.Handler
	ClientCounter
}

// Server wires HTTP routes for the tournament API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	playersHandler   *PlayersHandler
	matchesHandler   *MatchesHandler
	standingsHandler *StandingsHandler
	snapshotsHandler *SnapshotsHandler
	auth             *Authenticator
	live             LiveHandler

	origins []string
	timeout time.Duration
	logger  logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStats serves GET /stats from p.
func WithStats(p StatsProvider) Option {
	return func(s *Server) { s.statsHandler.statsProvider = p }
}

// WithAuth protects admin routes with a.
func WithAuth(a *Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

// WithExporter enables POST /admin/snapshots.
func WithExporter(e Exporter) Option {
	return func(s *Server) { s.snapshotsHandler.exporter = e }
}

// WithLive mounts the websocket feed at /live.
func WithLive(h LiveHandler) Option {
	return func(s *Server) {
		s.live = h
		s.statsHandler.live = h
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithRequestTimeout bounds handler run time. The live feed is exempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(nil, nil),
		playersHandler:   NewPlayersHandler(deps),
		matchesHandler:   NewMatchesHandler(deps),
		standingsHandler: NewStandingsHandler(deps),
		snapshotsHandler: NewSnapshotsHandler(nil),
		origins:          []string{"*"},
		timeout:          30 * time.Second,
		logger:           logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auth == nil {
		s.auth = NewAuthenticator("", "", 0)
	}
	return s
}

// Router builds the chi router with every API route.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

// Register attaches middleware and all API routes to r.
func (s *Server) Register(ctx context.Context, r chi.Router) {
	if !s.auth.Enabled() {
		s.logger.Warn(ctx, "admin authentication disabled; destructive routes are open")
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(Metrics)

	r.Handle("/metrics", MetricsHandler())
	if s.live != nil {
		r.Handle("/live", s.live)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))

		r.Get("/healthz", s.healthHandler.HandleHealth)
		r.Get("/stats", s.statsHandler.HandleStats)

		r.Route("/players", func(r chi.Router) {
			r.Post("/", s.playersHandler.HandleRegister)
			r.Get("/count", s.playersHandler.HandleCount)
			r.Get("/{id}", s.playersHandler.HandleGet)
			r.With(s.auth.RequireAdmin).Delete("/", s.playersHandler.HandleReset)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Post("/", s.matchesHandler.HandleReport)
			r.Get("/", s.matchesHandler.HandleList)
			r.With(s.auth.RequireAdmin).Delete("/", s.matchesHandler.HandleReset)
		})

		r.Get("/standings", s.standingsHandler.HandleStandings)
		r.Get("/pairings", s.standingsHandler.HandlePairings)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/token", s.auth.HandleToken)
			r.With(s.auth.RequireAdmin).Post("/snapshots", s.snapshotsHandler.HandleExport)
		})
	})
}
