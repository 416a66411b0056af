// Package api serves route checks and stop queries as a JSON HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/disruption-cli/internal/disruption"
	"github.com/sells-group/disruption-cli/internal/monitoring"
	"github.com/sells-group/disruption-cli/internal/planner"
)

// Service is the planner surface the API exposes.
type Service interface {
	Check(ctx context.Context, req planner.Request) (*planner.Plan, error)
	NearbyStops(ctx context.Context, req planner.StopsRequest) (*planner.StopsResult, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handlers and their dependencies.
type Server struct {
	svc           Service
	metrics       *monitoring.Metrics
	health        Pinger
	origins       []string
	defaultRadius float64
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and mounts /metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealthCheck makes /health ping p.
func WithHealthCheck(p Pinger) Option {
	return func(s *Server) { s.health = p }
}

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithDefaultRadius sets the stop query radius used when none is given.
func WithDefaultRadius(meters float64) Option {
	return func(s *Server) {
		if meters > 0 {
			s.defaultRadius = meters
		}
	}
}

// NewServer creates a Server over svc.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:           svc,
		origins:       []string{"*"},
		defaultRadius: disruption.DefaultRadiusMeters,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(chimw.AllowContentType("application/json"))
		r.Post("/disruptions", s.handleCheck)
		r.Get("/stops", s.handleStops)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "error",
				"error":  "store unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
