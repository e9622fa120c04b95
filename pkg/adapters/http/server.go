// Package http exposes a hive over HTTP: the mesh router, control endpoints,
// a websocket push channel and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/hivemesh/internal/logging"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Orchestrator is the hive surface the router needs.
type Orchestrator interface {
	Boot(ctx context.Context, config any) error
	CreateShard(ctx context.Context, def any) (domain.ShardSummary, error)
	DeleteShard(ctx context.Context, id string) error
	RouteToShard(ctx context.Context, shard, method, path string, data any) (any, error)
	Status() domain.Status
	ListShards() []domain.ShardSummary
}

// Server holds the router dependencies.
type Server struct {
	Hive    Orchestrator
	Streams *StreamManager
	Logger  *slog.Logger
	Version string
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks are installed on the hive.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		if sm != nil {
			s.Streams = sm
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.Logger = l
		}
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// NewServer creates a Server.
func NewServer(hive Orchestrator, opts ...Option) *Server {
	s := &Server{
		Hive:    hive,
		Streams: NewStreamManager(),
		Logger:  logging.NewNop(),
		Version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for hive.
func NewHandler(hive Orchestrator, opts ...Option) http.Handler {
	return NewServer(hive, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Post("/boot", s.PostBoot)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/shards", func(r chi.Router) {
		r.Get("/", s.ListShards)
		r.Post("/", s.CreateShard)
		r.Get("/{id}", s.GetShard)
		r.Get("/{id}/view", s.GetShardView)
		r.Delete("/{id}", s.DeleteShard)
	})

	r.Get("/events/{shardId}", s.SubscribeEvents)
	r.Get("/mesh/ws", s.ServeWS)
	r.HandleFunc("/mesh/*", s.Mesh)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// definitionStatus maps orchestrator errors of control endpoints to a status.
func definitionStatus(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDecode), errors.Is(err, domain.ErrInvalidDefinition):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "hivemesh-http",
		"version": s.Version,
		"hive":    s.Hive.Status().ID,
	})
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Hive.Status())
}
