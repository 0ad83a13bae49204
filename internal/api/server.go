package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Blakeem/mdstore/internal/addressing"
	"github.com/Blakeem/mdstore/internal/config"
	"github.com/Blakeem/mdstore/internal/docstore"
	"github.com/Blakeem/mdstore/internal/metrics"
	"github.com/Blakeem/mdstore/internal/mutate"
)

// Server is the HTTP API server for mdstore.
type Server struct {
	router   chi.Router
	docs     *docstore.Manager
	resolver *addressing.Resolver
	engine   *mutate.Engine
	met      *metrics.Metrics
	gatherer prometheus.Gatherer
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(docs *docstore.Manager, resolver *addressing.Resolver, engine *mutate.Engine, met *metrics.Metrics, gatherer prometheus.Gatherer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		docs:     docs,
		resolver: resolver,
		engine:   engine,
		met:      met,
		gatherer: gatherer,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// API endpoints, authenticated when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/documents", s.handleGetDocument)
		r.Get("/api/sections", s.handleGetSection)
		r.Post("/api/sections/edit", s.handleEditSection)
		r.Post("/api/addresses/resolve", s.handleResolveAddress)
		r.Post("/api/cache/invalidate", s.handleInvalidate)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
