// Package server exposes the hosting surface of the runner: a webhook
// endpoint that turns host events into pipeline runs, and a read API over
// stored run reports.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/conveyorci/conveyor/internal/pipeline"
	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/storage"
)

type Server struct {
	Router    *chi.Mux
	Port      int
	logger    *slog.Logger
	runner    *runner.Runner
	store     storage.RunStore
	pipelines []*pipeline.Pipeline
}

// New builds the router with the standard middleware chain and API routes.
func New(port int, logger *slog.Logger, r *runner.Runner, store storage.RunStore, pipelines []*pipeline.Pipeline) *Server {
	mux := chi.NewRouter()

	// Apply middleware in order
	mux.Use(RequestIDMiddleware)
	mux.Use(LoggingMiddleware(logger))
	mux.Use(TimeoutMiddleware(15 * time.Minute))
	mux.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	mux.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "conveyor")
	})

	s := &Server{
		Router:    mux,
		Port:      port,
		logger:    logger,
		runner:    r,
		store:     store,
		pipelines: pipelines,
	}

	mux.Get("/healthz", s.handleHealth)
	mux.Route("/api/v1", func(api chi.Router) {
		api.Post("/events", s.handleEvent)
		api.Get("/runs", s.handleListRuns)
		api.Get("/runs/{id}", s.handleGetRun)
	})

	return s
}

func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	return http.ListenAndServe(fmt.Sprintf(":%d", s.Port), s.Router)
}
