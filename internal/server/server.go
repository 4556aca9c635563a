// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"

	"github.com/jonwraymond/snippetexec/exec"
)

// Engine is the part of exec.Exec the server uses.
type Engine interface {
	ExecuteParams(ctx context.Context, params exec.Params) (exec.Result, error)
	ExecuteLegacy(ctx context.Context, src string) any
	SearchFunctions(ctx context.Context, query string, limit int) ([]exec.FunctionSummary, error)
	DescribeFunction(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error)
	Functions() []model.Tool
}

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Server is the HTTP API of the snippet engine.
type Server struct {
	engine Engine
	logger *slog.Logger
	router chi.Router
	http   *http.Server
}

// New creates a new Server.
func New(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		engine: engine,
		logger: logger,
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Post("/execute", s.handleExecute)
		r.Get("/functions", s.handleListFunctions)
		r.Get("/functions/{id}", s.handleDescribeFunction)
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("snippetexec server starting", "addr", addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
