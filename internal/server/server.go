// Package server exposes extraction over HTTP.
//
// Routes:
//
//	POST /v1/extract   PNG body or multipart field "image" -> {id, workflow, positive, negative}
//	POST /v1/export    PNG -> canonical workflow JSON as an attachment (?filename=name.json)
//	POST /v1/render    PNG -> DOT or SVG (?format=dot|svg&detailed=true&polarity=true)
//	GET  /healthz      liveness and build info
//
// Extraction failures are reported as 422 with {code, message}.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/comfyscope/pkg/config"
	"github.com/matzehuels/comfyscope/pkg/pipeline"
)

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	cfg      config.ServerConfig
	classify config.ClassifyConfig
	filename string
	logger   *log.Logger
}

// New creates a server. cfg must be finalized.
func New(runner *pipeline.Runner, cfg *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:   runner,
		cfg:      cfg.Server,
		classify: cfg.Classify,
		filename: cfg.Export.Filename,
		logger:   logger.WithPrefix("http"),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Post("/export", s.handleExport)
		r.Post("/render", s.handleRender)
	})
	return r
}

// Run listens on the configured address until ctx is canceled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like [Server.Run] but accepts connections on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeoutDuration(),
		WriteTimeout: s.cfg.WriteTimeoutDuration(),
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if d := s.cfg.ShutdownTimeoutDuration(); d > 0 {
		return d
	}
	return 10 * time.Second
}
