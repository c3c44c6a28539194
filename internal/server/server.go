// Package server exposes the comictools operations over HTTP.
//
// Every request carries one page (PNG or document JSON) in its body and
// gets the transformed page back in the same format, unless the format
// query parameter asks for the other one. Requests never share a document;
// results of the OCR and upscale engines are shared through the runner's
// cache.
//
// # Routes
//
//	GET  /healthz      liveness and build version
//	GET  /v1/fonts     fonts available for OCR text layers
//	POST /v1/bleed     ?left=&right=&top=&bottom= or ?margin=
//	POST /v1/ocr       ?select=x,y,w,h (repeatable)&layer=&font=&group=&mode=&lang=&line_by_line=&engine=
//	POST /v1/upscale   ?scale=&engine=
//
// Errors are JSON objects of the form {"error": {"code": "...", "message": "..."}}.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/comictools/pkg/config"
	"github.com/matzehuels/comictools/pkg/pipeline"
)

// Timeouts for the HTTP server. Writes get long because OCR and upscaling
// of large pages run inside the request.
const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	cfg    config.Config
	logger *log.Logger
	router chi.Router
}

// New creates a server that runs operations through runner, with defaults
// and tool paths from cfg.
func New(runner *pipeline.Runner, cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(serverHeader)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/fonts", s.handleFonts)
		r.Group(func(r chi.Router) {
			r.Use(s.limitBody)
			r.Post("/bleed", s.handleOperation(pipeline.OpBleed))
			r.Post("/ocr", s.handleOperation(pipeline.OpOCR))
			r.Post("/upscale", s.handleOperation(pipeline.OpUpscale))
		})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, letting in-flight requests finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
