// Package server wires the HTTP handlers into a chi router and runs the
// http.Server that serves them.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/mri-tumor-api/internal/config"
	"github.com/Brownie44l1/mri-tumor-api/internal/handlers"
	"github.com/Brownie44l1/mri-tumor-api/internal/metrics"
)

// Server owns the router and the underlying http.Server.
type Server struct {
	cfg        config.Config
	handler    *handlers.Handler
	metrics    *metrics.Metrics
	router     chi.Router
	httpServer *http.Server
}

// New builds the router. m may be nil to disable /metrics and request
// metrics.
func New(cfg config.Config, h *handlers.Handler, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		handler: h,
		metrics: m,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	var obs RequestObserver
	if s.metrics != nil {
		obs = s.metrics
	}
	r.Use(requestIDMiddleware)
	r.Use(loggerMiddleware(obs))
	r.Use(recoverMiddleware)
	if s.cfg.Server.EnableCORS {
		r.Use(corsMiddleware)
	}

	r.NotFound(s.handler.NotFound)

	r.Get("/", s.handler.Index)
	r.With(bodyLimit(s.cfg.Server.MaxUploadBytes, s.handler.PayloadTooLarge)).
		Post("/predict", s.handler.Predict)
	r.Get("/api/statistics", s.handler.Statistics)
	r.Get("/api/classes", s.handler.Classes)
	r.Get("/test-image", s.handler.TestImage)
	r.Get("/health", s.handler.Health)
	r.Get("/favicon.ico", s.handler.Favicon)

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics.Handler())
	}
	return r
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens in a background goroutine and returns immediately.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	return nil
}

// Stop waits up to 30 seconds for in-flight requests, then closes.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	log.Info("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Errorf("HTTP server forced to shutdown: %v", err)
		return err
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}
