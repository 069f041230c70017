// Package server exposes the courier hub REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/internal/service"
)

// Server is the HTTP server for the courier hub service.
type Server struct {
	port   int
	svc    *service.Service
	logger *otelzap.Logger
	router chi.Router
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, svc *service.Service, logger *otelzap.Logger) *Server {
	s := &Server{
		port:   cfg.Port,
		svc:    svc,
		logger: logger,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the HTTP handler tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/couriers", s.handleListCouriers)
		r.Get("/couriers/{provider}", s.handleGetCourier)

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", s.handleCreateShipment)
			r.Get("/{waybill}", s.handleGetShipment)
			r.Get("/{waybill}/track", s.handleTrackShipment)
			r.Get("/{waybill}/label", s.handleGetLabel)
			r.Delete("/{waybill}", s.handleCancelShipment)
		})
	})

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
