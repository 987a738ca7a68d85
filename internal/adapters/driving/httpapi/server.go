package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOptions holds HTTP server parameters.
type ServerOptions struct {
	// Addr is the listen address.
	Addr string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server wraps the HTTP server and its router.
type Server struct {
	httpServer      *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration
}

// NewServer assembles the router and creates the server. The handler's
// endpoints sit under /api/v1; health and metrics are unversioned.
func NewServer(opts ServerOptions, handler *Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	router := chi.NewRouter()
	router.Use(ClientIdentity)
	router.Use(Metrics)
	router.Use(RequestLogger(log))

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", handler.uploadDocument)
		r.Get("/documents", handler.listDocuments)
		r.Get("/documents/{id}", handler.getDocument)
		r.Delete("/documents/{id}", handler.deleteDocument)
		r.Post("/questions", handler.askQuestion)
		r.Get("/quota", handler.getQuota)
	})

	router.Get("/healthz", handler.healthz)
	router.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		log:             log,
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Handler returns the assembled router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
