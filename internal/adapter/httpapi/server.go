// Package httpapi is the admin HTTP surface for the assoctable server:
// health/readiness probes, a Prometheus scrape endpoint, and per-collection
// stats. Grounded on oldsrc/internal/adapter/http/server.go's Server type,
// ServerConfig, and middleware-chain construction, narrowed to this
// repository's single-tenant admin API (no per-tenant routing).
package httpapi

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

// Config configures the admin HTTP server.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns production-sane timeouts; callers still need to
// set Addr.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// StatsProvider is the read-only view into the running server this
// package needs to answer /v1/collections/{name}/stats and
// /v1/collections/{name}/index/{attribute}/{value}.
type StatsProvider interface {
	CollectionNames() []string
	CollectionStats(name string) (any, bool)
	IndexLookup(collection, attribute, value string) ([]uint64, bool)
}

// Server wraps a gorilla/mux router serving the admin API.
type Server struct {
	config     Config
	router     *mux.Router
	stats      StatsProvider
	httpServer *http.Server
	ready      atomic.Bool
}

// NewServer builds an admin server around the given StatsProvider. The
// server starts not-ready; call SetReady(true) once startup (catalog
// connection, collection replay) completes.
func NewServer(config Config, stats StatsProvider) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		stats:  stats,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.buildMiddlewareChain(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) buildMiddlewareChain() http.Handler {
	var h http.Handler = s.router
	h = RecoveryMiddleware(h)
	h = LoggingMiddleware(h)
	h = RequestIDMiddleware(h)
	h = SecurityHeadersMiddleware(h)
	return h
}

// Handler returns the fully wrapped handler, for use with httptest.
func (s *Server) Handler() http.Handler { return s.buildMiddlewareChain() }

// SetReady flips the readiness state reported by GET /ready.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

// ListenAndServe blocks serving the admin API until Shutdown is called.
func (s *Server) ListenAndServe() error {
	log.Printf("[httpapi] listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests within the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
