// Package api provides the HTTP surface of the service: the REST API for
// auth, user lookup, and attachment transfer, plus the mount point for the
// websocket gateway. One chi router and one listener serve both.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kyberchat/kyberchat/internal/logger"
)

// Server hosts the REST API and the websocket gateway on one listener.
//
// The server supports graceful shutdown: REST requests drain through
// http.Server.Shutdown, while in-flight websocket sessions are closed by
// the gateway itself (hijacked connections are outside Shutdown's reach).
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a new HTTP server around an already-built router.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
//
// Connection-level read and write timeouts stay unset on purpose:
// attachment uploads may stream for minutes and websocket sessions for
// hours. Per-route deadlines live in the router; the header read is still
// bounded here.
func NewServer(config Config, handler http.Handler) *Server {
	config.applyDefaults()

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		config: config,
	}
}

// Start serves until the context is cancelled or the listener fails.
//
// Cancellation triggers a graceful shutdown bounded by the configured
// shutdown timeout; Start returns the drain's outcome once it completes.
func (s *Server) Start(ctx context.Context) error {
	// Turn context cancellation into a shutdown call. The drain gets a
	// fresh context: the cancelled one would abort it immediately.
	drained := make(chan error, 1)
	stop := context.AfterFunc(ctx, func() {
		logger.Info("server shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		drained <- s.Stop(drainCtx)
	})

	logger.Info("server listening", logger.Port(s.config.Port))

	err := s.server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		stop()
		return fmt.Errorf("server failed: %w", err)
	}

	// ErrServerClosed means a shutdown is in flight. If it came from the
	// context, wait for the drain and report how it went.
	if !stop() {
		return <-drained
	}
	return nil
}

// Stop drains the server: the listener closes at once, in-flight requests
// run to completion or until ctx expires.
//
// Safe to call more than once and concurrently with Start; only the first
// call performs the shutdown.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Debug("server shutdown initiated")

		if err = s.server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", logger.Err(err))
			err = fmt.Errorf("server shutdown error: %w", err)
			return
		}
		logger.Info("server stopped gracefully")
	})
	return err
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
