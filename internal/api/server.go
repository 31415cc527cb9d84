package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/auth"
)

// Server is the HTTP API over the monitor's state table and live stream.
type Server struct {
	httpServer     *http.Server
	table          TablePort
	stream         *Stream
	authMiddleware *auth.Middleware
	startTime      time.Time
}

// NewServer creates the API server. authMiddleware may be nil, which
// leaves every endpoint open; the stream may be nil when streaming is
// not wired.
func NewServer(table TablePort, stream *Stream, authMiddleware *auth.Middleware) *Server {
	return &Server{
		table:          table,
		stream:         stream,
		authMiddleware: authMiddleware,
		startTime:      time.Now(),
	}
}

// Start serves on addr until Stop. It blocks, like ListenAndServe.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No write timeout: it would sever live event streams.
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
