// Package api exposes the registry over HTTP: profiles, the room
// directory and match history. Peers talk to each other over the
// pub/sub channel; this server only handles the out-of-band bits.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ServerConfig controls the registry's HTTP listener. Registry calls
// are small JSON exchanges, so the timeouts are short; ShutdownTimeout
// bounds how long in-flight requests may linger once a stop is asked.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig listens on all interfaces at port 8080
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server runs the registry's HTTP listener and shuts it down cleanly
// so room heartbeats and match submissions in flight are not dropped.
type Server struct {
	server *http.Server
	logger *slog.Logger
	config ServerConfig
}

// NewServer wraps the registry router in a configured listener
func NewServer(handler http.Handler, config ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		logger: logger,
		config: config,
	}
}

// Start serves registry requests until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("registry listening", slog.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("registry server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits, up to the configured
// timeout, for in-flight registry calls to finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("registry shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("registry shutdown: %w", err)
	}

	s.logger.Info("registry stopped")
	return nil
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.server.Addr
}
