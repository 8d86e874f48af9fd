// Package api provides the operational HTTP surface: health, the monitored
// entity list and the latest pass report.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chanwatch/chanwatch/internal/logger"
)

// Dependencies contains all service dependencies.
type Dependencies struct {
	ChannelsRepo   ChannelsRepository
	Runner         PassReporter
	TelegramClient TelegramClient
	NATS           NATSConn // optional
}

// Server is the ops HTTP server.
type Server struct {
	http *http.Server
	deps *Dependencies
	log  *logger.Logger
}

// NewServer creates the ops server listening on the given port.
func NewServer(port int, deps *Dependencies, log *logger.Logger) *Server {
	s := &Server{deps: deps, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/entities", s.listEntities)
		r.Get("/passes/last", s.lastPass)
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start starts the API server and blocks until it is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("api: listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the underlying handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("api: failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
