// Package api is the HTTP surface: the chat endpoint driving the intake
// conversation and assessment pipeline, session administration, and health.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/lendwise/loanflow/pkg/config"
	"github.com/lendwise/loanflow/pkg/masking"
	"github.com/lendwise/loanflow/pkg/orchestrator"
)

// Server is the HTTP API server.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	masker       *masking.Service
	settings     *config.Settings

	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates the API server and registers all routes.
func NewServer(o *orchestrator.Orchestrator, masker *masking.Service, settings *config.Settings) *Server {
	s := &Server{
		orchestrator: o,
		masker:       masker,
		settings:     settings,
		echo:         echo.New(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.Use(securityHeaders())
	e.Use(corsAllowList(s.settings.Server.CORSOrigins))

	e.GET("/health", s.healthHandler)
	e.POST("/api/chat", s.chatHandler)
	e.GET("/api/sessions", s.listSessionsHandler)
	e.GET("/api/sessions/:id", s.getSessionHandler)
	e.DELETE("/api/sessions/:id", s.deleteSessionHandler)
	e.POST("/api/sessions/cleanup", s.cleanupSessionsHandler)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
