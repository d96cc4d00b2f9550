package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

// healthHandler handles GET /health.
// Returns a minimal, safe response suitable for unauthenticated access.
// External dependencies (tool servers, the LLM service) are excluded so an
// orchestration layer never restarts loanflow over an unhealthy upstream.
func (s *Server) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &HealthResponse{
		Status: "healthy",
		Services: ServiceStatuses{
			Workflow:       s.orchestrator != nil,
			SessionManager: s.orchestrator != nil && s.orchestrator.Store() != nil,
			Framework:      true,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
