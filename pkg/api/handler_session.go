package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/lendwise/loanflow/pkg/session"
)

// defaultCleanupAgeHours applies when POST /api/sessions/cleanup omits
// max_age_hours.
const defaultCleanupAgeHours = 24

// listSessionsHandler handles GET /api/sessions. Collected data is masked
// before leaving the process.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	snapshots := s.orchestrator.Store().List()
	for i := range snapshots {
		snapshots[i] = s.maskSnapshot(snapshots[i])
	}
	return c.JSON(http.StatusOK, &SessionListResponse{
		Sessions: snapshots,
		Count:    len(snapshots),
	})
}

// getSessionHandler handles GET /api/sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	snap, err := s.orchestrator.InspectSession(sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, s.maskSnapshot(snap))
}

// deleteSessionHandler handles DELETE /api/sessions/:id.
func (s *Server) deleteSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	if err := s.orchestrator.Store().Delete(sessionID); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// cleanupSessionsHandler handles POST /api/sessions/cleanup: evict sessions
// idle longer than max_age_hours (default 24).
func (s *Server) cleanupSessionsHandler(c *echo.Context) error {
	req := CleanupRequest{MaxAgeHours: defaultCleanupAgeHours}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.MaxAgeHours <= 0 {
		req.MaxAgeHours = defaultCleanupAgeHours
	}

	removed := s.orchestrator.Store().Cleanup(time.Duration(req.MaxAgeHours) * time.Hour)
	return c.JSON(http.StatusOK, &CleanupResponse{
		Removed:     removed,
		MaxAgeHours: req.MaxAgeHours,
	})
}

func (s *Server) maskSnapshot(snap session.Snapshot) session.Snapshot {
	snap.CollectedData = s.masker.Collected(snap.CollectedData)
	snap.Error = s.masker.Text(snap.Error)
	return snap
}
