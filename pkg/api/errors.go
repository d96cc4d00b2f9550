package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/lendwise/loanflow/pkg/models"
	"github.com/lendwise/loanflow/pkg/session"
)

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *echo.HTTPError {
	var fieldErr *models.FieldError
	if errors.As(err, &fieldErr) {
		return echo.NewHTTPError(http.StatusBadRequest, fieldErr.Error())
	}
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
