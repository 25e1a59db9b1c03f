package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopping_app/internal/middleware/auth"
	"github.com/Skotchmaster/shopping_app/internal/service"
)

const msgInvalidCredentials = "Invalid email or password"

// fail logs err under "<op>_error" and turns it into the HTTP error the client sees.
// Unknown errors become a 500 carrying only internalMsg.
func fail(l *slog.Logger, op string, err error, internalMsg string) error {
	event := op + "_error"
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid credentials")
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials)
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", http.StatusBadRequest, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, service.Message(err, "invalid body"))
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", err.Error())
		return echo.NewHTTPError(http.StatusNotFound, service.Message(err, "not found"))
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", http.StatusConflict, "reason", err.Error())
		return echo.NewHTTPError(http.StatusConflict, service.Message(err, "conflict"))
	default:
		l.Error(event, "status", http.StatusInternalServerError, "reason", internalMsg, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, internalMsg)
	}
}

func badRequest(l *slog.Logger, op, msg string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// currentUser returns the id of the identity attached by the gate.
func currentUser(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return id.ID, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}
