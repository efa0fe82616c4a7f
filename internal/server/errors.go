package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhle/geotask/internal/gateway"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps a gateway error kind to an HTTP status.
func statusFor(kind gateway.Kind) int {
	switch kind {
	case gateway.KindValidation:
		return http.StatusUnprocessableEntity
	case gateway.KindUnauthenticated:
		return http.StatusUnauthorized
	case gateway.KindPermissionDenied:
		return http.StatusForbidden
	case gateway.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c echo.Context, err error) error {
	kind := gateway.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "uri", c.Request().RequestURI, "error", err)
		msg = "internal error"
	}
	return c.JSON(status, errorResponse{Error: msg, Kind: kind.String()})
}

func errorJSON(c echo.Context, status int, kind gateway.Kind, msg string) error {
	return c.JSON(status, errorResponse{Error: msg, Kind: kind.String()})
}
