package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleStatus(c echo.Context) error {
	if s.status == nil {
		return echo.NewHTTPError(http.StatusNotFound, "status not available")
	}

	st, err := s.status.Status(c.Request().Context())
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, st)
}
