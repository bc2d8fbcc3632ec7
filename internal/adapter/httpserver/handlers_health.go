package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/version"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck probes one state backend.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type livenessResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime"`
}

// readinessResponse lists every check so an operator can see whether the
// marker, the ledger or both are unreachable.
type readinessResponse struct {
	Status      string            `json:"status"`
	FailedCheck string            `json:"failed_check,omitempty"`
	Checks      map[string]string `json:"checks,omitempty"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return writeJSON(c, http.StatusOK, livenessResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ready"}
	if len(s.healthChecks) > 0 {
		resp.Checks = make(map[string]string, len(s.healthChecks))
	}
	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			resp.Checks[hc.Name] = err.Error()
			if resp.FailedCheck == "" {
				resp.FailedCheck = hc.Name
			}
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}

	code := http.StatusOK
	if resp.FailedCheck != "" {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	return writeJSON(c, code, resp)
}

func (s *Server) handleVersion(c echo.Context) error {
	return writeJSON(c, http.StatusOK, version.Get())
}

func writeJSON(c echo.Context, code int, v any) error {
	if err := c.JSON(code, v); err != nil {
		return fmt.Errorf("failed to write %s response: %w", c.Path(), err)
	}
	return nil
}
