// Package httpserver serves health, version, status and metrics endpoints
// while the bot runs in serve mode.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/app"
)

type statusSource interface {
	Status(ctx context.Context) (app.Status, error)
}

type Config struct {
	Addr string
	// StatusRate and StatusBurst limit /status per client IP.
	StatusRate  float64
	StatusBurst int
}

type Server struct {
	echo   *echo.Echo
	config Config

	status         statusSource
	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	healthChecks   []HealthCheck
	startTime      time.Time
}

// NewServer wires the routes. metricsHandler and httpMetrics may be nil.
func NewServer(cfg Config, status statusSource, metricsHandler http.Handler, httpMetrics *metrics.HTTPMetrics, healthChecks []HealthCheck) *Server {
	if cfg.StatusRate <= 0 {
		cfg.StatusRate = 1
	}
	if cfg.StatusBurst <= 0 {
		cfg.StatusBurst = 5
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		status:         status,
		metricsHandler: metricsHandler,
		httpMetrics:    httpMetrics,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.config.Addr)
	if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
