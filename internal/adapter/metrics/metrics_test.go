package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_ServesRuntimeMetrics(t *testing.T) {
	reg := NewRegistry()
	NewCycleMetrics(reg).CyclesTotal.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Contains(t, rec.Body.String(), `gomining_bot_cycles_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `gomining_bot_build_info{commit="unknown"`)
}

func TestStorageMetrics_ObserveBreaker(t *testing.T) {
	m := NewStorageMetrics(NewRegistry())

	m.ObserveBreaker("redis", circuitbreaker.OpenState)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerStateChanges.WithLabelValues("redis", "open")))

	m.ObserveBreaker("redis", circuitbreaker.HalfOpenState)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("redis")))

	m.ObserveBreaker("redis", circuitbreaker.ClosedState)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("redis")))
}

func TestUpstreamMetrics_Observe(t *testing.T) {
	m := NewUpstreamMetrics(NewRegistry())

	m.Observe("gemini", "generate", 0.2, nil)
	m.Observe("x", "reply", 0.4, errors.New("503"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("gemini", "generate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("x", "reply", "error")))
}

func TestHTTPMetrics_MiddlewareSkipsHealth(t *testing.T) {
	m := NewHTTPMetrics(NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/status", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/health/live", "/status", "/status"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/status", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/health/live", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestHTTPMetrics_UncommittedHTTPError(t *testing.T) {
	m := NewHTTPMetrics(NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/status", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "status not available")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/status", "404")))
}
