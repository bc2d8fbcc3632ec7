package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics covers the serve-mode endpoints. Probes and scrapes are not
// recorded, so the series only move when someone reads /status or /version.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		// /status reads both state backends, so its latency follows theirs.
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"route"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

func observed(route string) bool {
	return route != "/metrics" && !strings.HasPrefix(route, "/health/")
}

// Middleware records every request whose matched route is observed. Unknown
// paths are grouped under "unmatched" to keep label cardinality bounded.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if !observed(route) {
				return next(c)
			}
			if route == "" {
				route = "unmatched"
			}

			start := time.Now()
			err := next(c)

			code := c.Response().Status
			var he *echo.HTTPError
			if err != nil && !c.Response().Committed {
				code = http.StatusInternalServerError
				if errors.As(err, &he) {
					code = he.Code
				}
			}
			m.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
			m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
