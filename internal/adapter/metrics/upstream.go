package metrics

import "github.com/prometheus/client_golang/prometheus"

// UpstreamMetrics holds Prometheus metrics for calls to the generative and
// social network APIs.
type UpstreamMetrics struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	RetriesTotal *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics on the given registry.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total number of upstream API calls, by service, operation and status.",
		}, []string{"service", "operation", "status"}),
		CallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Duration of upstream API calls in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"service", "operation"}),
		RetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Total number of upstream call retries, by service.",
		}, []string{"service"}),
	}

	reg.MustRegister(m.CallsTotal, m.CallDuration, m.RetriesTotal)
	return m
}

// Observe records one finished call.
func (m *UpstreamMetrics) Observe(service, operation string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.CallsTotal.WithLabelValues(service, operation, status).Inc()
	m.CallDuration.WithLabelValues(service, operation).Observe(seconds)
}
