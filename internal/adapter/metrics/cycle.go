package metrics

import "github.com/prometheus/client_golang/prometheus"

// CycleMetrics holds Prometheus metrics for bot cycles and their actions.
type CycleMetrics struct {
	CyclesTotal       *prometheus.CounterVec
	CycleDuration     prometheus.Histogram
	PostsTotal        *prometheus.CounterVec
	RepliesTotal      *prometheus.CounterVec
	LikesTotal        *prometheus.CounterVec
	LastPostTimestamp prometheus.Gauge
	LedgerSize        prometheus.Gauge
}

// NewCycleMetrics creates and registers cycle metrics on the given registry.
func NewCycleMetrics(reg prometheus.Registerer) *CycleMetrics {
	m := &CycleMetrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of bot cycles, by result.",
		}, []string{"result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of bot cycles in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		PostsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_total",
			Help:      "Total number of post attempts, by outcome.",
		}, []string{"outcome"}),
		RepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Total number of mention replies, by outcome.",
		}, []string{"outcome"}),
		LikesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "likes_total",
			Help:      "Total number of mention likes, by outcome.",
		}, []string{"outcome"}),
		LastPostTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_post_timestamp_seconds",
			Help:      "Unix time of the last successful post.",
		}),
		LedgerSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_size",
			Help:      "Number of mention IDs in the reply ledger at the last mention pass.",
		}),
	}

	reg.MustRegister(m.CyclesTotal, m.CycleDuration, m.PostsTotal, m.RepliesTotal, m.LikesTotal, m.LastPostTimestamp, m.LedgerSize)
	return m
}
