package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
)

const backendLabel = "postgres"

// MetricsTracer implements pgx.QueryTracer to record queries in the storage metrics.
type MetricsTracer struct {
	m *metrics.StorageMetrics
}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

func NewMetricsTracer(m *metrics.StorageMetrics) *MetricsTracer {
	return &MetricsTracer{m: m}
}

type queryContextKey struct{}

type queryContext struct {
	startTime time.Time
	queryName string
}

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryContext{
		startTime: time.Now(),
		queryName: extractQueryName(data.SQL),
	})
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qctx, ok := ctx.Value(queryContextKey{}).(queryContext)
	if !ok {
		return
	}

	status := "success"
	if data.Err != nil {
		status = "error"
	}
	t.m.OpsTotal.WithLabelValues(backendLabel, qctx.queryName, status).Inc()
	t.m.OpDuration.WithLabelValues(backendLabel, qctx.queryName).Observe(time.Since(qctx.startTime).Seconds())
}

// extractQueryName keeps the leading SQL verb so metric labels stay low-cardinality.
func extractQueryName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
