// Package backend opens the state store configured by STATE_BACKEND: the
// post marker, the reply ledger and the run lock that guards a cycle.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/filestore"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/postgres"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/redis"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/s3store"
	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/config"
)

const connectTimeout = 10 * time.Second

// HealthCheck pings one backend dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Backend struct {
	Name   string
	Marker domain.StateStore
	Ledger domain.StateStore
	Lock   domain.RunLock
	Checks []HealthCheck

	close func()
}

// Close releases connections. It is safe to call on a nil Backend.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// Open connects to the configured backend. sm may be nil.
func Open(ctx context.Context, cfg *config.Config, sm *metrics.StorageMetrics) (*Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var (
		b   *Backend
		err error
	)
	switch cfg.StateBackend {
	case config.BackendFile:
		b = openFile(cfg)
	case config.BackendRedis:
		b, err = openRedis(ctx, cfg, sm)
	case config.BackendPostgres:
		b, err = openPostgres(ctx, cfg, sm)
	case config.BackendS3:
		b, err = openS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("State backend ready", "backend", b.Name, "marker", cfg.MarkerLocation, "ledger", cfg.LedgerLocation)
	return b, nil
}

func openFile(cfg *config.Config) *Backend {
	marker := filestore.New(cfg.MarkerLocation)
	ledger := filestore.New(cfg.LedgerLocation)
	return &Backend{
		Name:   config.BackendFile,
		Marker: marker,
		Ledger: ledger,
		Lock:   filestore.NewLock(cfg.LockFile),
		Checks: []HealthCheck{
			{Name: "marker_store", Check: marker.Ping},
			{Name: "ledger_store", Check: ledger.Ping},
		},
	}
}

func openRedis(ctx context.Context, cfg *config.Config, sm *metrics.StorageMetrics) (*Backend, error) {
	onChange := func(state circuitbreaker.State) {
		if sm != nil {
			sm.ObserveBreaker(config.BackendRedis, state)
		}
	}
	breaker := redis.NewCircuitBreakerHook(onChange)

	hooks := []goredis.Hook{breaker}
	if sm != nil {
		hooks = append(hooks, redis.NewMetricsHook(sm))
	}

	rdb, err := redis.NewClient(ctx, cfg.RedisURL, hooks...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	marker := redis.NewStateStore(rdb, cfg.MarkerLocation)
	return &Backend{
		Name:   config.BackendRedis,
		Marker: marker,
		Ledger: redis.NewStateStore(rdb, cfg.LedgerLocation),
		Lock:   redis.NewRunLock(rdb, redis.DefaultLockTTL),
		Checks: []HealthCheck{
			{Name: "redis", Check: marker.Ping},
		},
		close: func() { _ = rdb.Close() },
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, sm *metrics.StorageMetrics) (*Backend, error) {
	// A nil *MetricsTracer must not reach pgx as a non-nil interface.
	var tracer pgx.QueryTracer
	if sm != nil {
		tracer = postgres.NewMetricsTracer(sm)
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	marker := postgres.NewStateStore(pool, cfg.MarkerLocation)
	return &Backend{
		Name:   config.BackendPostgres,
		Marker: marker,
		Ledger: postgres.NewStateStore(pool, cfg.LedgerLocation),
		Lock:   postgres.NewRunLock(pool),
		Checks: []HealthCheck{
			{Name: "postgres", Check: marker.Ping},
		},
		close: pool.Close,
	}, nil
}

func openS3(ctx context.Context, cfg *config.Config) (*Backend, error) {
	client, err := s3store.NewClient(ctx, s3store.Config{
		Bucket:    cfg.S3Bucket,
		Prefix:    cfg.S3Prefix,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}

	// Objects cannot be locked, so runs on one host serialise on a local flock.
	return &Backend{
		Name:   config.BackendS3,
		Marker: client.Store(cfg.MarkerLocation),
		Ledger: client.Store(cfg.LedgerLocation),
		Lock:   filestore.NewLock(cfg.LockFile),
		Checks: []HealthCheck{
			{Name: "s3", Check: client.Ping},
		},
	}, nil
}

// Probe reads the marker and the ledger. Absent state is not an error.
func (b *Backend) Probe(ctx context.Context) error {
	if _, err := b.Marker.Read(ctx); err != nil && !errors.Is(err, domain.ErrStateAbsent) {
		return fmt.Errorf("marker unreadable: %w", err)
	}
	if _, err := b.Ledger.Read(ctx); err != nil && !errors.Is(err, domain.ErrStateAbsent) {
		return fmt.Errorf("ledger unreadable: %w", err)
	}
	return nil
}
