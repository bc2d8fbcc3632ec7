package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	// A cycle needs one connection pinned by the run lock and one for state
	// reads and writes. The rest is headroom for /status and readiness probes.
	defaultMaxConns = 4
	defaultMinConns = 1

	versionTable = "public.gomining_schema_version"

	// migrationLockID is "gombot" in ASCII hex. It differs from runLockID so a
	// migration never waits on a running cycle.
	migrationLockID             = 0x676f6d626f74
	migrationLockReleaseTimeout = 5 * time.Second
)

// Connect opens a small pool and pings it. Pool sizes given in the URL
// (pool_max_conns, pool_min_conns) win over the defaults. tracer may be nil.
func Connect(ctx context.Context, databaseURL string, tracer pgx.QueryTracer) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	query := queryOf(databaseURL)
	if !query.Has("pool_max_conns") {
		poolCfg.MaxConns = defaultMaxConns
	}
	if !query.Has("pool_min_conns") {
		poolCfg.MinConns = defaultMinConns
	}
	if tracer != nil {
		poolCfg.ConnConfig.Tracer = tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("State database connected",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"sslmode", extractSSLMode(databaseURL),
		"max_conns", poolCfg.MaxConns)
	return pool, nil
}

func queryOf(databaseURL string) url.Values {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}

func extractSSLMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	if mode := strings.ToLower(u.Query().Get("sslmode")); mode != "" {
		return mode
	}
	return "prefer (default)"
}

// RunMigrationsWithLock brings bot_state up to date. Several bot processes
// may start against one database, so the migrator runs under an advisory lock.
func RunMigrationsWithLock(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	return withMigrationLock(ctx, conn.Conn(), func() error {
		return migrateSchema(ctx, conn.Conn())
	})
}

func migrateSchema(ctx context.Context, conn *pgx.Conn) error {
	migrationFS, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	migrator, err := migrate.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.LoadMigrations(migrationFS); err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	from, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		slog.Debug("Schema version unknown, assuming fresh database", "error", err)
	}
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if to := int32(len(migrator.Migrations)); to != from {
		slog.Info("State schema migrated", "from", from, "to", to)
	}
	return nil
}

func withMigrationLock(ctx context.Context, conn *pgx.Conn, fn func() error) error {
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), migrationLockReleaseTimeout)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			slog.Error("Failed to release migration lock", "error", err)
		}
	}()
	return fn()
}
