package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

const (
	// runLockID is the session-level advisory lock taken around a bot cycle.
	// Value: 0x676f6d72756e ("gomrun" in ASCII hex)
	runLockID             = 0x676f6d72756e
	runLockReleaseTimeout = 5 * time.Second
)

// RunLock holds pg_try_advisory_lock on a dedicated connection. Postgres drops
// the lock when that session ends, so a crashed run releases it too.
type RunLock struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	conn *pgxpool.Conn
}

func NewRunLock(pool *pgxpool.Pool) *RunLock {
	return &RunLock{pool: pool}
}

func (l *RunLock) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return false, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection for run lock: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", runLockID).Scan(&acquired); err != nil {
		conn.Release()
		return false, fmt.Errorf("failed to try run lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

func (l *RunLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil
	defer conn.Release()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runLockReleaseTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", runLockID); err != nil {
		slog.Error("Failed to release run lock", "error", err)
		// The session may still hold the lock; do not hand it back to the pool.
		_ = conn.Conn().Close(ctx)
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

var _ domain.RunLock = (*RunLock)(nil)
