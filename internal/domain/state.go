package domain

import "context"

// StateStore is one persisted location holding either the post marker or the
// reply ledger. Implementations exist for files, Redis, Postgres and S3.
type StateStore interface {
	// Read returns the full content, or ErrStateAbsent when nothing exists yet.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the content.
	Write(ctx context.Context, data []byte) error
	// Append adds data to the end, creating the location when needed.
	Append(ctx context.Context, data []byte) error
}

// RunLock is an advisory lock taken around one bot cycle.
type RunLock interface {
	// TryAcquire returns false without error when another run holds the lock.
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// HealthChecker reports whether a backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
