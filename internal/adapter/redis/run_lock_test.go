package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLock_Exclusive(t *testing.T) {
	mr, rdb := newMiniredis(t)
	ctx := context.Background()

	first := NewRunLock(rdb, time.Minute)
	second := NewRunLock(rdb, time.Minute)

	ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	owner, err := mr.Get(runLockKey)
	require.NoError(t, err)
	assert.Equal(t, first.Owner(), owner)
	assert.Equal(t, time.Minute, mr.TTL(runLockKey))
}

func TestRunLock_ReleaseOnlyOwnLease(t *testing.T) {
	mr, rdb := newMiniredis(t)
	ctx := context.Background()

	first := NewRunLock(rdb, time.Minute)
	second := NewRunLock(rdb, time.Minute)

	ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, second.Release(ctx))
	assert.True(t, mr.Exists(runLockKey), "foreign release must not delete the lease")

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists(runLockKey))

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunLock_ExpiredLeaseCanBeTaken(t *testing.T) {
	mr, rdb := newMiniredis(t)
	ctx := context.Background()

	crashed := NewRunLock(rdb, time.Minute)
	ok, err := crashed.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = NewRunLock(rdb, time.Minute).TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunLock_DefaultTTL(t *testing.T) {
	_, rdb := newMiniredis(t)
	assert.Equal(t, DefaultLockTTL, NewRunLock(rdb, 0).ttl)
}

func TestRunLock_BackendDown(t *testing.T) {
	mr, rdb := newMiniredis(t)
	mr.Close()

	ok, err := NewRunLock(rdb, time.Minute).TryAcquire(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}
