package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

var (
	testRedisURL string
	redContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redContainer, err = redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	code := m.Run()
	if err := redContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
	}
	os.Exit(code)
}

func setupTestClient(t *testing.T, hooks ...goredis.Hook) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testRedisURL, hooks...)
	require.NoError(t, err)
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestNewClient_Connects(t *testing.T) {
	client := setupTestClient(t, NewCircuitBreakerHook(nil))
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestIntegration_StateStoreAndLock(t *testing.T) {
	client := setupTestClient(t, NewCircuitBreakerHook(nil))
	ctx := context.Background()

	ledger := NewStateStore(client, "replied_ids")
	_, err := ledger.Read(ctx)
	require.ErrorIs(t, err, domain.ErrStateAbsent)
	require.NoError(t, ledger.Append(ctx, []byte("1\n")))
	require.NoError(t, ledger.Append(ctx, []byte("2\n")))
	data, err := ledger.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(data))

	lock := NewRunLock(client, time.Minute)
	ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := client.TTL(ctx, runLockKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl.Seconds(), 50.0)

	require.NoError(t, lock.Release(ctx))
	exists, err := client.Exists(ctx, runLockKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
