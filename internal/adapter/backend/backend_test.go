package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/memstore"
	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/config"
)

func TestOpen_File(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		StateBackend:   config.BackendFile,
		MarkerLocation: filepath.Join(dir, "last_post.txt"),
		LedgerLocation: filepath.Join(dir, "replied_ids.txt"),
		LockFile:       filepath.Join(dir, "bot.lock"),
	}

	b, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, config.BackendFile, b.Name)
	assert.Len(t, b.Checks, 2)
	require.NoError(t, b.Probe(context.Background()))

	ok, err := b.Lock.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Lock.Release(context.Background()))
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		StateBackend:   config.BackendRedis,
		RedisURL:       "redis://" + mr.Addr(),
		MarkerLocation: "last_post",
		LedgerLocation: "replied_ids",
	}
	sm := metrics.NewStorageMetrics(prometheus.NewRegistry())

	b, err := Open(context.Background(), cfg, sm)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.Marker.Write(ctx, []byte("2026-10-16_hour_14")))
	require.NoError(t, b.Ledger.Append(ctx, []byte("1\n")))
	require.NoError(t, b.Probe(ctx))
	for _, hc := range b.Checks {
		assert.NoError(t, hc.Check(ctx), hc.Name)
	}

	got, err := mr.Get("gomining:state:last_post")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16_hour_14", got)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StateBackend: "etcd"}, nil)
	assert.ErrorContains(t, err, "unknown STATE_BACKEND")
}

func TestProbe(t *testing.T) {
	b := &Backend{Marker: memstore.New(), Ledger: memstore.NewWithContent("1\n")}
	require.NoError(t, b.Probe(context.Background()))

	broken := memstore.New()
	broken.ReadErr = errors.New("permission denied")
	b.Ledger = broken
	assert.ErrorContains(t, b.Probe(context.Background()), "ledger unreadable")
}

func TestClose_Nil(t *testing.T) {
	var b *Backend
	assert.NotPanics(t, b.Close)
}
