package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

const (
	runLockKey = keyPrefix + "run:lock"
	// DefaultLockTTL bounds how long a crashed run can block the next one.
	DefaultLockTTL = 10 * time.Minute
)

// Delete only if we still own the lease.
var releaseScript = goredis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RunLock is a lease taken with SET NX PX. Each RunLock has its own owner
// token, so one instance can never release another's lease.
type RunLock struct {
	rdb   *goredis.Client
	key   string
	owner string
	ttl   time.Duration
}

func NewRunLock(rdb *goredis.Client, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RunLock{
		rdb:   rdb,
		key:   runLockKey,
		owner: uuid.NewString(),
		ttl:   ttl,
	}
}

func (l *RunLock) Owner() string {
	return l.owner
}

func (l *RunLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return ok, nil
}

func (l *RunLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

var _ domain.RunLock = (*RunLock)(nil)
