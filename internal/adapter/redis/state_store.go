package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

const keyPrefix = "gomining:"

// StateStore keeps one piece of bot state in a Redis string. The ledger uses
// APPEND, which is atomic on the server.
type StateStore struct {
	rdb *goredis.Client
	key string
}

// NewStateStore stores state under "gomining:" + name.
func NewStateStore(rdb *goredis.Client, name string) *StateStore {
	return &StateStore{rdb: rdb, key: stateKey(name)}
}

func (s *StateStore) Key() string {
	return s.key
}

func (s *StateStore) Read(ctx context.Context) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrStateAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.key, err)
	}
	return data, nil
}

func (s *StateStore) Write(ctx context.Context, data []byte) error {
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	return nil
}

func (s *StateStore) Append(ctx context.Context, data []byte) error {
	if err := s.rdb.Append(ctx, s.key, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to append to %s: %w", s.key, err)
	}
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func stateKey(name string) string {
	return keyPrefix + "state:" + name
}

var (
	_ domain.StateStore    = (*StateStore)(nil)
	_ domain.HealthChecker = (*StateStore)(nil)
)
