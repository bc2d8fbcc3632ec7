package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

const (
	selectState = `SELECT content FROM bot_state WHERE name = $1`

	upsertState = `
		INSERT INTO bot_state (name, content) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET content = excluded.content, updated_at = now()`

	// Concatenation happens inside one statement, so concurrent appends never
	// lose records.
	appendState = `
		INSERT INTO bot_state (name, content) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET content = bot_state.content || excluded.content, updated_at = now()`
)

// StateStore keeps one piece of bot state in a bot_state row.
type StateStore struct {
	pool *pgxpool.Pool
	name string
}

func NewStateStore(pool *pgxpool.Pool, name string) *StateStore {
	return &StateStore{pool: pool, name: name}
}

func (s *StateStore) Read(ctx context.Context) ([]byte, error) {
	var content string
	err := s.pool.QueryRow(ctx, selectState, s.name).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStateAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %q: %w", s.name, err)
	}
	return []byte(content), nil
}

func (s *StateStore) Write(ctx context.Context, data []byte) error {
	if _, err := s.pool.Exec(ctx, upsertState, s.name, string(data)); err != nil {
		return fmt.Errorf("failed to write state %q: %w", s.name, err)
	}
	return nil
}

func (s *StateStore) Append(ctx context.Context, data []byte) error {
	if _, err := s.pool.Exec(ctx, appendState, s.name, string(data)); err != nil {
		return fmt.Errorf("failed to append state %q: %w", s.name, err)
	}
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var (
	_ domain.StateStore    = (*StateStore)(nil)
	_ domain.HealthChecker = (*StateStore)(nil)
)
