// Package memstore provides in-memory state stores and run locks for a single
// process. Stores can be told to fail so callers' error paths can be exercised.
package memstore

import (
	"context"
	"sync"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

type Store struct {
	mu     sync.Mutex
	data   []byte
	exists bool

	// Injected failures, returned as-is when set.
	ReadErr   error
	WriteErr  error
	AppendErr error
}

func New() *Store {
	return &Store{}
}

// NewWithContent returns a store that already holds content.
func NewWithContent(content string) *Store {
	return &Store{data: []byte(content), exists: true}
}

func (s *Store) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	if !s.exists {
		return nil, domain.ErrStateAbsent
	}
	return append([]byte(nil), s.data...), nil
}

func (s *Store) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.data = append([]byte(nil), data...)
	s.exists = true
	return nil
}

func (s *Store) Append(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.data = append(s.data, data...)
	s.exists = true
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ReadErr
}

// Content returns the stored bytes as a string.
func (s *Store) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data)
}

// Lock is a process-local RunLock.
type Lock struct {
	mu   sync.Mutex
	held bool

	AcquireErr error
	// Releases counts successful releases.
	Releases int
}

func NewLock() *Lock {
	return &Lock{}
}

func (l *Lock) TryAcquire(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.AcquireErr != nil {
		return false, l.AcquireErr
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *Lock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		l.held = false
		l.Releases++
	}
	return nil
}

// Held reports whether the lock is currently taken.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

var (
	_ domain.StateStore    = (*Store)(nil)
	_ domain.HealthChecker = (*Store)(nil)
	_ domain.RunLock       = (*Lock)(nil)
)
