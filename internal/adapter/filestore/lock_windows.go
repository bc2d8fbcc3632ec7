//go:build windows

package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

// Lock creates the lock file exclusively. Unlike flock it survives a crash, so
// a stale file has to be removed by hand.
type Lock struct {
	path string

	mu   sync.Mutex
	held bool
}

func NewLock(path string) *Lock {
	return &Lock{path: path}
}

func (l *Lock) TryAcquire(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return false, nil
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock file: %w", err)
	}
	_, _ = fmt.Fprintf(f, "pid=%d\n", os.Getpid())
	_ = f.Close()

	l.held = true
	return true, nil
}

func (l *Lock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

var _ domain.RunLock = (*Lock)(nil)
