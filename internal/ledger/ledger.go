// Package ledger records which mentions the bot has already replied to.
//
// The ledger is an append-only, newline-delimited list of mention IDs. It is
// loaded once per mention pass and appended to after each confirmed reply.
// Entries are never removed.
package ledger

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	apperrors "github.com/gbdavies1992-hash/gomining-bot/internal/platform/errors"
)

// KnownSet is the in-memory view of the ledger.
type KnownSet map[string]struct{}

// Add marks id as known in this set only. It does not persist anything.
func (k KnownSet) Add(id string) {
	k[id] = struct{}{}
}

func (k KnownSet) Len() int {
	return len(k)
}

// maxLineLength bounds one ledger line. Longer lines mean the store is
// corrupt and fail the read instead of silently dropping what follows.
const maxLineLength = 1024 * 1024

type tailState int

const (
	tailUnknown tailState = iota
	tailTerminated
	tailOpen
)

type Ledger struct {
	store domain.StateStore

	mu   sync.Mutex
	tail tailState
}

func New(store domain.StateStore) *Ledger {
	return &Ledger{store: store}
}

// LoadKnown reads every recorded ID. An absent store yields an empty set.
func (l *Ledger) LoadKnown(ctx context.Context) (KnownSet, error) {
	data, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	known, err := parse(data)
	if err != nil {
		return nil, apperrors.StorageReadError("failed to parse reply ledger", err)
	}
	return known, nil
}

func (l *Ledger) read(ctx context.Context) ([]byte, error) {
	data, err := l.store.Read(ctx)
	if errors.Is(err, domain.ErrStateAbsent) {
		data, err = nil, nil
	}
	if err != nil {
		return nil, apperrors.StorageReadError("failed to read reply ledger", err)
	}

	l.mu.Lock()
	l.tail = tailOf(data)
	l.mu.Unlock()
	return data, nil
}

func tailOf(data []byte) tailState {
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return tailTerminated
	}
	return tailOpen
}

// IsKnown reports whether id was recorded.
func (l *Ledger) IsKnown(id string, known KnownSet) bool {
	_, ok := known[id]
	return ok
}

// Record appends id to the ledger. Call it only after the reply was sent.
// Recording an ID twice is harmless. When the last line of the store is not
// newline-terminated, a separator is written first so the new ID never
// merges into it.
func (l *Ledger) Record(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	l.mu.Lock()
	tail := l.tail
	l.mu.Unlock()
	if tail == tailUnknown {
		if _, err := l.read(ctx); err != nil {
			return err
		}
		l.mu.Lock()
		tail = l.tail
		l.mu.Unlock()
	}

	line := id + "\n"
	if tail == tailOpen {
		line = "\n" + line
	}
	if err := l.store.Append(ctx, []byte(line)); err != nil {
		l.mu.Lock()
		// A failed append may have written part of the line.
		l.tail = tailUnknown
		l.mu.Unlock()
		return apperrors.StorageWriteError("failed to append to reply ledger", err).WithField("mention_id", id)
	}

	l.mu.Lock()
	l.tail = tailTerminated
	l.mu.Unlock()
	return nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.ValidationError("mention id is empty")
	}
	if strings.ContainsAny(id, "\r\n") || strings.TrimSpace(id) != id {
		return apperrors.ValidationError("mention id contains whitespace").WithField("mention_id", id)
	}
	return nil
}

func parse(data []byte) (KnownSet, error) {
	known := KnownSet{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			known.Add(id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return known, nil
}
