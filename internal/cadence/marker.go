package cadence

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	apperrors "github.com/gbdavies1992-hash/gomining-bot/internal/platform/errors"
)

// MarkerStore persists the key of the last window that received a post.
type MarkerStore struct {
	store domain.StateStore
}

func NewMarkerStore(store domain.StateStore) *MarkerStore {
	return &MarkerStore{store: store}
}

// Load returns the persisted marker. An absent, empty or malformed marker is
// reported as ("", false, nil); malformed content is logged at WARN.
// Read failures are storage_read errors and must stop the post pass.
func (m *MarkerStore) Load(ctx context.Context) (string, bool, error) {
	data, err := m.store.Read(ctx)
	if errors.Is(err, domain.ErrStateAbsent) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.StorageReadError("failed to read post marker", err)
	}

	marker := strings.TrimSpace(string(data))
	if marker == "" {
		return "", false, nil
	}
	if _, err := ParseWindowKey(marker); err != nil {
		slog.WarnContext(ctx, "Ignoring malformed post marker", "marker", marker, "error", err)
		return "", false, nil
	}
	return marker, true, nil
}

// Save overwrites the marker with key.
func (m *MarkerStore) Save(ctx context.Context, key string) error {
	if _, err := ParseWindowKey(key); err != nil {
		return apperrors.ValidationError(err.Error())
	}
	if err := m.store.Write(ctx, []byte(key)); err != nil {
		return apperrors.StorageWriteError("failed to persist post marker", err).WithField("window_key", key)
	}
	return nil
}
