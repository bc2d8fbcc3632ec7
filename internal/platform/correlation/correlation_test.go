package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID_Length(t *testing.T) {
	assert.Len(t, NewID(), 8)
}

func TestNewID_Unique(t *testing.T) {
	ids := make(map[string]struct{}, 100)
	for range 100 {
		ids[NewID()] = struct{}{}
	}
	assert.Len(t, ids, 100)
}

func TestWithID_and_ID_Roundtrip(t *testing.T) {
	ctx := WithID(context.Background(), "c0ffee12")
	id, ok := ID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "c0ffee12", id)
}

func TestID_MissingOrEmpty(t *testing.T) {
	_, ok := ID(context.Background())
	assert.False(t, ok)

	_, ok = ID(WithID(context.Background(), ""))
	assert.False(t, ok)
}

func TestHandler_AddsCycleID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.InfoContext(WithID(context.Background(), "cycle123"), "Posted update", "window", "2026-02-15_hour_11")

	output := buf.String()
	assert.Contains(t, output, "cycle_id=cycle123")
	assert.Contains(t, output, "window=2026-02-15_hour_11")
}

func TestHandler_OmitsCycleID_WhenMissing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "startup")

	assert.NotContains(t, buf.String(), "cycle_id")
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil))).With("component", "ledger").WithGroup("mention")

	logger.InfoContext(WithID(context.Background(), "grp12345"), "Recorded", "id", "1234")

	output := buf.String()
	assert.Contains(t, output, "component=ledger")
	assert.Contains(t, output, "mention.id=1234")
}
