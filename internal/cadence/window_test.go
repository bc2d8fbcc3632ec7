package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowFor(t *testing.T) {
	now := time.Date(2026, 2, 15, 9, 59, 59, 0, time.UTC)
	w := WindowFor(now)

	assert.Equal(t, PostWindow{Date: "2026-02-15", Hour: 9}, w)
	assert.Equal(t, "2026-02-15_hour_9", w.Key())
}

func TestWindowFor_UsesTimeLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	utc := time.Date(2026, 2, 15, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-02-16_hour_5", WindowFor(utc.In(tokyo)).Key())
}

func TestParseWindowKey(t *testing.T) {
	tests := []struct {
		key     string
		want    PostWindow
		wantErr bool
	}{
		{key: "2026-02-15_hour_11", want: PostWindow{Date: "2026-02-15", Hour: 11}},
		{key: "2026-02-15_hour_0", want: PostWindow{Date: "2026-02-15", Hour: 0}},
		{key: "2026-12-31_hour_23", want: PostWindow{Date: "2026-12-31", Hour: 23}},
		{key: "2026-02-15", wantErr: true},
		{key: "2026-02-15_hour_", wantErr: true},
		{key: "2026-02-15_hour_09", wantErr: true},
		{key: "2026-02-15_hour_24", wantErr: true},
		{key: "2026-02-15_hour_-1", wantErr: true},
		{key: "2026-02-30_hour_11", wantErr: true},
		{key: "garbage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseWindowKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.key, got.Key())
		})
	}
}
