package cadence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	hourSep    = "_hour_"
)

// PostWindow is the hourly slot a post belongs to.
type PostWindow struct {
	Date string
	Hour int
}

// WindowFor returns the window containing t, in t's location.
func WindowFor(t time.Time) PostWindow {
	return PostWindow{Date: t.Format(dateLayout), Hour: t.Hour()}
}

// Key renders the window as persisted in the marker, e.g. 2026-02-15_hour_9.
func (w PostWindow) Key() string {
	return w.Date + hourSep + strconv.Itoa(w.Hour)
}

// ParseWindowKey is the inverse of Key. It rejects zero-padded hours so that
// every valid key has exactly one spelling.
func ParseWindowKey(key string) (PostWindow, error) {
	date, hour, ok := strings.Cut(key, hourSep)
	if !ok {
		return PostWindow{}, fmt.Errorf("window key %q: missing %q separator", key, hourSep)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return PostWindow{}, fmt.Errorf("window key %q: invalid date: %w", key, err)
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 || strconv.Itoa(h) != hour {
		return PostWindow{}, fmt.Errorf("window key %q: hour must be 0..23 without leading zero", key)
	}
	return PostWindow{Date: date, Hour: h}, nil
}
