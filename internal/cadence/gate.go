package cadence

import (
	"fmt"
	"time"
)

const (
	DefaultStartHour = 11
	DefaultEndHour   = 23
)

const (
	ReasonQuietHours    = "quiet_hours"
	ReasonAlreadyPosted = "already_posted_this_hour"
)

// Decision is the outcome of one gate evaluation. WindowKey is set whenever
// the time falls inside the active hours, Reason only when Allowed is false.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	WindowKey string `json:"window_key,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Gate allows posting during hours StartHour..EndHour inclusive.
type Gate struct {
	startHour int
	endHour   int
}

func NewGate(startHour, endHour int) (*Gate, error) {
	if startHour < 0 || endHour > 23 || startHour > endHour {
		return nil, fmt.Errorf("invalid active hours %d..%d", startHour, endHour)
	}
	return &Gate{startHour: startHour, endHour: endHour}, nil
}

// DefaultGate allows posting from 11:00 through 23:59.
func DefaultGate() *Gate {
	return &Gate{startHour: DefaultStartHour, endHour: DefaultEndHour}
}

func (g *Gate) ActiveHours() (start, end int) {
	return g.startHour, g.endHour
}

// Evaluate decides whether a post may be made at now. now must already be in
// the bot's location. lastMarker is ignored when hasMarker is false. The caller
// persists Decision.WindowKey after the post succeeds.
func (g *Gate) Evaluate(now time.Time, lastMarker string, hasMarker bool) Decision {
	hour := now.Hour()
	if hour < g.startHour || hour > g.endHour {
		return Decision{Reason: ReasonQuietHours}
	}

	key := WindowFor(now).Key()
	if hasMarker && lastMarker == key {
		return Decision{WindowKey: key, Reason: ReasonAlreadyPosted}
	}
	return Decision{Allowed: true, WindowKey: key}
}
