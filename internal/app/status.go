package app

import (
	"context"
	"time"

	"github.com/gbdavies1992-hash/gomining-bot/internal/cadence"
)

// Status is a read-only view of the bot's persisted state.
type Status struct {
	Now         time.Time        `json:"now"`
	Location    string           `json:"location"`
	ActiveHours [2]int           `json:"active_hours"`
	Marker      string           `json:"marker,omitempty"`
	Decision    cadence.Decision `json:"decision"`
	LedgerSize  int              `json:"ledger_size"`
	Account     string           `json:"account,omitempty"`
	LastCycle   *CycleSummary    `json:"last_cycle,omitempty"`
}

type CycleSummary struct {
	CycleID   string        `json:"cycle_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Result    string        `json:"result"`
	Replies   int           `json:"replies"`
	PostID    string        `json:"post_id,omitempty"`
}

// Status reads the marker and ledger and evaluates the gate for now.
// It never takes the run lock and never writes.
func (b *Bot) Status(ctx context.Context) (Status, error) {
	now := b.clock.Now().In(b.opts.Location)
	start, end := b.gate.ActiveHours()

	marker, hasMarker, err := b.marker.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	known, err := b.ledger.LoadKnown(ctx)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		Now:         now,
		Location:    b.opts.Location.String(),
		ActiveHours: [2]int{start, end},
		Marker:      marker,
		Decision:    b.gate.Evaluate(now, marker, hasMarker),
		LedgerSize:  known.Len(),
	}

	b.mu.Lock()
	if b.account != nil {
		st.Account = b.account.Username
	}
	if b.last != nil {
		st.LastCycle = &CycleSummary{
			CycleID:   b.last.CycleID,
			StartedAt: b.last.StartedAt,
			Duration:  b.last.Duration,
			Result:    b.last.result(),
			Replies:   b.last.Replies,
			PostID:    b.last.Post.PostID,
		}
	}
	b.mu.Unlock()

	return st, nil
}
