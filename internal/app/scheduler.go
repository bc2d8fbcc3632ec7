package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultRunInterval = 15 * time.Minute

type cycleRunner interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

// Scheduler runs a cycle immediately and then once per interval until its
// context is cancelled. Cycle errors are logged and the loop continues.
type Scheduler struct {
	runner   cycleRunner
	interval time.Duration
	clock    clockwork.Clock
}

func NewScheduler(runner cycleRunner, interval time.Duration, clock clockwork.Clock) *Scheduler {
	if interval <= 0 {
		interval = DefaultRunInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{runner: runner, interval: interval, clock: clock}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	slog.InfoContext(ctx, "Scheduler started", "interval", s.interval)

	s.tick(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Scheduler stopped")
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// RunCycle logs its own outcome.
	_, _ = s.runner.RunCycle(ctx)
}
