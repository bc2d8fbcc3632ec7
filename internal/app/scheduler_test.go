package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingRunner struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func newCountingRunner(err error) *countingRunner {
	return &countingRunner{err: err, ran: make(chan struct{}, 16)}
}

func (r *countingRunner) RunCycle(context.Context) (CycleReport, error) {
	r.calls.Add(1)
	r.ran <- struct{}{}
	return CycleReport{}, r.err
}

func waitRun(t *testing.T, r *countingRunner) {
	t.Helper()
	select {
	case <-r.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("cycle did not run")
	}
}

func TestScheduler_RunsImmediatelyThenEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := newCountingRunner(nil)
	s := NewScheduler(runner, 15*time.Minute, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitRun(t, runner)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(15 * time.Minute)
	waitRun(t, runner)

	clock.Advance(15 * time.Minute)
	waitRun(t, runner)

	cancel()
	<-done
	assert.Equal(t, int32(3), runner.calls.Load())
}

func TestScheduler_ContinuesAfterCycleError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := newCountingRunner(errors.New("cycle failed"))
	s := NewScheduler(runner, time.Minute, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitRun(t, runner)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitRun(t, runner)

	cancel()
	<-done
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestScheduler_CancelledContextSkipsCycle(t *testing.T) {
	runner := newCountingRunner(nil)
	s := NewScheduler(runner, time.Minute, clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	assert.Zero(t, runner.calls.Load())
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(newCountingRunner(nil), 0, nil)
	assert.Equal(t, DefaultRunInterval, s.interval)
	assert.NotNil(t, s.clock)
}
