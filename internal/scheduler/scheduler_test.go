package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNextTickAligned(t *testing.T) {
	s := New(Options{Interval: time.Minute, AlignToStart: true}, zerolog.Nop())

	now := time.Date(2026, 8, 31, 12, 34, 56, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 31, 12, 35, 0, 0, time.UTC), s.nextTick(now))

	onBoundary := time.Date(2026, 8, 31, 12, 35, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 31, 12, 36, 0, 0, time.UTC), s.nextTick(onBoundary), "a boundary instant schedules the next interval, never itself")
}

func TestNextTickUnaligned(t *testing.T) {
	s := New(Options{Interval: time.Minute}, zerolog.Nop())

	now := time.Date(2026, 8, 31, 12, 34, 56, 0, time.UTC)
	require.Equal(t, now.Add(time.Minute), s.nextTick(now))
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	require.Panics(t, func() { New(Options{}, zerolog.Nop()) })
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	var ticks atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, at time.Time) error {
			ticks.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
