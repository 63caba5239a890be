package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type span struct{ start, end time.Time }

func TestRunNeverOverlaps(t *testing.T) {
	trig := New(0, discard())
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu      sync.Mutex
		spans   []span
		running atomic.Int32
		maxSeen atomic.Int32
	)
	done := make(chan error, 1)
	go func() {
		done <- trig.Run(ctx, 5*time.Millisecond, func(context.Context) {
			n := running.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			s := span{start: time.Now()}
			// Overrun the interval.
			time.Sleep(15 * time.Millisecond)
			s.end = time.Now()
			running.Add(-1)

			mu.Lock()
			spans = append(spans, s)
			if len(spans) == 4 {
				cancel()
			}
			mu.Unlock()
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), maxSeen.Load())
	require.Len(t, spans, 4)
	for i := 1; i < len(spans); i++ {
		assert.False(t, spans[i].start.Before(spans[i-1].end), "tick %d overlapped", i)
	}
}

func TestRunFirstTickImmediate(t *testing.T) {
	trig := New(0, discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan time.Time, 1)
	start := time.Now()
	go trig.Run(ctx, time.Hour, func(context.Context) {
		select {
		case fired <- time.Now():
		default:
		}
	})

	select {
	case at := <-fired:
		assert.Less(t, at.Sub(start), time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("first tick did not fire")
	}
}

func TestRunInFlightTickSurvivesCancel(t *testing.T) {
	trig := New(0, discard())
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32
	var tickCtxErr error
	err := trig.Run(ctx, time.Millisecond, func(tickCtx context.Context) {
		ticks.Add(1)
		cancel()
		time.Sleep(5 * time.Millisecond)
		tickCtxErr = tickCtx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), ticks.Load())
	assert.NoError(t, tickCtxErr)
}

func TestRunRecoversPanics(t *testing.T) {
	trig := New(0, discard())
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32
	err := trig.Run(ctx, time.Millisecond, func(context.Context) {
		if ticks.Add(1) == 1 {
			panic("boom")
		}
		cancel()
	})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(2), ticks.Load())
}

func TestRunMinCooldown(t *testing.T) {
	trig := New(30*time.Millisecond, discard())
	ctx, cancel := context.WithCancel(context.Background())

	var times []time.Time
	trig.Run(ctx, time.Millisecond, func(context.Context) {
		times = append(times, time.Now())
		if len(times) == 2 {
			cancel()
		}
	})

	require.Len(t, times, 2)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), 30*time.Millisecond)
}

func TestRunRejectsBadInterval(t *testing.T) {
	err := New(0, discard()).Run(context.Background(), 0, func(context.Context) {})
	assert.Error(t, err)
}

func TestRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New(0, discard()).Run(ctx, time.Second, func(context.Context) { called = true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
