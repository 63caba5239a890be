// Package scheduler drives the capture loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Trigger runs a callback periodically, one invocation at a time.
type Trigger struct {
	minCooldown time.Duration
	logger      *slog.Logger
}

// New returns a trigger that always leaves at least minCooldown between the
// end of one tick and the start of the next.
func New(minCooldown time.Duration, logger *slog.Logger) *Trigger {
	if minCooldown < 0 {
		minCooldown = 0
	}
	return &Trigger{minCooldown: minCooldown, logger: logger}
}

// Run calls onTick immediately and then once per interval until ctx is
// cancelled. A tick that overruns the interval delays the next one; ticks
// never overlap and are never skipped. Cancellation stops scheduling but lets
// an in-flight tick finish: onTick receives a context that is not cancelled
// with ctx. Run returns ctx.Err().
func (t *Trigger) Run(ctx context.Context, interval time.Duration, onTick func(context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}
	tickCtx := context.WithoutCancel(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		t.safeTick(tickCtx, onTick)
		end := time.Now()

		next := start.Add(interval)
		if earliest := end.Add(t.minCooldown); earliest.After(next) {
			next = earliest
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *Trigger) safeTick(ctx context.Context, onTick func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("tick panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	onTick(ctx)
}
