package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
	"github.com/iammorganparry/hyprcontext/internal/notify"
)

const (
	notifyTimeout = 10 * time.Second
	alertExpire   = 7 * time.Second
)

// Watchdog owns the process-wide State. Observe is called by the single
// capture loop; Snapshot may be called from any goroutine.
type Watchdog struct {
	mu       sync.RWMutex
	state    State
	policy   Policy
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	pending  sync.WaitGroup
}

func New(policy Policy, notifier notify.Notifier, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		state:    InitialState(),
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Observe applies obs and dispatches any alert without waiting for delivery.
// Callers must only pass observations that have been persisted.
func (w *Watchdog) Observe(ctx context.Context, obs models.Observation) (State, *Alert) {
	w.mu.Lock()
	next, alert := Transition(w.state, obs, w.now(), w.policy)
	prev := w.state.Status
	w.state = next
	w.mu.Unlock()

	if prev != next.Status {
		w.logger.Info("focus state changed",
			"from", string(prev), "to", string(next.Status),
			"streak", next.ConsecutiveDistractionCount)
	}

	if alert != nil {
		w.dispatch(ctx, *alert)
	}
	return next, alert
}

// State returns a copy of the current state.
func (w *Watchdog) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Snapshot is the read-only view served to the dashboard.
func (w *Watchdog) Snapshot() models.WatchdogSnapshot {
	return w.State().Snapshot(w.policy.Threshold)
}

// Wait blocks until in-flight notifications finish.
func (w *Watchdog) Wait() {
	w.pending.Wait()
}

func (w *Watchdog) dispatch(ctx context.Context, alert Alert) {
	n := AlertNotification(alert)
	ctx = context.WithoutCancel(ctx)

	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := w.notifier.Notify(nctx, n); err != nil {
			w.logger.Warn("focus alert not delivered", "error", err)
			return
		}
		w.logger.Info("focus alert sent", "streak", alert.Count, "tags", alert.Tags)
	}()
}

// AlertNotification renders an alert as a desktop notification.
func AlertNotification(a Alert) notify.Notification {
	msg := fmt.Sprintf("%d captures in a row look off-task", a.Count)
	if len(a.Tags) > 0 {
		msg += " (" + strings.Join(a.Tags, ", ") + ")"
	}
	msg += ". Back to work!"
	return notify.Notification{
		Title:   "Focus alert",
		Message: msg,
		Urgency: notify.UrgencyCritical,
		Expire:  alertExpire,
	}
}
