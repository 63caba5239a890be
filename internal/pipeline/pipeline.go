// Package pipeline runs one capture, analyze, persist, observe cycle.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/analyzer"
	"github.com/iammorganparry/hyprcontext/internal/capture"
	"github.com/iammorganparry/hyprcontext/internal/focus"
	"github.com/iammorganparry/hyprcontext/internal/models"
	"github.com/iammorganparry/hyprcontext/internal/notify"
	"github.com/iammorganparry/hyprcontext/internal/watchdog"
)

type Analyzer interface {
	Analyze(ctx context.Context, c analyzer.Capture) analyzer.Result
}

type Appender interface {
	Append(ctx context.Context, obs models.Observation) (bool, error)
}

type Observer interface {
	Observe(ctx context.Context, obs models.Observation) (watchdog.State, *watchdog.Alert)
}

type Recorder interface {
	Record(e focus.Entry) (*models.FocusDay, focus.Crossing, error)
}

const notifyTimeout = 5 * time.Second

// TickResult describes what one tick did.
type TickResult struct {
	Started     time.Time
	Finished    time.Time
	Observation *models.Observation
	Analysis    *analyzer.Result
	Persisted   bool
	State       *watchdog.State
	Alert       *watchdog.Alert
	Budget      focus.Crossing
	Err         error
}

type Pipeline struct {
	capturer capture.Capturer
	analyzer Analyzer
	store    Appender
	watchdog Observer
	ledger   Recorder
	notifier notify.Notifier
	span     time.Duration
	logger   *slog.Logger
	now      func() time.Time

	last time.Time
}

// New wires a pipeline. ledger and notifier may be nil. span is the time each
// observation stands for in the focus ledger, normally the capture interval.
// Budget crossings reported by the ledger go to notifier.
func New(
	capturer capture.Capturer,
	a Analyzer,
	store Appender,
	wd Observer,
	ledger Recorder,
	notifier notify.Notifier,
	span time.Duration,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		capturer: capturer,
		analyzer: a,
		store:    store,
		watchdog: wd,
		ledger:   ledger,
		notifier: notifier,
		span:     span,
		logger:   logger,
		now:      time.Now,
	}
}

// Tick must not be called concurrently; the scheduler guarantees that.
func (p *Pipeline) Tick(ctx context.Context) (res TickResult) {
	res.Started = p.now()
	defer func() { res.Finished = p.now() }()

	image, err := p.capturer.Capture(ctx)
	if err != nil {
		res.Err = err
		p.logger.Warn("capture failed, skipping tick", "error", err)
		return res
	}

	analysis := p.analyzer.Analyze(ctx, analyzer.Capture{
		Image:      image,
		CapturedAt: p.nextTimestamp(),
	})
	res.Analysis = &analysis
	obs := analysis.Observation
	res.Observation = &obs

	created, err := p.store.Append(ctx, obs)
	if err != nil {
		res.Err = err
		p.logger.Error("persist observation failed", "id", obs.ID, "error", err)
		return res
	}
	if !created {
		return res
	}
	res.Persisted = true

	state, alert := p.watchdog.Observe(ctx, obs)
	res.State = &state
	res.Alert = alert

	if p.ledger != nil {
		day, crossing, err := p.ledger.Record(focus.Entry{Observation: obs, Span: p.span, Alerted: alert != nil})
		if err != nil {
			p.logger.Warn("focus ledger update failed", "error", err)
		} else if crossing != focus.CrossingNone {
			res.Budget = crossing
			p.notifyBudget(ctx, day, crossing)
		}
	}

	p.logger.Info("observation recorded",
		"id", obs.ID,
		"app", obs.ActiveApplication,
		"tags", obs.Tags,
		"embedded", obs.HasEmbedding(),
		"status", string(state.Status),
	)
	return res
}

func (p *Pipeline) notifyBudget(ctx context.Context, day *models.FocusDay, c focus.Crossing) {
	p.logger.Warn("distraction budget crossed",
		"crossing", c.String(),
		"used_seconds", day.DistractionSeconds,
		"limit_seconds", day.LimitSeconds,
	)
	if p.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := p.notifier.Notify(nctx, focus.BudgetNotification(day, c)); err != nil {
		p.logger.Warn("budget notification not delivered", "error", err)
	}
}

// nextTimestamp reads the wall clock and clamps it so timestamps strictly
// increase even if the clock steps backwards.
func (p *Pipeline) nextTimestamp() time.Time {
	ts := p.now().Round(0)
	if !ts.After(p.last) {
		ts = p.last.Add(time.Nanosecond)
	}
	p.last = ts
	return ts
}
