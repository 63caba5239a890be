// Package analyzer turns a raw screen capture into an activity observation.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iammorganparry/hyprcontext/internal/embedding"
	"github.com/iammorganparry/hyprcontext/internal/models"
	"github.com/iammorganparry/hyprcontext/internal/privacy"
	"github.com/iammorganparry/hyprcontext/internal/vision"
	"github.com/iammorganparry/hyprcontext/internal/window"
)

var (
	ErrAnalysisTimeout  = errors.New("analysis timed out")
	ErrAnalysisFailure  = errors.New("analysis failed")
	ErrEmbeddingFailure = errors.New("embedding failed")
)

// promptHistory is how many recent descriptions are shown to the model.
const promptHistory = 3

const backgroundTitleLen = 25

// Capture is one raw screenshot.
type Capture struct {
	Image      []byte
	CapturedAt time.Time
}

// Result is the analyzer output. Observation is always usable; the error
// fields record which parts degraded.
type Result struct {
	Observation models.Observation
	WindowErr   error
	VisionErr   error
	EmbedErr    error
}

// Options tunes the analyzer.
type Options struct {
	Timeout     time.Duration
	HistorySize int
}

type Analyzer struct {
	windows   window.Provider
	describer vision.Describer
	embedder  embedding.Embedder
	tagger    *Tagger
	filter    *privacy.Filter
	opts      Options
	logger    *slog.Logger

	mu      sync.Mutex
	history []string
}

func New(
	windows window.Provider,
	describer vision.Describer,
	embedder embedding.Embedder,
	tagger *Tagger,
	filter *privacy.Filter,
	opts Options,
	logger *slog.Logger,
) *Analyzer {
	if opts.HistorySize < 0 {
		opts.HistorySize = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Analyzer{
		windows:   windows,
		describer: describer,
		embedder:  embedder,
		tagger:    tagger,
		filter:    filter,
		opts:      opts,
		logger:    logger,
	}
}

// Analyze never fails outright: window, vision and embedding failures leave
// their fields empty and are reported on the Result.
func (a *Analyzer) Analyze(ctx context.Context, c Capture) Result {
	res := Result{
		Observation: models.Observation{
			ID:        uuid.New().String(),
			Timestamp: c.CapturedAt,
			Tags:      []string{},
		},
	}
	obs := &res.Observation

	active, err := a.windows.ActiveWindow(ctx)
	if err != nil {
		res.WindowErr = err
		a.logger.Warn("window info unavailable", "error", err)
	}
	obs.ActiveApplication = active.Class
	obs.WindowTitle = active.Title

	if a.filter.IsPrivate(active.Class, active.Title) {
		obs.Private = true
		a.logger.Info("private window, skipping vision", "app", active.Class)
	} else {
		desc, err := a.describe(ctx, c.Image, active)
		if err != nil {
			res.VisionErr = err
			a.logger.Warn("vision analysis failed", "error", err)
		} else {
			obs.Description = desc.Description
			obs.Labels = desc.Labels
		}
	}

	obs.Tags = a.tagger.Tag(obs.WindowTitle, obs.Description)

	if obs.Description != "" {
		vec, err := a.embed(ctx, obs.Description)
		if err != nil {
			res.EmbedErr = err
			a.logger.Warn("embedding failed", "error", err)
		} else {
			obs.Embedding = vec
			obs.EmbeddingModel = a.embedder.Model()
		}
		a.remember(obs.Description)
	}

	return res
}

// History returns the short-term memory, oldest first.
func (a *Analyzer) History() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Analyzer) describe(ctx context.Context, image []byte, active window.Info) (vision.Result, error) {
	req := vision.Request{
		Image:        image,
		ActiveWindow: privacy.WindowKey(active.Class, active.Title),
		History:      a.recentHistory(promptHistory),
	}
	if clients, err := a.windows.Clients(ctx); err == nil {
		req.BackgroundApps = window.Summaries(clients, active, backgroundTitleLen)
	} else {
		a.logger.Debug("client list unavailable", "error", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	res, err := a.describer.Describe(callCtx, req)
	if err != nil {
		return vision.Result{}, visionError(callCtx, err)
	}
	return res, nil
}

func (a *Analyzer) embed(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	vec, err := a.embedder.Embed(callCtx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbeddingFailure)
	}
	return vec, nil
}

func visionError(callCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAnalysisTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrAnalysisFailure, err)
}

func (a *Analyzer) remember(desc string) {
	if a.opts.HistorySize == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, desc)
	if over := len(a.history) - a.opts.HistorySize; over > 0 {
		a.history = append([]string(nil), a.history[over:]...)
	}
}

func (a *Analyzer) recentHistory(n int) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) <= n {
		return append([]string(nil), a.history...)
	}
	return append([]string(nil), a.history[len(a.history)-n:]...)
}
