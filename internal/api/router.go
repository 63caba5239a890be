package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/hyprcontext/internal/memory"
	"github.com/iammorganparry/hyprcontext/internal/models"
)

// Retriever is the read surface the observation handlers serve.
type Retriever interface {
	QueryByTimeRange(ctx context.Context, start, end time.Time) ([]models.Observation, error)
	QuerySimilar(ctx context.Context, q memory.Query, topK int) ([]models.ScoredObservation, error)
	Day(ctx context.Context, date string) ([]models.Observation, error)
	LastDays(ctx context.Context, days, limit int) ([]models.Observation, error)
	Get(ctx context.Context, id string) (*models.Observation, error)
	Stats(ctx context.Context) (*models.StoreStats, error)
}

// FocusSource exposes the live watchdog state.
type FocusSource interface {
	Snapshot() models.WatchdogSnapshot
}

// FocusLedger exposes today's accumulated focus entry.
type FocusLedger interface {
	Today() (*models.FocusDay, error)
}

// Checker is anything with a health check.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Counter reports the number of stored observations.
type Counter interface {
	ObservationCount() (int, error)
}

// Deps groups what the router needs. Ledger and Models may be nil.
type Deps struct {
	Retriever Retriever
	Focus     FocusSource
	Ledger    FocusLedger
	DB        Counter
	Index     Checker
	Models    Checker
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(deps Deps, apiKey string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(deps.DB, deps.Index, deps.Models)
	obsH := NewObservationHandler(deps.Retriever)
	focusH := NewFocusHandler(deps.Focus, deps.Ledger, logger)

	r.Get("/health", healthH.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/observations", func(r chi.Router) {
			r.Get("/", obsH.Range)
			r.Get("/recent", obsH.Recent)
			r.Get("/day/{date}", obsH.Day)
			r.Post("/search", obsH.Search)
			r.Get("/{id}", obsH.Get)
		})
		r.Get("/stats", obsH.Stats)
		r.Get("/focus", focusH.Focus)
	})

	return r
}
