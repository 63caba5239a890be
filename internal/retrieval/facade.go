// Package retrieval is the read-only query surface over activity memory.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/memory"
	"github.com/iammorganparry/hyprcontext/internal/models"
)

const DateLayout = "2006-01-02"

// InvalidRangeError reports a query whose start is after its end. It matches
// memory.ErrInvalidRange under errors.Is.
type InvalidRangeError struct {
	Start, End time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid time range: start %s is after end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == memory.ErrInvalidRange
}

// Reader is the subset of the memory store the facade reads from.
type Reader interface {
	QueryRange(ctx context.Context, start, end time.Time, limit int) ([]models.Observation, error)
	QuerySimilar(ctx context.Context, q memory.Query, topK int) ([]models.ScoredObservation, error)
	GetByID(ctx context.Context, id string) (*models.Observation, error)
	Stats(ctx context.Context) (*models.StoreStats, error)
}

type Facade struct {
	reader Reader
	loc    *time.Location
	now    func() time.Time
}

// New builds a facade. Day boundaries are computed in loc (time.Local when nil).
func New(reader Reader, loc *time.Location) *Facade {
	if loc == nil {
		loc = time.Local
	}
	return &Facade{reader: reader, loc: loc, now: time.Now}
}

// QueryByTimeRange returns observations in [start, end], oldest first.
func (f *Facade) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]models.Observation, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	return f.reader.QueryRange(ctx, start, end, 0)
}

// QuerySimilar returns the topK most similar embedded observations.
func (f *Facade) QuerySimilar(ctx context.Context, q memory.Query, topK int) ([]models.ScoredObservation, error) {
	return f.reader.QuerySimilar(ctx, q, topK)
}

// Day returns every observation on a local calendar date (YYYY-MM-DD).
func (f *Facade) Day(ctx context.Context, date string) ([]models.Observation, error) {
	start, err := time.ParseInLocation(DateLayout, date, f.loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return f.reader.QueryRange(ctx, start, end, 0)
}

// LastDays returns observations from the start of the day n-1 days ago until
// now, keeping the newest limit rows when limit > 0.
func (f *Facade) LastDays(ctx context.Context, days, limit int) ([]models.Observation, error) {
	if days < 1 {
		days = 1
	}
	now := f.now().In(f.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.loc)
	start := midnight.AddDate(0, 0, -(days - 1))
	return f.reader.QueryRange(ctx, start, now, limit)
}

func (f *Facade) Get(ctx context.Context, id string) (*models.Observation, error) {
	return f.reader.GetByID(ctx, id)
}

func (f *Facade) Stats(ctx context.Context) (*models.StoreStats, error) {
	return f.reader.Stats(ctx)
}
