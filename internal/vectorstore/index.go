package vectorstore

import (
	"context"
	"time"
)

// Point is one embedded observation as held by a vector index.
type Point struct {
	ID        string
	Vector    []float32
	Timestamp time.Time
	Text      string
}

// Hit is a scored search result. Score is cosine similarity, higher is closer.
type Hit struct {
	ID    string
	Score float64
}

// Index is the nearest-neighbour index behind similarity queries. SQLite
// remains the source of truth; an Index only maps ids to vectors.
type Index interface {
	Upsert(ctx context.Context, points ...Point) error
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)
	Delete(ctx context.Context, ids ...string) error
	Count(ctx context.Context) (int, error)
	// Missing returns the subset of ids the index holds no vector for.
	Missing(ctx context.Context, ids ...string) ([]string, error)
	HealthCheck(ctx context.Context) error
}
