package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

const payloadTimestamp = "ts"

// ChromemIndex is the local, file-backed index built on chromem-go.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	mu         sync.RWMutex
}

// NewChromemIndex opens (or creates) a persistent chromem database under dir.
// An empty dir yields an in-memory index.
func NewChromemIndex(dir, collection string) (*ChromemIndex, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, true)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	// Vectors are always supplied by the caller, so the collection never
	// needs to embed text itself.
	col, err := db.GetOrCreateCollection(collection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemIndex{db: db, collection: col}, nil
}

func noEmbed(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("chromem index requires precomputed embeddings")
}

func (c *ChromemIndex) Upsert(ctx context.Context, points ...Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range points {
		if len(p.Vector) == 0 {
			continue
		}
		// chromem normalizes in place; hand it a copy.
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)

		doc := chromem.Document{
			ID:        p.ID,
			Content:   p.Text,
			Embedding: vec,
			Metadata: map[string]string{
				payloadTimestamp: strconv.FormatInt(p.Timestamp.UnixNano(), 10),
			},
		}
		if doc.Content == "" {
			doc.Content = p.ID
		}
		if err := c.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("chromem upsert %s: %w", p.ID, err)
		}
	}
	return nil
}

func (c *ChromemIndex) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := c.collection.Count()
	if n == 0 || limit <= 0 {
		return nil, nil
	}
	if limit > n {
		limit = n
	}

	query := make([]float32, len(vector))
	copy(query, vector)

	results, err := c.collection.QueryEmbedding(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{ID: r.ID, Score: float64(r.Similarity)}
	}
	return hits, nil
}

func (c *ChromemIndex) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}
	return nil
}

func (c *ChromemIndex) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collection.Count(), nil
}

func (c *ChromemIndex) Missing(ctx context.Context, ids ...string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	for _, id := range ids {
		// GetByID only fails for unknown or empty ids.
		if _, err := c.collection.GetByID(ctx, id); err != nil {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (c *ChromemIndex) HealthCheck(_ context.Context) error {
	if c.collection == nil {
		return errors.New("chromem collection not initialised")
	}
	return nil
}
