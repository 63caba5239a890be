package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
	"github.com/iammorganparry/hyprcontext/internal/store"
)

// CachedEmbedder wraps an Embedder with a SQLite cache keyed by model and
// text hash. Repeated window descriptions and search queries skip the model.
type CachedEmbedder struct {
	inner  Embedder
	cache  *store.EmbeddingCacheStore
	logger *slog.Logger
}

func NewCachedEmbedder(inner Embedder, cache *store.EmbeddingCacheStore, logger *slog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

func (e *CachedEmbedder) Model() string { return e.inner.Model() }

// Embed returns the embedding for text, using cache when available.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.inner.Model()
	hash := ContentHash(text)

	entry, err := e.cache.Get(ctx, model, hash)
	if err != nil {
		e.logger.Warn("embedding cache lookup failed", "error", err)
	}
	if entry != nil {
		if vec := store.BytesToFloat32(entry.Embedding); len(vec) > 0 {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	cacheEntry := &models.EmbeddingCacheEntry{
		Model:       model,
		ContentHash: hash,
		Embedding:   store.Float32ToBytes(vec),
		Dimension:   len(vec),
	}
	if err := e.cache.Put(ctx, cacheEntry); err != nil {
		e.logger.Warn("embedding cache write failed", "error", err)
	}

	return vec, nil
}

// Evict drops cache entries unused for maxAge and any left behind by other
// models.
func (e *CachedEmbedder) Evict(ctx context.Context, maxAge time.Duration) (int64, error) {
	return e.cache.Evict(ctx, e.inner.Model(), time.Now().Add(-maxAge))
}

// ContentHash is the hex SHA-256 of text.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h)
}
