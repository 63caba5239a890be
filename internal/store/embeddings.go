package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

// EmbeddingCacheStore keeps embeddings of analyzer descriptions and search
// queries, keyed by model and text hash. Entries age out by last use.
type EmbeddingCacheStore struct {
	db  *DB
	now func() time.Time
}

func NewEmbeddingCacheStore(db *DB) *EmbeddingCacheStore {
	return &EmbeddingCacheStore{db: db, now: time.Now}
}

// Get returns the cached vector for (model, hash) and marks it used. A row
// whose blob does not match its recorded dimension counts as a miss.
func (s *EmbeddingCacheStore) Get(ctx context.Context, model, hash string) (*models.EmbeddingCacheEntry, error) {
	e := models.EmbeddingCacheEntry{Model: model, ContentHash: hash}
	err := s.db.QueryRowContext(ctx, `
		SELECT embedding, dimension, created_at, last_used_at
		FROM embedding_cache WHERE model = ? AND content_hash = ?
	`, model, hash).Scan(&e.Embedding, &e.Dimension, &e.CreatedAt, &e.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached embedding: %w", err)
	}
	if len(BytesToFloat32(e.Embedding)) != e.Dimension {
		return nil, nil
	}

	e.LastUsedAt = s.now().Unix()
	if _, err := s.db.ExecContext(ctx, `
		UPDATE embedding_cache SET last_used_at = ? WHERE model = ? AND content_hash = ?
	`, e.LastUsedAt, model, hash); err != nil {
		return nil, fmt.Errorf("touch cached embedding: %w", err)
	}
	return &e, nil
}

// Put stores an entry, replacing any vector cached for the same key.
func (s *EmbeddingCacheStore) Put(ctx context.Context, entry *models.EmbeddingCacheEntry) error {
	now := s.now().Unix()
	entry.CreatedAt = now
	entry.LastUsedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (model, content_hash, embedding, dimension, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(model, content_hash) DO UPDATE SET
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			created_at = excluded.created_at,
			last_used_at = excluded.last_used_at
	`, entry.Model, entry.ContentHash, entry.Embedding, entry.Dimension, entry.CreatedAt, entry.LastUsedAt)
	if err != nil {
		return fmt.Errorf("put cached embedding: %w", err)
	}
	return nil
}

// Evict drops entries unused since cutoff and every entry written by a model
// other than keepModel. It returns the number of rows removed.
func (s *EmbeddingCacheStore) Evict(ctx context.Context, keepModel string, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM embedding_cache WHERE model <> ? OR last_used_at < ?
	`, keepModel, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("evict cached embeddings: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of cached entries.
func (s *EmbeddingCacheStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached embeddings: %w", err)
	}
	return n, nil
}
