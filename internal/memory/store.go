// Package memory is the append-only activity memory: SQLite holds every
// observation, the vector index holds the embedded ones.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/embedding"
	"github.com/iammorganparry/hyprcontext/internal/models"
	"github.com/iammorganparry/hyprcontext/internal/store"
	"github.com/iammorganparry/hyprcontext/internal/vectorstore"
)

var (
	ErrPersist      = errors.New("persist observation")
	ErrInvalidRange = errors.New("invalid time range: start is after end")
	ErrEmptyQuery   = errors.New("similarity query needs text or an embedding")
)

const (
	reconcileBatch = 256
	// maxPending bounds the in-memory retry sets; anything beyond it waits
	// for the next Reconcile.
	maxPending = 4096
)

// Query is a similarity query. Embedding wins when both are set.
type Query struct {
	Text      string
	Embedding []float32
}

type Store struct {
	observations *store.ObservationStore
	index        vectorstore.Index
	embedder     embedding.Embedder
	overfetch    int
	logger       *slog.Logger

	mu            sync.Mutex
	pendingUpsert map[string]struct{}
	pendingDelete map[string]struct{}
}

func NewStore(
	observations *store.ObservationStore,
	index vectorstore.Index,
	embedder embedding.Embedder,
	overfetch int,
	logger *slog.Logger,
) *Store {
	return &Store{
		observations:  observations,
		index:         index,
		embedder:      embedder,
		overfetch:     overfetch,
		logger:        logger,
		pendingUpsert: make(map[string]struct{}),
		pendingDelete: make(map[string]struct{}),
	}
}

// Append durably records obs. A second Append with an existing id is a no-op
// and reports false; the first written content is kept.
//
// The vector index is derived from SQLite, so an index failure after the row
// is written is logged and queued for retry rather than returned.
func (s *Store) Append(ctx context.Context, obs models.Observation) (bool, error) {
	if obs.ID == "" {
		return false, fmt.Errorf("%w: observation has no id", ErrPersist)
	}
	if obs.Tags == nil {
		obs.Tags = []string{}
	}

	created, err := s.observations.Insert(ctx, &obs)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if !created {
		s.logger.Debug("duplicate observation ignored", "id", obs.ID)
		return false, nil
	}

	if obs.HasEmbedding() {
		err := s.index.Upsert(ctx, vectorstore.Point{
			ID:        obs.ID,
			Vector:    obs.Embedding,
			Timestamp: obs.Timestamp,
			Text:      obs.Description,
		})
		if err != nil {
			s.logger.Warn("index upsert failed, queued for retry", "id", obs.ID, "error", err)
			s.queue(s.pendingUpsert, obs.ID)
			return true, nil
		}
	}
	s.flushPending(ctx)
	return true, nil
}

// PendingIndexWrites reports how many index upserts and deletes are queued.
func (s *Store) PendingIndexWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingUpsert) + len(s.pendingDelete)
}

func (s *Store) queue(set map[string]struct{}, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if len(set) >= maxPending {
			return
		}
		set[id] = struct{}{}
	}
}

func (s *Store) drain(set map[string]struct{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
		delete(set, id)
	}
	sort.Strings(ids)
	return ids
}

// flushPending retries index writes that failed earlier. Failures are
// requeued and logged.
func (s *Store) flushPending(ctx context.Context) {
	if ids := s.drain(s.pendingDelete); len(ids) > 0 {
		if err := s.index.Delete(ctx, ids...); err != nil {
			s.logger.Warn("retry index delete failed", "count", len(ids), "error", err)
			s.queue(s.pendingDelete, ids...)
		}
	}

	ids := s.drain(s.pendingUpsert)
	if len(ids) == 0 {
		return
	}
	rows, err := s.observations.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("load pending index rows failed", "count", len(ids), "error", err)
		s.queue(s.pendingUpsert, ids...)
		return
	}
	points := make([]vectorstore.Point, 0, len(rows))
	for _, id := range ids {
		// Rows pruned in the meantime need no index entry.
		if o, ok := rows[id]; ok && o.HasEmbedding() {
			points = append(points, toPoint(o))
		}
	}
	if len(points) == 0 {
		return
	}
	if err := s.index.Upsert(ctx, points...); err != nil {
		s.logger.Warn("retry index upsert failed", "count", len(points), "error", err)
		s.queue(s.pendingUpsert, ids...)
		return
	}
	s.logger.Info("pending index entries restored", "count", len(points))
}

func toPoint(o *models.Observation) vectorstore.Point {
	return vectorstore.Point{ID: o.ID, Vector: o.Embedding, Timestamp: o.Timestamp, Text: o.Description}
}

// QueryByTimeRange returns observations with start <= timestamp <= end,
// oldest first.
func (s *Store) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]models.Observation, error) {
	return s.QueryRange(ctx, start, end, 0)
}

// QueryRange is QueryByTimeRange keeping only the newest limit rows when
// limit > 0. Rows are still returned oldest first.
func (s *Store) QueryRange(ctx context.Context, start, end time.Time, limit int) ([]models.Observation, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	obs, err := s.observations.Range(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = []models.Observation{}
	}
	return obs, nil
}

// QuerySimilar returns up to topK embedded observations ordered by descending
// similarity, ties broken by the more recent timestamp.
func (s *Store) QuerySimilar(ctx context.Context, q Query, topK int) ([]models.ScoredObservation, error) {
	if topK <= 0 {
		return []models.ScoredObservation{}, nil
	}
	s.flushPending(ctx)

	vec := q.Embedding
	if len(vec) == 0 {
		if q.Text == "" {
			return nil, ErrEmptyQuery
		}
		var err error
		vec, err = s.embedder.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
	}

	hits, err := s.index.Search(ctx, vec, topK+s.overfetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return []models.ScoredObservation{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	rows, err := s.observations.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]models.ScoredObservation, 0, len(hits))
	for _, h := range hits {
		row, ok := rows[h.ID]
		if !ok || !row.HasEmbedding() {
			// Index entry outlived its row (pruned or never committed).
			continue
		}
		score := h.Score
		if len(row.Embedding) == len(vec) {
			score = CosineSimilarity(vec, row.Embedding)
		}
		results = append(results, models.ScoredObservation{Observation: *row, Score: score})
	}

	sortScored(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// GetByID returns one observation or nil.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Observation, error) {
	return s.observations.GetByID(ctx, id)
}

// Stats summarises the stored records.
func (s *Store) Stats(ctx context.Context) (*models.StoreStats, error) {
	return s.observations.Stats(ctx)
}

// Reconcile walks every embedded row and upserts the ones the index lacks,
// then retries queued deletes. It returns the number of points written.
// Orphaned index entries never hide missing ones; queries skip them.
func (s *Store) Reconcile(ctx context.Context) (int, error) {
	written := 0
	after := ""
	for {
		batch, err := s.observations.EmbeddedBatch(ctx, after, reconcileBatch)
		if err != nil {
			return written, err
		}
		if len(batch) == 0 {
			break
		}
		after = batch[len(batch)-1].ID

		ids := make([]string, len(batch))
		byID := make(map[string]*models.Observation, len(batch))
		for i := range batch {
			ids[i] = batch[i].ID
			byID[batch[i].ID] = &batch[i]
		}
		missing, err := s.index.Missing(ctx, ids...)
		if err != nil {
			return written, fmt.Errorf("check index: %w", err)
		}
		if len(missing) == 0 {
			continue
		}
		points := make([]vectorstore.Point, len(missing))
		for i, id := range missing {
			points[i] = toPoint(byID[id])
		}
		if err := s.index.Upsert(ctx, points...); err != nil {
			return written, fmt.Errorf("reindex: %w", err)
		}
		written += len(points)
	}

	if ids := s.drain(s.pendingDelete); len(ids) > 0 {
		if err := s.index.Delete(ctx, ids...); err != nil {
			s.queue(s.pendingDelete, ids...)
			return written, fmt.Errorf("retry index delete: %w", err)
		}
	}

	if written > 0 {
		s.logger.Info("vector index reconciled", "restored", written)
	}
	return written, nil
}

// Prune deletes observations older than before from SQLite and the index.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	ids, err := s.observations.IDsBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := s.observations.DeleteBefore(ctx, before)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(ids); start += reconcileBatch {
		end := min(start+reconcileBatch, len(ids))
		if err := s.index.Delete(ctx, ids[start:end]...); err != nil {
			// Orphans are skipped at query time until the retry lands.
			s.logger.Warn("prune index entries failed, queued for retry", "error", err)
			s.queue(s.pendingDelete, ids[start:]...)
			break
		}
	}
	return n, nil
}

// HealthCheck reports whether the vector index is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.index.HealthCheck(ctx)
}

func sortScored(results []models.ScoredObservation) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
