package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

const observationColumns = `id, ts, active_application, window_title, description, labels, tags, private, embedding, embedding_model`

var (
	minNanos = time.Unix(0, math.MinInt64)
	maxNanos = time.Unix(0, math.MaxInt64)
)

// toNanos is t.UnixNano clamped to the int64 range, so bounds far outside
// 1678..2262 still order correctly against stored timestamps.
func toNanos(t time.Time) int64 {
	switch {
	case t.Before(minNanos):
		return math.MinInt64
	case t.After(maxNanos):
		return math.MaxInt64
	}
	return t.UnixNano()
}

// ObservationStore handles observation persistence in SQLite.
type ObservationStore struct {
	db *DB
}

func NewObservationStore(db *DB) *ObservationStore {
	return &ObservationStore{db: db}
}

// Insert writes an observation unless a row with the same id already exists.
// It reports whether a new row was created.
func (s *ObservationStore) Insert(ctx context.Context, o *models.Observation) (bool, error) {
	labelsJSON, _ := json.Marshal(nonNil(o.Labels))
	tagsJSON, _ := json.Marshal(nonNil(o.Tags))

	var embModel sql.NullString
	if o.EmbeddingModel != "" {
		embModel = sql.NullString{String: o.EmbeddingModel, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (`+observationColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, o.ID, toNanos(o.Timestamp), o.ActiveApplication, o.WindowTitle, o.Description,
		string(labelsJSON), string(tagsJSON), boolToInt(o.Private),
		Float32ToBytes(o.Embedding), embModel, time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("insert observation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert observation: %w", err)
	}
	return n == 1, nil
}

// GetByID returns a single observation, or nil if not found.
func (s *ObservationStore) GetByID(ctx context.Context, id string) (*models.Observation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+observationColumns+` FROM observations WHERE id = ?`, id)
	o, err := scanObservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get observation: %w", err)
	}
	return o, nil
}

// GetMany returns the observations with the given ids, keyed by id. Missing ids
// are absent from the map.
func (s *ObservationStore) GetMany(ctx context.Context, ids []string) (map[string]*models.Observation, error) {
	out := make(map[string]*models.Observation, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+observationColumns+` FROM observations WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get observations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out[o.ID] = o
	}
	return out, rows.Err()
}

// Range returns observations with start <= ts <= end in ascending timestamp
// order. A limit of zero or less returns every matching row.
func (s *ObservationStore) Range(ctx context.Context, start, end time.Time, limit int) ([]models.Observation, error) {
	query := `SELECT ` + observationColumns + ` FROM observations WHERE ts >= ? AND ts <= ? ORDER BY ts ASC, id ASC`
	args := []any{toNanos(start), toNanos(end)}
	if limit > 0 {
		// Keep the newest rows when a limit applies, still returned ascending.
		query = `SELECT * FROM (SELECT ` + observationColumns + ` FROM observations
			WHERE ts >= ? AND ts <= ? ORDER BY ts DESC, id DESC LIMIT ?) ORDER BY ts ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("range observations: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// EmbeddedBatch returns up to limit embedded observations with id greater than
// afterID, ordered by id. Used to rebuild the vector index.
func (s *ObservationStore) EmbeddedBatch(ctx context.Context, afterID string, limit int) ([]models.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+observationColumns+` FROM observations
		WHERE embedding IS NOT NULL AND length(embedding) > 0 AND id > ?
		ORDER BY id ASC LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list embedded observations: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// IDsBefore returns the ids of observations with ts < before.
func (s *ObservationStore) IDsBefore(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM observations WHERE ts < ?`, toNanos(before))
	if err != nil {
		return nil, fmt.Errorf("list expired observations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteBefore removes observations with ts < before and returns the count.
func (s *ObservationStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE ts < ?`, toNanos(before))
	if err != nil {
		return 0, fmt.Errorf("delete observations: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns aggregate counts and the oldest/newest timestamps.
func (s *ObservationStore) Stats(ctx context.Context) (*models.StoreStats, error) {
	var (
		stats          models.StoreStats
		oldest, newest sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN embedding IS NOT NULL AND length(embedding) > 0 THEN 1 ELSE 0 END), 0),
		       MIN(ts), MAX(ts)
		FROM observations
	`).Scan(&stats.TotalRecords, &stats.EmbeddedRecords, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("observation stats: %w", err)
	}
	if oldest.Valid {
		t := time.Unix(0, oldest.Int64)
		stats.Oldest = &t
	}
	if newest.Valid {
		t := time.Unix(0, newest.Int64)
		stats.Newest = &t
	}
	return &stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObservation(row scanner) (*models.Observation, error) {
	var (
		o          models.Observation
		ts         int64
		labelsJSON sql.NullString
		tagsJSON   sql.NullString
		private    int
		embedding  []byte
		embModel   sql.NullString
	)
	err := row.Scan(
		&o.ID, &ts, &o.ActiveApplication, &o.WindowTitle, &o.Description,
		&labelsJSON, &tagsJSON, &private, &embedding, &embModel,
	)
	if err != nil {
		return nil, err
	}

	o.Timestamp = time.Unix(0, ts)
	o.Private = private != 0
	o.Embedding = BytesToFloat32(embedding)
	if embModel.Valid {
		o.EmbeddingModel = embModel.String
	}
	if labelsJSON.Valid && labelsJSON.String != "" {
		if err := json.Unmarshal([]byte(labelsJSON.String), &o.Labels); err != nil {
			return nil, fmt.Errorf("decode labels of %s: %w", o.ID, err)
		}
	}
	o.Tags = []string{}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &o.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", o.ID, err)
		}
	}
	return &o, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
