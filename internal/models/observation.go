package models

import "time"

// Observation is one capture cycle's structured result. It is the record
// persisted by the memory store and consumed by the focus watchdog.
type Observation struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	ActiveApplication string    `json:"activeApplication"`
	WindowTitle       string    `json:"windowTitle"`
	Description       string    `json:"description"`
	Labels            []string  `json:"labels,omitempty"`
	Tags              []string  `json:"tags"`
	Private           bool      `json:"private,omitempty"`
	Embedding         []float32 `json:"-"`
	EmbeddingModel    string    `json:"embeddingModel,omitempty"`
}

// HasEmbedding reports whether the observation takes part in similarity search.
func (o *Observation) HasEmbedding() bool {
	return len(o.Embedding) > 0
}

// Distracted reports whether any distraction category matched.
func (o *Observation) Distracted() bool {
	return len(o.Tags) > 0
}

// ScoredObservation pairs an observation with its similarity to a query.
type ScoredObservation struct {
	Observation
	Score float64 `json:"score"`
}

// EmbeddingCacheEntry is a cached text embedding keyed by model and text hash.
// Timestamps are Unix seconds.
type EmbeddingCacheEntry struct {
	Model       string `json:"model"`
	ContentHash string `json:"contentHash"`
	Embedding   []byte `json:"embedding"`
	Dimension   int    `json:"dimension"`
	CreatedAt   int64  `json:"createdAt"`
	LastUsedAt  int64  `json:"lastUsedAt"`
}
