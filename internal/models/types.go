package models

import "time"

// SearchRequest is the body of POST /observations/search.
type SearchRequest struct {
	Query     string    `json:"query"`
	Embedding []float32 `json:"embedding,omitempty"`
	TopK      int       `json:"topK"`
}

// SearchResponse is returned from POST /observations/search.
type SearchResponse struct {
	Results []ScoredObservation `json:"results"`
	Total   int                 `json:"total"`
}

// ObservationListResponse is returned from the range, day and recent endpoints.
type ObservationListResponse struct {
	Observations []Observation `json:"observations"`
	Total        int           `json:"total"`
}

// StoreStats summarises the persisted record set.
type StoreStats struct {
	TotalRecords    int        `json:"totalRecords"`
	EmbeddedRecords int        `json:"embeddedRecords"`
	Oldest          *time.Time `json:"oldest,omitempty"`
	Newest          *time.Time `json:"newest,omitempty"`
}

// FocusDay is the per-day focus ledger entry.
type FocusDay struct {
	Date               string    `json:"date"`
	DistractionSeconds int64     `json:"distractionSeconds"`
	DistractedCount    int       `json:"distractedCount"`
	ObservationCount   int       `json:"observationCount"`
	AlertCount         int       `json:"alertCount"`
	LastDistraction    string    `json:"lastDistraction,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`

	// Daily distraction budget. Zero LimitSeconds means no budget.
	LimitSeconds     int64   `json:"limitSeconds"`
	RemainingSeconds int64   `json:"remainingSeconds"`
	PercentUsed      float64 `json:"percentUsed"`
	BudgetWarned     bool    `json:"budgetWarned"`
	BudgetSpent      bool    `json:"budgetSpent"`
}

// WatchdogSnapshot is the read-only view of the focus watchdog state.
type WatchdogSnapshot struct {
	Status                      string     `json:"status"`
	ConsecutiveDistractionCount int        `json:"consecutiveDistractionCount"`
	LastAlertTime               *time.Time `json:"lastAlertTime,omitempty"`
	Threshold                   int        `json:"threshold"`
}

// FocusResponse is returned from GET /focus.
type FocusResponse struct {
	Watchdog WatchdogSnapshot `json:"watchdog"`
	Today    *FocusDay        `json:"today,omitempty"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status      string       `json:"status"`
	Models      ServiceCheck `json:"models"`
	VectorIndex ServiceCheck `json:"vectorIndex"`
	DB          ServiceCheck `json:"db"`
	RecordCount int          `json:"recordCount"`
}

type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
