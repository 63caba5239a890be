package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/hyprcontext/internal/memory"
	"github.com/iammorganparry/hyprcontext/internal/models"
)

const (
	defaultTopK   = 10
	maxTopK       = 100
	defaultLimit  = 200
	maxRecentDays = 30
)

type ObservationHandler struct {
	retriever Retriever
}

func NewObservationHandler(retriever Retriever) *ObservationHandler {
	return &ObservationHandler{retriever: retriever}
}

// Range handles GET /observations?start=&end=
func (h *ObservationHandler) Range(w http.ResponseWriter, r *http.Request) {
	start, err := parseTime(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start: "+err.Error())
		return
	}
	end, err := parseTime(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end: "+err.Error())
		return
	}

	obs, err := h.retriever.QueryByTimeRange(r.Context(), start, end)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(obs))
}

// Day handles GET /observations/day/{date}
func (h *ObservationHandler) Day(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "today" {
		date = time.Now().Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	obs, err := h.retriever.Day(r.Context(), date)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(obs))
}

// Recent handles GET /observations/recent?days=&limit=
func (h *ObservationHandler) Recent(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 {
		days = 1
	}
	if days > maxRecentDays {
		days = maxRecentDays
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}

	obs, err := h.retriever.LastDays(r.Context(), days, limit)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(obs))
}

// Search handles POST /observations/search
func (h *ObservationHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" && len(req.Embedding) == 0 {
		writeError(w, http.StatusBadRequest, "query or embedding is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	if req.TopK > maxTopK {
		req.TopK = maxTopK
	}

	results, err := h.retriever.QuerySimilar(r.Context(), memory.Query{Text: req.Query, Embedding: req.Embedding}, req.TopK)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	if results == nil {
		results = []models.ScoredObservation{}
	}
	writeJSON(w, http.StatusOK, models.SearchResponse{Results: results, Total: len(results)})
}

// Get handles GET /observations/{id}
func (h *ObservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	obs, err := h.retriever.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if obs == nil {
		writeError(w, http.StatusNotFound, "observation not found")
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

// Stats handles GET /stats
func (h *ObservationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.retriever.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing RFC3339 timestamp")
	}
	return time.Parse(time.RFC3339Nano, s)
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, memory.ErrInvalidRange), errors.Is(err, memory.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func listResponse(obs []models.Observation) models.ObservationListResponse {
	if obs == nil {
		obs = []models.Observation{}
	}
	return models.ObservationListResponse{Observations: obs, Total: len(obs)}
}
