package api

import (
	"context"
	"net/http"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

const healthTimeout = 3 * time.Second

type HealthHandler struct {
	db     Counter
	index  Checker
	models Checker
}

func NewHealthHandler(db Counter, index Checker, modelCheck Checker) *HealthHandler {
	return &HealthHandler{db: db, index: index, models: modelCheck}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := models.HealthResponse{
		Status: "ok",
	}

	// Hosted providers have no cheap health check.
	if h.models == nil {
		resp.Models = models.ServiceCheck{Status: "skipped"}
	} else if err := h.models.HealthCheck(ctx); err != nil {
		resp.Models = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.Models = models.ServiceCheck{Status: "ok"}
	}

	if err := h.index.HealthCheck(ctx); err != nil {
		resp.VectorIndex = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.VectorIndex = models.ServiceCheck{Status: "ok"}
	}

	count, err := h.db.ObservationCount()
	if err != nil {
		resp.DB = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.DB = models.ServiceCheck{Status: "ok"}
		resp.RecordCount = count
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
