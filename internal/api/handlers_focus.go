package api

import (
	"log/slog"
	"net/http"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

type FocusHandler struct {
	source FocusSource
	ledger FocusLedger
	logger *slog.Logger
}

func NewFocusHandler(source FocusSource, ledger FocusLedger, logger *slog.Logger) *FocusHandler {
	return &FocusHandler{source: source, ledger: ledger, logger: logger}
}

// Focus handles GET /focus
func (h *FocusHandler) Focus(w http.ResponseWriter, r *http.Request) {
	resp := models.FocusResponse{Watchdog: h.source.Snapshot()}

	if h.ledger != nil {
		today, err := h.ledger.Today()
		if err != nil {
			h.logger.Warn("focus ledger read failed", "error", err)
		} else {
			resp.Today = today
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
