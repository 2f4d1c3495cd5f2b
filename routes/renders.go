package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"manimserve/logger"
	"manimserve/records"
)

// RenderStatusResponse describes a render that is still queued or running.
type RenderStatusResponse struct {
	ID     string `json:"id"`
	Mode   string `json:"mode"`
	Status string `json:"status"`
}

// GetRender returns the live state of an in-flight render, or its stored
// record once finished.
func (h *Handler) GetRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "renderId")

	if live, ok := h.d.Dispatcher.Status(id); ok {
		writeJSON(w, http.StatusOK, RenderStatusResponse{ID: id, Mode: live.Mode, Status: live.State.String()})
		return
	}

	if h.d.Store != nil {
		rec, err := h.d.Store.Get(id)
		if err != nil {
			logger.Errorf("Failed to query render %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
		if rec != nil {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"id":      id,
		"status":  "not_found",
		"message": "No render found for this id",
	})
}

// ListRenders returns stored records, newest first. ?limit=N truncates.
func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	recs := []records.Record{}
	if h.d.Store != nil {
		var err error
		recs, err = h.d.Store.List()
		if err != nil {
			logger.Errorf("Failed to list render records: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		if limit < len(recs) {
			recs = recs[:limit]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"renders": recs,
		"count":   len(recs),
	})
}
