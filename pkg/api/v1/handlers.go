package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"Dormant/internal/analytics"
	"Dormant/internal/models"
)

// maxTriggerBytes bounds the trigger payload accepted by HandleTriggerPass
const maxTriggerBytes = 64 << 10

// PassRunner runs a single evaluation pass
type PassRunner interface {
	RunPass(ctx context.Context, trigger []byte) (models.PassSummary, error)
}

// Handler provides HTTP API endpoints
type Handler struct {
	runner  PassRunner
	tracker *analytics.Tracker
}

// NewHandler creates a new API handler
func NewHandler(runner PassRunner, tracker *analytics.Tracker) *Handler {
	return &Handler{
		runner:  runner,
		tracker: tracker,
	}
}

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// HandleSummary returns the summary of the most recent pass
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.tracker.LastPass()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no pass has run yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleTriggerPass runs one pass with the request body as trigger payload
func (h *Handler) HandleTriggerPass(w http.ResponseWriter, r *http.Request) {
	trigger, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTriggerBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "trigger payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read trigger payload"})
		return
	}
	if len(trigger) > 0 && !json.Valid(trigger) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "trigger payload must be JSON"})
		return
	}

	summary, err := h.runner.RunPass(r.Context(), trigger)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "pass did not run",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
