package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"telemetrypulse/internal/api/response"
	"telemetrypulse/internal/metrics"
	"telemetrypulse/internal/sanitize"
	"telemetrypulse/pkg/models"
)

// maxEventBodyBytes bounds worst-case parsing cost. Checked against the
// declared content length before the body is read at all.
const maxEventBodyBytes = 10240

// EventWriter is the interface the ingestion handler depends on.
type EventWriter interface {
	InsertEvent(ctx context.Context, event *models.TelemetryEvent) error
}

// NewIngestHandler returns an http.HandlerFunc for POST /api/v1/events.
func NewIngestHandler(s EventWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxEventBodyBytes {
			metrics.EventsRejected.WithLabelValues("too_large").Inc()
			response.Error(w, http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE", "Payload too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxEventBodyBytes)

		var req struct {
			Event       string         `json:"event"`
			AnonymousID string         `json:"anonymousId"`
			Version     *string        `json:"version"`
			OS          *string        `json:"os"`
			Arch        *string        `json:"arch"`
			BunVersion  *string        `json:"bunVersion"`
			Timestamp   string         `json:"timestamp"`
			Payload     map[string]any `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.EventsRejected.WithLabelValues("invalid_json").Inc()
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		var missing []string
		if req.Event == "" {
			missing = append(missing, "event")
		}
		if req.AnonymousID == "" {
			missing = append(missing, "anonymousId")
		}
		if len(missing) > 0 {
			metrics.EventsRejected.WithLabelValues("validation").Inc()
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"Missing required fields: "+strings.Join(missing, ", "), nil)
			return
		}

		var clientTS *time.Time
		if req.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				metrics.EventsRejected.WithLabelValues("validation").Inc()
				response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
					"timestamp must be a valid RFC3339 timestamp", nil)
				return
			}
			clientTS = &ts
		}

		event := &models.TelemetryEvent{
			ID:              uuid.New(),
			Event:           req.Event,
			AnonymousID:     req.AnonymousID,
			Version:         req.Version,
			OS:              req.OS,
			Arch:            req.Arch,
			BunVersion:      req.BunVersion,
			ClientTimestamp: clientTS,
			Payload:         sanitize.Payload(req.Payload),
		}

		if err := s.InsertEvent(r.Context(), event); err != nil {
			// A lost write is a data-integrity problem; surface it.
			slog.Error("insert telemetry event", "error", err, "event", req.Event)
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to record event", nil)
			return
		}

		metrics.EventsIngested.WithLabelValues(event.Event).Inc()
		response.JSON(w, map[string]bool{"success": true})
	}
}
