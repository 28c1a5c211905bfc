package handler

import (
	"log/slog"
	"net/http"

	"telemetrypulse/internal/api/response"
	"telemetrypulse/internal/report"
)

// NewSummaryHandler returns an http.HandlerFunc for GET /api/v1/summary.
func NewSummaryHandler(s report.SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := report.ComputeSummary(r.Context(), s)
		if err != nil {
			slog.Error("compute kpi summary", "error", err)
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Summary computation failed", nil)
			return
		}
		response.JSON(w, summary)
	}
}
