package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"telemetrypulse/internal/api/response"
	"telemetrypulse/internal/cache"
	"telemetrypulse/internal/metrics"
	"telemetrypulse/internal/report"
	"telemetrypulse/pkg/models"
)

// QueryRunner is the interface the dispatch handler depends on.
type QueryRunner interface {
	Run(ctx context.Context, key string, version *string) ([]models.Row, error)
}

// NewQueryHandler returns an http.HandlerFunc for
// GET /api/v1/queries/{queryKey}. A nil cache disables result caching.
func NewQueryHandler(runner QueryRunner, c cache.Cache, cacheTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "queryKey")
		rawVersion := r.URL.Query().Get("version")
		var version *string
		if rawVersion != "" {
			version = &rawVersion
		}

		cacheKey := cache.QueryResultKey(key, rawVersion)
		if c != nil {
			if cached, found, err := c.Get(r.Context(), cacheKey); err == nil && found {
				response.JSON(w, json.RawMessage(cached))
				return
			}
		}

		start := time.Now()
		rows, err := runner.Run(r.Context(), key, version)
		if err != nil {
			if errors.Is(err, report.ErrUnknownQuery) {
				response.Error(w, http.StatusNotFound, "UNKNOWN_QUERY", "Unknown query", nil)
				return
			}
			slog.Error("run catalog query", "error", err, "query", key)
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Query execution failed", nil)
			return
		}
		metrics.QueryDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())

		if rows == nil {
			rows = []models.Row{}
		}

		if c != nil {
			// Best effort: a cache write failure never fails the read.
			if encoded, err := json.Marshal(rows); err == nil {
				if err := c.Set(r.Context(), cacheKey, encoded, cacheTTL); err != nil {
					slog.Warn("cache query result", "error", err, "query", key)
				}
			}
		}

		response.JSON(w, rows)
	}
}
