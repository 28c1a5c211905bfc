// Package metrics defines the Prometheus instrumentation for the telemetry
// service. All metrics are registered on the default registry and served by
// the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_events_ingested_total",
		Help: "Telemetry events accepted and written to the store, by event type.",
	}, []string{"event"})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_events_rejected_total",
		Help: "Ingestion requests rejected at the boundary, by reason.",
	}, []string{"reason"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "telemetry_query_duration_seconds",
		Help:    "Catalog aggregate query execution time, by query key.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
)
