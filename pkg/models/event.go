package models

import (
	"time"

	"github.com/google/uuid"
)

// TelemetryEvent is one immutable, timestamped record of a client-observed
// occurrence. The payload is free-form JSON, sanitized before it ever
// reaches the store. Events carry no reference to any user identity; the
// anonymous id is an analytics-layer-only value.
type TelemetryEvent struct {
	ID              uuid.UUID      `db:"id"               json:"id"`
	Event           string         `db:"event"            json:"event"`
	AnonymousID     string         `db:"anonymous_id"     json:"anonymous_id"`
	Version         *string        `db:"version"          json:"version,omitempty"`
	OS              *string        `db:"os"               json:"os,omitempty"`
	Arch            *string        `db:"arch"             json:"arch,omitempty"`
	BunVersion      *string        `db:"bun_version"      json:"bun_version,omitempty"`
	ClientTimestamp *time.Time     `db:"client_timestamp" json:"client_timestamp,omitempty"`
	ServerTimestamp time.Time      `db:"server_timestamp" json:"server_timestamp"`
	Payload         map[string]any `db:"payload"          json:"payload"`
}

// Row is one result row of an aggregate query: column name to scalar value.
type Row map[string]any
