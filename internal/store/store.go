package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"telemetrypulse/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// Events are append-only: one insert per ingestion request, no updates.
	InsertEvent(ctx context.Context, event *models.TelemetryEvent) error

	// SelectRows executes an aggregate query produced by the report package
	// and returns its rows as column-name-to-value maps, in result order.
	SelectRows(ctx context.Context, query string, args ...any) ([]models.Row, error)

	// KPI sub-queries. Each tolerates an empty table: counts are 0,
	// averages and top values are nil.
	CountEvents(ctx context.Context) (int64, error)
	CountEventsMatching(ctx context.Context, pattern string) (int64, error)
	AverageBuildDurationMs(ctx context.Context) (*float64, error)
	TopFramework(ctx context.Context) (*string, error)

	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}
