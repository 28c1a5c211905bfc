package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telemetrypulse/internal/report"
	"telemetrypulse/internal/store"
	"telemetrypulse/pkg/models"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("telemetrypulse_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func strPtr(s string) *string { return &s }

// insertEvent writes one event with the given type, version and payload.
func insertEvent(t *testing.T, s store.Store, event, version string, payload map[string]any) {
	t.Helper()
	ev := &models.TelemetryEvent{
		ID:          uuid.New(),
		Event:       event,
		AnonymousID: "anon-test",
		Payload:     payload,
	}
	if version != "" {
		ev.Version = strPtr(version)
	}
	if payload == nil {
		ev.Payload = map[string]any{}
	}
	require.NoError(t, s.InsertEvent(context.Background(), ev))
}

// --- Insert + aggregate round trips ---

func TestBuildDurationBuckets_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	runner := report.NewRunner(s)
	ctx := context.Background()

	insertEvent(t, s, "build:complete", "1.0.0", map[string]any{"durationMs": "750"})

	rows, err := runner.Run(ctx, "build-duration", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "<1s", rows[0]["duration_bucket"])
	assert.Equal(t, int64(1), rows[0]["count"])

	insertEvent(t, s, "build:complete", "1.0.0", map[string]any{"durationMs": "20000"})

	rows, err = runner.Run(ctx, "build-duration", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	buckets := map[any]any{}
	for _, row := range rows {
		buckets[row["duration_bucket"]] = row["count"]
	}
	assert.Equal(t, int64(1), buckets["<1s"])
	assert.Equal(t, int64(1), buckets[">15s"])
}

func TestSessionDurationBuckets_Boundaries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	runner := report.NewRunner(s)
	ctx := context.Background()

	// Upper bounds are exclusive: exactly 3600 lands in >60m, not 15-60m.
	insertEvent(t, s, "dev:session-duration", "1.0.0", map[string]any{"duration": "45"})
	insertEvent(t, s, "dev:session-duration", "1.0.0", map[string]any{"duration": "3600"})

	rows, err := runner.Run(ctx, "dev-sessions", strPtr("1.0.0"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	buckets := map[any]any{}
	for _, row := range rows {
		buckets[row["duration_bucket"]] = row["count"]
	}
	assert.Equal(t, int64(1), buckets["<1m"])
	assert.Equal(t, int64(1), buckets[">60m"])
}

func TestBuckets_NonNumericFallsIntoNullBucket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	runner := report.NewRunner(s)
	ctx := context.Background()

	insertEvent(t, s, "build:complete", "1.0.0", map[string]any{"durationMs": "oops"})
	insertEvent(t, s, "build:complete", "1.0.0", nil)

	rows, err := runner.Run(ctx, "build-duration", strPtr("1.0.0"))
	require.NoError(t, err)
	// Both events group into the single NULL bucket; neither is dropped.
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["duration_bucket"])
	assert.Equal(t, int64(2), rows[0]["count"])
}

// --- Version filter convention ---

func TestVersionFilter_Convention(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	runner := report.NewRunner(s)
	ctx := context.Background()

	insertEvent(t, s, "build:error", "1.0.0", map[string]any{"message": "boom"})
	insertEvent(t, s, "build:error", "1.0.0", map[string]any{"message": "boom"})
	insertEvent(t, s, "build:error", "2.0.0", map[string]any{"message": "boom"})
	insertEvent(t, s, "build:error", "", map[string]any{"message": "boom"})

	// Filtered: rows scoped to one version, no version column.
	rows, err := runner.Run(ctx, "build-errors", strPtr("1.0.0"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0]["count"])
	assert.NotContains(t, rows[0], "version")

	// Unfiltered: per-version breakdown, version column included; the
	// null-version event is its own group, not dropped.
	rows, err = runner.Run(ctx, "build-errors", nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var total int64
	versions := map[any]bool{}
	for _, row := range rows {
		require.Contains(t, row, "version")
		versions[row["version"]] = true
		total += row["count"].(int64)
	}
	assert.Equal(t, int64(4), total)
	assert.True(t, versions["1.0.0"])
	assert.True(t, versions["2.0.0"])
	assert.True(t, versions[nil])
}

func TestVersionAdoption_CountsPerVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	runner := report.NewRunner(s)
	ctx := context.Background()

	insertEvent(t, s, "dev:start", "1.0.0", nil)
	insertEvent(t, s, "build:start", "1.0.0", nil)
	insertEvent(t, s, "dev:start", "2.0.0", nil)

	rows, err := runner.Run(ctx, "version-adoption", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Ordered by count descending.
	assert.Equal(t, "1.0.0", rows[0]["version"])
	assert.Equal(t, int64(2), rows[0]["count"])
	assert.Equal(t, "2.0.0", rows[1]["version"])

	// With a version argument the entry degenerates to a single count.
	rows, err = runner.Run(ctx, "version-adoption", strPtr("1.0.0"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0]["count"])
	assert.NotContains(t, rows[0], "version")
}

func TestCatalogQuery_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	runner := report.NewRunner(s)
	ctx := context.Background()

	insertEvent(t, s, "cli:command", "1.0.0", map[string]any{"command": "dev"})
	insertEvent(t, s, "cli:command", "1.0.0", map[string]any{"command": "dev"})
	insertEvent(t, s, "cli:command", "1.0.0", map[string]any{"command": "build"})

	first, err := runner.Run(ctx, "cli-commands", nil)
	require.NoError(t, err)
	second, err := runner.Run(ctx, "cli-commands", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Ordered by count descending.
	assert.Equal(t, "dev", first[0]["command"])
	assert.Equal(t, int64(2), first[0]["count"])
}

func TestEveryCatalogEntry_ExecutesAgainstRealSchema(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	runner := report.NewRunner(s)
	ctx := context.Background()

	insertEvent(t, s, "hmr:rebuild-error", "1.0.0", map[string]any{"error": "boom"})

	for _, key := range report.Keys() {
		_, err := runner.Run(ctx, key, nil)
		assert.NoError(t, err, key)

		_, err = runner.Run(ctx, key, strPtr("1.0.0"))
		assert.NoError(t, err, key)
	}
}

// --- KPI sub-queries ---

func TestKPISubQueries_EmptyStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	total, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	matching, err := s.CountEventsMatching(ctx, "%error%")
	require.NoError(t, err)
	assert.Equal(t, int64(0), matching)

	avg, err := s.AverageBuildDurationMs(ctx)
	require.NoError(t, err)
	assert.Nil(t, avg)

	top, err := s.TopFramework(ctx)
	require.NoError(t, err)
	assert.Nil(t, top)
}

func TestKPISubQueries_Populated(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	insertEvent(t, s, "build:start", "1.0.0", map[string]any{"framework": "react"})
	insertEvent(t, s, "build:start", "1.0.0", map[string]any{"framework": "react"})
	insertEvent(t, s, "build:start", "1.0.0", map[string]any{"framework": "svelte"})
	insertEvent(t, s, "build:complete", "1.0.0", map[string]any{"durationMs": "1000"})
	insertEvent(t, s, "build:complete", "1.0.0", map[string]any{"durationMs": "2000"})
	insertEvent(t, s, "hmr:rebuild-error", "1.0.0", nil)

	total, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	matching, err := s.CountEventsMatching(ctx, "%error%")
	require.NoError(t, err)
	assert.Equal(t, int64(1), matching)

	avg, err := s.AverageBuildDurationMs(ctx)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 1500.0, *avg, 0.001)

	top, err := s.TopFramework(ctx)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "react", *top)
}

// --- API keys ---

func TestAPIKey_CreateGetRevoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	key := &models.APIKey{
		ID:        uuid.New(),
		Name:      "dashboard",
		KeyHash:   "bcrypt-hash-here",
		KeyPrefix: "tp_abcde",
		Scopes:    []string{"read"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	require.NoError(t, s.CreateAPIKey(ctx, key))

	keys, err := s.GetAPIKeysByPrefix(ctx, "tp_abcde")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, "dashboard", keys[0].Name)
	assert.Equal(t, []string{"read"}, keys[0].Scopes)

	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))

	keys, err = s.GetAPIKeysByPrefix(ctx, "tp_abcde")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// Revoking twice is a not-found.
	assert.ErrorIs(t, s.RevokeAPIKey(ctx, key.ID), store.ErrNotFound)
}

func TestAPIKey_CreateDuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	key := &models.APIKey{
		ID: uuid.New(), Name: "a", KeyHash: "h", KeyPrefix: "tp_aaaaa",
		Scopes: []string{"read"}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))
	assert.ErrorIs(t, s.CreateAPIKey(ctx, key), store.ErrDuplicateKey)
}
