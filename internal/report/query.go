// Package report holds the fixed catalog of telemetry aggregations and the
// KPI summary computation. Each catalog entry is a typed descriptor — event
// matcher, grouping columns, optional average — evaluated by a single SQL
// generator, so the optional-version-filter convention is applied in exactly
// one place.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telemetrypulse/pkg/models"
)

var ErrUnknownQuery = errors.New("unknown query")

// MatchKind selects how a catalog entry filters the event column.
type MatchKind int

const (
	MatchAll MatchKind = iota
	MatchExact
	MatchLike
	MatchIn
)

// EventMatcher is the event-type selection of one catalog entry.
type EventMatcher struct {
	Kind    MatchKind
	Pattern string   // exact value or LIKE pattern
	Set     []string // for MatchIn
}

// GroupKind selects the SQL expression a grouping column is derived from.
type GroupKind int

const (
	// GroupColumn groups by a plain table column.
	GroupColumn GroupKind = iota
	// GroupPayloadField groups by a top-level JSON payload field.
	GroupPayloadField
	// GroupPayloadPrefix groups by the first 200 characters of a payload
	// field, so long error messages collapse into readable groups.
	GroupPayloadPrefix
	// GroupBuildBucket classifies payload durationMs (milliseconds) into
	// <1s / 1-5s / 5-15s / >15s.
	GroupBuildBucket
	// GroupSessionBucket classifies payload duration (seconds) into
	// <1m / 1-5m / 5-15m / 15-60m / >60m.
	GroupSessionBucket
	// GroupServerDate buckets by the write-time date. Authoritative for
	// time ordering.
	GroupServerDate
	// GroupClientDate buckets by the client-reported date. Subject to
	// clock skew; fine for coarse daily series.
	GroupClientDate
)

// Group is one grouping column of a catalog entry.
type Group struct {
	Kind  GroupKind
	Field string // table column or payload key, depending on Kind
	Alias string // output column name
}

// Query is one catalog entry: a stable key plus the typed parameters the
// evaluator turns into SQL.
type Query struct {
	Key    string
	Match  EventMatcher
	Groups []Group
	// AvgField, when set, adds an average of this numeric payload field
	// alongside the count.
	AvgField string
	AvgAlias string
	// TimeSeries orders by the first group key descending (most recent
	// first) instead of by count.
	TimeSeries bool
}

const truncateLen = 200

// buildBucketSQL classifies a numeric payload field into labeled half-open
// ranges. Null or non-numeric source values land in the NULL bucket, which
// stays distinct from any literal "unknown" string in real data.
func buildBucketSQL(field string, bounds []int64, labels []string) string {
	var b strings.Builder
	b.WriteString("CASE")
	fmt.Fprintf(&b, ` WHEN payload->>'%s' IS NULL OR payload->>'%s' !~ '^\d+$' THEN NULL`, field, field)
	for i, bound := range bounds {
		fmt.Fprintf(&b, ` WHEN (payload->>'%s')::bigint < %d THEN '%s'`, field, bound, labels[i])
	}
	fmt.Fprintf(&b, ` ELSE '%s' END`, labels[len(labels)-1])
	return b.String()
}

func (g Group) sql() string {
	switch g.Kind {
	case GroupColumn:
		return g.Field
	case GroupPayloadField:
		return fmt.Sprintf("payload->>'%s'", g.Field)
	case GroupPayloadPrefix:
		return fmt.Sprintf("left(payload->>'%s', %d)", g.Field, truncateLen)
	case GroupBuildBucket:
		return buildBucketSQL(g.Field,
			[]int64{1000, 5000, 15000},
			[]string{"<1s", "1-5s", "5-15s", ">15s"})
	case GroupSessionBucket:
		return buildBucketSQL(g.Field,
			[]int64{60, 300, 900, 3600},
			[]string{"<1m", "1-5m", "5-15m", "15-60m", ">60m"})
	case GroupServerDate:
		return "date(server_timestamp)"
	case GroupClientDate:
		return "date(client_timestamp)"
	default:
		panic(fmt.Sprintf("report: unknown group kind %d", g.Kind))
	}
}

// predicate returns the event-filter clause for the matcher, or "" for
// MatchAll. argIdx numbers the next placeholder.
func (m EventMatcher) predicate(argIdx int) (string, any) {
	switch m.Kind {
	case MatchAll:
		return "", nil
	case MatchExact:
		return fmt.Sprintf("event = $%d", argIdx), m.Pattern
	case MatchLike:
		return fmt.Sprintf("event LIKE $%d", argIdx), m.Pattern
	case MatchIn:
		return fmt.Sprintf("event = ANY($%d)", argIdx), m.Set
	default:
		panic(fmt.Sprintf("report: unknown match kind %d", m.Kind))
	}
}

// SQL renders the query for an optional version filter. With a version, a
// version-equality predicate is ANDed in and the version column is omitted
// from grouping and output; without one, version joins the group list so the
// caller sees the per-version breakdown. Absent clauses are simply dropped —
// no malformed WHERE with zero or one filter present.
func (q Query) SQL(version *string) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if cond, arg := q.Match.predicate(argIdx); cond != "" {
		conditions = append(conditions, cond)
		args = append(args, arg)
		argIdx++
	}
	if version != nil {
		conditions = append(conditions, fmt.Sprintf("version = $%d", argIdx))
		args = append(args, *version)
		argIdx++
	}

	groups := q.Groups
	if version == nil {
		groups = append(append([]Group{}, groups...),
			Group{Kind: GroupColumn, Field: "version", Alias: "version"})
	}

	var selects []string
	for _, g := range groups {
		selects = append(selects, fmt.Sprintf("%s AS %s", g.sql(), g.Alias))
	}
	selects = append(selects, `COUNT(*) AS count`)
	if q.AvgField != "" {
		selects = append(selects, fmt.Sprintf(
			`round(AVG(CASE WHEN payload->>'%s' ~ '^\d+$' THEN (payload->>'%s')::bigint END))::bigint AS %s`,
			q.AvgField, q.AvgField, q.AvgAlias))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selects, ", "))
	b.WriteString(" FROM telemetry_events")
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	if len(groups) > 0 {
		positions := make([]string, len(groups))
		for i := range groups {
			positions[i] = fmt.Sprintf("%d", i+1)
		}
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(positions, ", "))
	}
	if q.TimeSeries && len(q.Groups) > 0 {
		b.WriteString(fmt.Sprintf(" ORDER BY %s DESC", q.Groups[0].Alias))
	} else {
		b.WriteString(" ORDER BY count DESC")
	}

	return b.String(), args
}

// Store is the slice of the storage layer the evaluator needs.
type Store interface {
	SelectRows(ctx context.Context, query string, args ...any) ([]models.Row, error)
}

// Runner executes catalog entries against a store.
type Runner struct {
	store Store
}

// NewRunner creates a Runner.
func NewRunner(s Store) *Runner {
	return &Runner{store: s}
}

// Run looks up key in the catalog and executes it with the optional version
// filter. Returns ErrUnknownQuery for keys not in the catalog.
func (r *Runner) Run(ctx context.Context, key string, version *string) ([]models.Row, error) {
	q, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, key)
	}
	query, args := q.SQL(version)
	rows, err := r.store.SelectRows(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", key, err)
	}
	return rows, nil
}
