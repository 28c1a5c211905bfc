package report

// The catalog. Keys are stable: dashboards address aggregations by these
// strings. Every entry follows the shared version-filter convention applied
// by Query.SQL.
var catalog = []Query{
	{
		Key:    "error-rates",
		Match:  EventMatcher{Kind: MatchLike, Pattern: "%error%"},
		Groups: []Group{{Kind: GroupColumn, Field: "event", Alias: "event"}},
	},
	{
		Key:    "build-errors",
		Match:  EventMatcher{Kind: MatchExact, Pattern: "build:error"},
		Groups: []Group{{Kind: GroupPayloadPrefix, Field: "message", Alias: "message"}},
	},
	{
		Key:    "framework-popularity",
		Match:  EventMatcher{Kind: MatchExact, Pattern: "build:start"},
		Groups: []Group{{Kind: GroupPayloadField, Field: "framework", Alias: "framework"}},
	},
	{
		Key:    "hmr-reliability",
		Match:  EventMatcher{Kind: MatchLike, Pattern: "hmr:%"},
		Groups: []Group{{Kind: GroupColumn, Field: "event", Alias: "event"}},
	},
	{
		Key:      "build-duration",
		Match:    EventMatcher{Kind: MatchExact, Pattern: "build:complete"},
		Groups:   []Group{{Kind: GroupBuildBucket, Field: "durationMs", Alias: "duration_bucket"}},
		AvgField: "durationMs",
		AvgAlias: "avg_duration_ms",
	},
	{
		Key:   "version-adoption",
		Match: EventMatcher{Kind: MatchAll},
		// No event-specific groups: the implicit version column is the
		// whole breakdown.
	},
	{
		Key:   "platform-breakdown",
		Match: EventMatcher{Kind: MatchAll},
		Groups: []Group{
			{Kind: GroupColumn, Field: "os", Alias: "os"},
			{Kind: GroupColumn, Field: "arch", Alias: "arch"},
		},
	},
	{
		Key:   "server-crashes",
		Match: EventMatcher{Kind: MatchExact, Pattern: "dev:server-crash"},
		Groups: []Group{
			{Kind: GroupServerDate, Field: "server_timestamp", Alias: "date"},
			{Kind: GroupPayloadField, Field: "exitCode", Alias: "exit_code"},
		},
		TimeSeries: true,
	},
	{
		Key:    "cli-commands",
		Match:  EventMatcher{Kind: MatchExact, Pattern: "cli:command"},
		Groups: []Group{{Kind: GroupPayloadField, Field: "command", Alias: "command"}},
	},
	{
		Key:      "hmr-rebuilds",
		Match:    EventMatcher{Kind: MatchExact, Pattern: "hmr:rebuild-complete"},
		Groups:   []Group{{Kind: GroupBuildBucket, Field: "durationMs", Alias: "duration_bucket"}},
		AvgField: "durationMs",
		AvgAlias: "avg_duration_ms",
	},
	{
		Key:    "dev-sessions",
		Match:  EventMatcher{Kind: MatchExact, Pattern: "dev:session-duration"},
		Groups: []Group{{Kind: GroupSessionBucket, Field: "duration", Alias: "duration_bucket"}},
	},
	{
		Key:    "build-empty",
		Match:  EventMatcher{Kind: MatchExact, Pattern: "build:empty"},
		Groups: []Group{{Kind: GroupPayloadField, Field: "pass", Alias: "pass"}},
	},
	{
		Key:    "missing-manifest",
		Match:  EventMatcher{Kind: MatchExact, Pattern: "build:missing-manifest-entry"},
		Groups: []Group{{Kind: GroupPayloadPrefix, Field: "entry", Alias: "entry"}},
	},
	{
		Key:        "dev-starts",
		Match:      EventMatcher{Kind: MatchExact, Pattern: "dev:start"},
		Groups:     []Group{{Kind: GroupClientDate, Field: "client_timestamp", Alias: "date"}},
		TimeSeries: true,
	},
	{
		Key: "hmr-errors",
		Match: EventMatcher{Kind: MatchIn, Set: []string{
			"hmr:error",
			"hmr:rebuild-error",
			"hmr:client-build-failed",
			"hmr:graph-error",
		}},
		Groups: []Group{{Kind: GroupColumn, Field: "event", Alias: "event"}},
	},
	{
		Key:    "hmr-rebuild-errors",
		Match:  EventMatcher{Kind: MatchExact, Pattern: "hmr:rebuild-error"},
		Groups: []Group{{Kind: GroupPayloadPrefix, Field: "error", Alias: "error"}},
	},
}

var catalogByKey = func() map[string]Query {
	m := make(map[string]Query, len(catalog))
	for _, q := range catalog {
		m[q.Key] = q
	}
	return m
}()

// Lookup returns the catalog entry for key.
func Lookup(key string) (Query, bool) {
	q, ok := catalogByKey[key]
	return q, ok
}

// Keys returns all catalog keys, in registration order.
func Keys() []string {
	keys := make([]string, len(catalog))
	for i, q := range catalog {
		keys[i] = q.Key
	}
	return keys
}
