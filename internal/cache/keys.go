package cache

import "fmt"

// QueryResultKey caches the JSON rows of one catalog query. version is the
// raw query-string value; empty means the all-versions breakdown.
func QueryResultKey(queryKey, version string) string {
	if version == "" {
		version = "all"
	}
	return fmt.Sprintf("report:%s:%s", queryKey, version)
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
