// Package sanitize scrubs filesystem paths out of telemetry payloads before
// they are persisted. Sanitization is one-way; the original payload is never
// retained.
package sanitize

import "regexp"

// Placeholder replaces every path-shaped substring in a payload value.
const Placeholder = "<path>"

// pathPattern matches POSIX-style multi-segment paths embedded anywhere in a
// string: one or more runs of "/" followed by word, dot, or hyphen characters.
var pathPattern = regexp.MustCompile(`(?:/[\w.-]+)+`)

// Payload returns a copy of p with path-shaped substrings in top-level string
// values replaced by Placeholder. Non-string values pass through unchanged,
// including nested objects and arrays — only top-level strings are scrubbed.
// A nil payload normalizes to an empty map.
func Payload(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		if s, ok := v.(string); ok {
			out[k] = pathPattern.ReplaceAllString(s, Placeholder)
			continue
		}
		out[k] = v
	}
	return out
}
