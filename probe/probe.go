// Package probe implements the scanner's source probes: conservative
// textual detectors over a single file's text. Probes are pure functions —
// no filesystem access, no cross-file state — tuned to avoid false
// positives on identifier-prefix collisions (fetchUser vs fetch).
package probe

import "regexp"

// callTarget builds a regexp matching name used as a call target:
// an identifier boundary on both sides, optional whitespace, then "(".
func callTarget(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
}

// HasAnyCall reports whether src contains a call to any of names.
func HasAnyCall(src string, names []string) bool {
	for _, n := range names {
		if n == "" {
			continue
		}
		if callTarget(n).MatchString(src) {
			return true
		}
	}
	return false
}

// HasAuthCall reports whether src references any configured auth function
// as a call target.
func HasAuthCall(src string, functions []string) bool {
	return HasAnyCall(src, functions)
}

// HasRateLimitCall reports whether src references any configured
// rate-limit wrapper as a call target.
func HasRateLimitCall(src string, wrappers []string) bool {
	return HasAnyCall(src, wrappers)
}

var whereClauseRe = regexp.MustCompile(`where\s*:\s*\{([^{}]*)\}`)

// HasTenantScope reports whether a query-builder `where` object literal
// anywhere in src references one of the configured org field names.
func HasTenantScope(src string, orgFieldNames []string) bool {
	for _, m := range whereClauseRe.FindAllStringSubmatch(src, -1) {
		body := m[1]
		for _, field := range orgFieldNames {
			if field == "" {
				continue
			}
			if regexp.MustCompile(`\b` + regexp.QuoteMeta(field) + `\s*:`).MatchString(body) {
				return true
			}
		}
	}
	return false
}

// HasWhereClause reports whether src contains at least one query-builder
// `where` object literal, regardless of its contents.
func HasWhereClause(src string) bool {
	return whereClauseRe.MatchString(src)
}

var mutationRe = regexp.MustCompile(`\.(create|update|delete|upsert)\s*\(`)

// HasMutation reports whether src performs a data-store mutation call
// (create, update, delete, or upsert) on a query builder.
func HasMutation(src string) bool {
	return mutationRe.MatchString(src)
}
