package matching

import (
	"net/http"
	"strings"
)

// HasHeader reports whether the header is present, regardless of its value.
// Header names are case-insensitive (per HTTP spec).
func HasHeader(name string, headers http.Header) bool {
	_, ok := headers[http.CanonicalHeaderKey(name)]
	return ok
}

// MatchHeader checks if any value of a header equals the expected value.
func MatchHeader(name, expectedValue string, headers http.Header) bool {
	for _, v := range headers.Values(name) {
		if v == expectedValue {
			return true
		}
	}
	return false
}

// MatchHeaderPattern checks if any value of a header matches a pattern.
// Supports exact values and * wildcards (prefix*, *suffix, *middle*, a*b).
func MatchHeaderPattern(name, pattern string, headers http.Header) bool {
	for _, v := range headers.Values(name) {
		if MatchValuePattern(pattern, v) {
			return true
		}
	}
	return false
}

// MatchValuePattern matches a single value against an exact or * wildcard pattern.
func MatchValuePattern(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return value == pattern
	}
	return MatchWildcard(pattern, value)
}
