package matching

import (
	"net/url"
)

// MatchQueryParam checks if any value of a query parameter equals the expected value.
func MatchQueryParam(name, expectedValue string, params url.Values) bool {
	for _, v := range params[name] {
		if v == expectedValue {
			return true
		}
	}
	return false
}

// HasQueryParam checks if a query parameter exists (regardless of value).
func HasQueryParam(name string, params url.Values) bool {
	_, exists := params[name]
	return exists
}
