package matching

import (
	"bytes"
	"regexp"
)

// MatchBodyContains checks if the body contains the substring.
func MatchBodyContains(body []byte, contains string) bool {
	return bytes.Contains(body, []byte(contains))
}

// MatchBodyEquals checks if the body exactly equals the expected value.
func MatchBodyEquals(body []byte, expected string) bool {
	return string(body) == expected
}

// MatchBodyPattern checks if the body matches a compiled regex.
func MatchBodyPattern(re *regexp.Regexp, body []byte) bool {
	return re != nil && re.Match(body)
}
