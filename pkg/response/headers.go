package response

import (
	"net/http"
)

// HeaderPolicy combines a response's extra headers with its defaults.
// It receives a fresh default header set it may modify and returns the
// header set to send.
type HeaderPolicy func(defaults http.Header) http.Header

// KeepHeaders sends the defaults unchanged.
func KeepHeaders() HeaderPolicy {
	return func(defaults http.Header) http.Header { return defaults }
}

// ReplaceHeaders sets each given header, replacing any default of the same name.
func ReplaceHeaders(h http.Header) HeaderPolicy {
	extra := h.Clone()
	return func(defaults http.Header) http.Header {
		for k, vs := range extra {
			defaults.Del(k)
			for _, v := range vs {
				defaults.Add(k, v)
			}
		}
		return defaults
	}
}

// MergeHeaders adds each given header value after any existing default values.
// Content-Type is single-valued, so a given Content-Type replaces the default.
func MergeHeaders(h http.Header) HeaderPolicy {
	extra := h.Clone()
	return func(defaults http.Header) http.Header {
		for k, vs := range extra {
			if http.CanonicalHeaderKey(k) == "Content-Type" {
				defaults.Del(k)
			}
			for _, v := range vs {
				defaults.Add(k, v)
			}
		}
		return defaults
	}
}
