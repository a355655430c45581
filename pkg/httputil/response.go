// Package httputil writes stubd responses to an http.ResponseWriter.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/stubd/pkg/response"
)

// WriteResponse copies res onto w. The body is skipped for HEAD requests and
// for statuses that forbid one; headers, including Content-Length, are
// still sent.
func WriteResponse(w http.ResponseWriter, r *http.Request, res *response.Response) error {
	h := w.Header()
	for k, vs := range res.Header {
		h[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(res.Status)
	if !bodyAllowed(r, res.Status) || len(res.Body) == 0 {
		return nil
	}
	_, err := w.Write(res.Body)
	return err
}

func bodyAllowed(r *http.Request, status int) bool {
	if r != nil && r.Method == http.MethodHead {
		return false
	}
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error body: {"error": code, "message": message}.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}
