package decision

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getmockd/stubd/pkg/request"
	"github.com/getmockd/stubd/pkg/response"
)

// Fallback builds the response for a request no candidate matched. It gets
// the decision report so it does not need to re-run any predicate.
type Fallback func(v *request.View, report *Report) (*response.Response, error)

// Teapot is the default fallback. It answers 418 with a plain text body that
// lists the request and, for every candidate, its id, priority and full
// evaluation trace.
func Teapot(v *request.View, report *Report) (*response.Response, error) {
	var b strings.Builder
	if report != nil && report.Err != nil {
		fmt.Fprintf(&b, "stubd: rule evaluation failed: %s\n\n", report.Err)
	} else {
		b.WriteString("stubd: no rule matched the request\n\n")
	}
	writeRequest(&b, v)
	b.WriteByte('\n')
	if report == nil {
		report = &Report{}
	}
	report.write(&b)
	return response.Text(response.StatusTeapot, b.String()), nil
}

// RejectNonMatching returns the Teapot fallback.
func RejectNonMatching() Fallback { return Teapot }

// StaticFallback answers every unmatched request with spec, replacing the
// Teapot body, status and headers entirely.
func StaticFallback(spec *response.Spec) (Fallback, error) {
	if spec == nil {
		return nil, errors.New("fallback response is nil")
	}
	return func(v *request.View, _ *Report) (*response.Response, error) {
		return spec.Produce(v)
	}, nil
}

// Run calls fb, defaulting to Teapot when fb is nil. A failing or panicking
// fallback yields a diagnostic response.
func Run(fb Fallback, v *request.View, report *Report) (res *response.Response) {
	if fb == nil {
		fb = Teapot
	}
	defer func() {
		if r := recover(); r != nil {
			res = response.Diagnostic(fmt.Errorf("fallback panicked: %v", r))
		}
	}()
	res, err := fb(v, report)
	if err != nil {
		return response.Diagnostic(fmt.Errorf("fallback: %w", err))
	}
	if res == nil {
		return response.Diagnostic(errors.New("fallback returned no response"))
	}
	return res
}

func writeRequest(b *strings.Builder, v *request.View) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "request: %s %s\n", v.Method(), v.RequestURI())
	header := v.Header()
	if len(header) == 0 {
		return
	}
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	b.WriteString("headers:\n")
	for _, name := range names {
		fmt.Fprintf(b, "  %s: %s\n", http.CanonicalHeaderKey(name), strings.Join(header[name], ", "))
	}
}
