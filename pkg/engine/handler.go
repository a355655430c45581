package engine

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/request"
)

// contextSource hands out the context a request is served with. release is
// called once the response has been written.
type contextSource interface {
	acquire() (ec *ExecutionContext, release func())
}

type fixedContext struct{ ec *ExecutionContext }

func (f fixedContext) acquire() (*ExecutionContext, func()) { return f.ec, func() {} }

// Handler serves every request through an ExecutionContext.
type Handler struct {
	source       contextSource
	maxBodyBytes int64
	log          *slog.Logger
	metrics      *metrics.Metrics
}

// NewHandler returns a handler that serves ec. It can be mounted on any
// http.Server or httptest.Server.
func NewHandler(ec *ExecutionContext, maxBodyBytes int64, opts ...ServerOption) *Handler {
	return newHandler(fixedContext{ec}, maxBodyBytes, buildOptions(opts))
}

func newHandler(src contextSource, maxBodyBytes int64, o options) *Handler {
	return &Handler{
		source:       src,
		maxBodyBytes: maxBodyBytes,
		log:          o.log,
		metrics:      o.metrics,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ec, release := h.source.acquire()
	defer release()

	v := request.FromHTTP(r, h.maxBodyBytes)
	d := ec.Dispatch(v)

	outcome := string(d.Outcome)
	if d.Err != nil {
		outcome = metrics.OutcomeError
	}
	h.metrics.RecordRequest(ec.name, outcome, time.Since(start))

	log := h.log.With("request_id", uuid.NewString(), "method", r.Method, "path", r.URL.Path, "context", ec.name)
	switch {
	case d.Err != nil:
		log.Warn("request failed", "candidate", d.Candidate, "error", d.Err)
	case d.Outcome == OutcomeHit:
		log.Debug("request matched", "candidate", d.Candidate, "status", d.Response.Status)
	default:
		log.Debug("request fell back", "status", d.Response.Status)
	}

	if err := httputil.WriteResponse(w, r, d.Response); err != nil {
		log.Debug("failed to write response", "error", err)
	}
}
