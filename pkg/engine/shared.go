package engine

import (
	"context"
	"net/http"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/stats"
)

// SharedServer is a long-lived server whose rules can be temporarily
// replaced with Borrow.
type SharedServer struct {
	listener
	coord   *BorrowCoordinator
	handler *Handler
}

// NewSharedServer creates a shared server whose original context serves d
// and fb. A nil cfg uses config.DefaultServerConfig.
func NewSharedServer(cfg *config.ServerConfig, d *decision.Decision, fb decision.Fallback, opts ...ServerOption) *SharedServer {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	o := buildOptions(opts)
	coord := NewBorrowCoordinator(NewExecutionContext(d, fb))
	coord.log = o.log
	coord.metrics = o.metrics
	return &SharedServer{
		listener: listener{cfg: cfg, opts: o},
		coord:    coord,
		handler:  newHandler(coord, cfg.MaxBodyBytes, o),
	}
}

// Start binds the port and begins serving in the background.
func (s *SharedServer) Start(ctx context.Context) error {
	if s.coord.stopped() {
		return ErrListenerClosed
	}
	return s.start(ctx, s.handler)
}

// Dispose stops the server. Only the first call does anything; later calls
// return nil. After Dispose every borrow fails.
func (s *SharedServer) Dispose() error {
	if !s.coord.stop() {
		return nil
	}
	_, err := s.stop()
	return err
}

// Borrow prepares a scope that will serve d and fb in place of the original
// rules while its Run closure executes. It fails immediately when the server
// is disposed, another borrow is active, or a request is in flight; the same
// conditions are checked again, atomically, when the scope runs.
func (s *SharedServer) Borrow(d *decision.Decision, fb decision.Fallback) (*BorrowScope, error) {
	if err := s.coord.check(); err != nil {
		s.coord.recordRejection(err)
		return nil, err
	}
	return newBorrowScope(s, d, fb), nil
}

// Statistics returns a snapshot of the original context's counters. Requests
// served by a borrow scope are never included.
func (s *SharedServer) Statistics() stats.Snapshot { return s.coord.Original().Statistics() }

// InFlight returns the number of requests currently being served.
func (s *SharedServer) InFlight() int64 { return s.coord.InFlight() }

// Borrowed reports whether a borrow scope is installed.
func (s *SharedServer) Borrowed() bool { return s.coord.Borrowed() }

// Disposed reports whether Dispose has been called.
func (s *SharedServer) Disposed() bool { return s.coord.stopped() }

// IsRunning reports whether the server is accepting requests.
func (s *SharedServer) IsRunning() bool { return s.isRunning() }

// URL returns the base URL, or "" before Start.
func (s *SharedServer) URL() string { return s.url() }

// Port returns the bound port, or 0 before Start.
func (s *SharedServer) Port() int { return s.port() }

// Coordinator returns the server's borrow coordinator.
func (s *SharedServer) Coordinator() *BorrowCoordinator { return s.coord }

// Handler returns the server's http.Handler.
func (s *SharedServer) Handler() http.Handler { return s.handler }

func (b *BorrowCoordinator) recordRejection(err error) {
	result := metrics.BorrowRejected
	if errorIsStopped(err) {
		result = metrics.BorrowStopped
	}
	b.metrics.RecordBorrow(result)
	b.log.Warn("borrow rejected", "error", err)
}
