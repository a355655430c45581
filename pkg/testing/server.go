package testing

import (
	"context"
	"testing"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/stats"
)

type settings struct {
	cfg      *config.ServerConfig
	fallback decision.Fallback
	engine   []engine.ServerOption
}

// Option configures a test server.
type Option func(*settings)

// WithFallback replaces the Teapot for unmatched requests.
func WithFallback(fb decision.Fallback) Option {
	return func(s *settings) { s.fallback = fb }
}

// WithServerConfig replaces the default server settings. The port should
// normally stay 0.
func WithServerConfig(cfg *config.ServerConfig) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithEngineOptions passes options through to the engine, e.g. a logger.
func WithEngineOptions(opts ...engine.ServerOption) Option {
	return func(s *settings) { s.engine = append(s.engine, opts...) }
}

func buildSettings(opts []Option) settings {
	s := settings{cfg: config.DefaultServerConfig()}
	s.engine = []engine.ServerOption{engine.WithLogger(logging.Nop())}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Server is a stubd server owned by one test.
type Server struct {
	t   testing.TB
	srv *engine.Server
}

// New starts a server serving d on a random port and stops it when the
// test completes. A nil d matches nothing.
func New(t testing.TB, d *decision.Decision, opts ...Option) *Server {
	t.Helper()
	s := buildSettings(opts)
	srv := engine.NewServer(s.cfg, d, s.fallback, s.engine...)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("failed to start stub server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })
	return &Server{t: t, srv: srv}
}

// URL returns the base URL.
func (s *Server) URL() string { return s.srv.URL() }

// Statistics returns the server's hit and miss counts.
func (s *Server) Statistics() stats.Snapshot { return s.srv.Statistics() }

// Engine returns the underlying server.
func (s *Server) Engine() *engine.Server { return s.srv }

// Stop stops the server early. Calling it again is a no-op.
func (s *Server) Stop() {
	s.t.Helper()
	if err := s.srv.Stop(); err != nil {
		s.t.Errorf("failed to stop stub server: %v", err)
	}
}

// Shared is a shared stubd server borrowed by several tests.
type Shared struct {
	srv *engine.SharedServer
}

// NewShared starts a shared server serving d between borrows and disposes
// of it when t completes.
func NewShared(t testing.TB, d *decision.Decision, opts ...Option) *Shared {
	t.Helper()
	s := buildSettings(opts)
	srv := engine.NewSharedServer(s.cfg, d, s.fallback, s.engine...)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("failed to start shared stub server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Dispose() })
	return &Shared{srv: srv}
}

// URL returns the base URL.
func (s *Shared) URL() string { return s.srv.URL() }

// Statistics returns the counters of the rules NewShared installed.
func (s *Shared) Statistics() stats.Snapshot { return s.srv.Statistics() }

// Engine returns the underlying shared server.
func (s *Shared) Engine() *engine.SharedServer { return s.srv }

// Borrow serves d, with the Teapot fallback, for the length of fn and
// returns the counters of the borrow. The test fails immediately if the
// server cannot be borrowed.
func (s *Shared) Borrow(t testing.TB, d *decision.Decision, fn func(*engine.BorrowScope)) stats.Snapshot {
	t.Helper()
	scope, err := s.srv.Borrow(d, nil)
	if err != nil {
		t.Fatalf("failed to borrow stub server: %v", err)
	}
	err = scope.Run(func(scope *engine.BorrowScope) error {
		fn(scope)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to borrow stub server: %v", err)
	}
	return scope.Statistics()
}
