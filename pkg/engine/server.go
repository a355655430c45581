package engine

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/multierr"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/stats"
)

// Server serves a single ExecutionContext for its whole life. It cannot be
// borrowed and, once stopped, cannot be started again.
type Server struct {
	listener
	ec      *ExecutionContext
	handler *Handler
}

// NewServer creates a server for d and fb. A nil cfg uses
// config.DefaultServerConfig.
func NewServer(cfg *config.ServerConfig, d *decision.Decision, fb decision.Fallback, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	o := buildOptions(opts)
	ec := NewExecutionContext(d, fb)
	return &Server{
		listener: listener{cfg: cfg, opts: o},
		ec:       ec,
		handler:  newHandler(fixedContext{ec}, cfg.MaxBodyBytes, o),
	}
}

// Start binds the port and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	return s.start(ctx, s.handler)
}

// Stop shuts the server down. Calling it again is a no-op.
func (s *Server) Stop() error {
	_, err := s.stop()
	return err
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool { return s.isRunning() }

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string { return s.url() }

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int { return s.port() }

// Statistics returns a snapshot of the hit and miss counters.
func (s *Server) Statistics() stats.Snapshot { return s.ec.Statistics() }

// Context returns the server's execution context.
func (s *Server) Context() *ExecutionContext { return s.ec }

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Serve starts a server, runs fn against it and stops it, even if fn
// panics. It returns the server's final statistics.
func Serve(ctx context.Context, cfg *config.ServerConfig, d *decision.Decision, fb decision.Fallback,
	fn func(*Server) error, opts ...ServerOption) (snap stats.Snapshot, err error) {
	if fn == nil {
		return stats.Snapshot{}, errors.New("serve: nil function")
	}
	srv := NewServer(cfg, d, fb, opts...)
	if err := srv.Start(ctx); err != nil {
		return stats.Snapshot{}, err
	}
	defer func() {
		err = multierr.Append(err, srv.Stop())
		snap = srv.Statistics()
	}()
	return stats.Snapshot{}, fn(srv)
}
