package engine

import (
	"context"
	"log/slog"
	"net"

	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
)

// ListenFunc opens a network listener.
type ListenFunc func(ctx context.Context, network, address string) (net.Listener, error)

// ServerOption configures a Server or SharedServer.
type ServerOption func(*options)

type options struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	listen  ListenFunc
}

func buildOptions(opts []ServerOption) options {
	o := options{
		log: logging.Nop(),
		listen: func(ctx context.Context, network, address string) (net.Listener, error) {
			var lc net.ListenConfig
			return lc.Listen(ctx, network, address)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the operational logger. The default discards everything.
func WithLogger(log *slog.Logger) ServerOption {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics records request and borrow metrics into m.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(o *options) {
		o.metrics = m
	}
}

// WithListenFunc replaces how the listener is opened.
func WithListenFunc(fn ListenFunc) ServerOption {
	return func(o *options) {
		if fn != nil {
			o.listen = fn
		}
	}
}
