package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// BindConfig controls how a listener port is acquired.
type BindConfig struct {
	Host string
	// Port 0 asks the OS for a free port.
	Port int
	// Attempts is the total number of tries; values below 1 mean 1.
	Attempts int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
}

// Bind opens a TCP listener, retrying up to cfg.Attempts times. When every
// attempt fails the error wraps ErrRandomPortExhausted for Port 0 and
// ErrFixedPortInUse otherwise, along with the last bind error.
func Bind(ctx context.Context, cfg BindConfig, listen ListenFunc, log *slog.Logger) (net.Listener, error) {
	attempts := max(cfg.Attempts, 1)
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		ln, err := listen(ctx, "tcp", addr)
		if err == nil {
			return ln, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		log.Warn("bind failed, retrying", "addr", addr, "attempt", attempt, "of", attempts, "error", err)

		timer := time.NewTimer(cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("binding %s: %w", addr, ctx.Err())
		case <-timer.C:
		}
	}

	if cfg.Port == 0 {
		return nil, fmt.Errorf("%w on %s after %d retries: %w", ErrRandomPortExhausted, cfg.Host, attempts, lastErr)
	}
	return nil, fmt.Errorf("%w: port %d after %d retries: %w", ErrFixedPortInUse, cfg.Port, attempts, lastErr)
}
