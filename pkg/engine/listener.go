package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/stubd/pkg/config"
)

// ErrListenerClosed is returned by Start after Stop or Dispose.
var ErrListenerClosed = errors.New("server has been stopped")

const shutdownTimeout = 5 * time.Second

// listener owns the http.Server lifecycle shared by Server and SharedServer.
type listener struct {
	cfg  *config.ServerConfig
	opts options

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	running bool
	closed  bool
	served  chan struct{}
}

func (l *listener) start(ctx context.Context, h http.Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrListenerClosed
	}
	if l.running {
		return ErrAlreadyRunning
	}

	ln, err := Bind(ctx, BindConfig{
		Host:       l.cfg.Host,
		Port:       l.cfg.Port,
		Attempts:   l.cfg.BindRetries,
		RetryDelay: l.cfg.BindRetryDelay,
	}, l.opts.listen, l.opts.log)
	if err != nil {
		return err
	}

	l.ln = ln
	l.srv = &http.Server{
		Handler:           h,
		ReadTimeout:       l.cfg.ReadTimeout,
		ReadHeaderTimeout: l.cfg.ReadTimeout,
		WriteTimeout:      l.cfg.WriteTimeout,
	}
	l.served = make(chan struct{})
	l.running = true

	srv, served := l.srv, l.served
	go func() {
		defer close(served)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.opts.log.Error("HTTP server error", "error", err)
		}
	}()

	l.opts.log.Info("stub server started", "addr", ln.Addr().String())
	return nil
}

// stop shuts the server down and marks the listener closed. It reports
// whether this call did the work.
func (l *listener) stop() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, nil
	}
	l.closed = true
	if !l.running {
		return true, nil
	}
	l.running = false

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := l.srv.Shutdown(ctx)
	if err != nil {
		err = fmt.Errorf("HTTP shutdown: %w", err)
		_ = l.srv.Close()
	}
	<-l.served
	l.opts.log.Info("stub server stopped", "addr", l.ln.Addr().String())
	return true, err
}

func (l *listener) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *listener) addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// port returns the bound port, or 0 before Start.
func (l *listener) port() int {
	if tcp, ok := l.addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// url returns http://host:port, or "" before Start.
func (l *listener) url() string {
	p := l.port()
	if p == 0 {
		return ""
	}
	host := l.cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(p))
}
