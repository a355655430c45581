package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
)

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	file        string
	host        string
	port        int
	logLevel    string
	logFormat   string
	logFile     string
	metricsPort int
}

func newServeCmd() *cobra.Command {
	return (&serveFlags{}).command()
}

func (f *serveFlags) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a rule file until interrupted",
		Long: `Serve the rules of a rule file until SIGINT or SIGTERM.

Settings are taken from the defaults, then the rule file's server
section, then STUBD_* environment variables, then these flags.`,
		Example: `  # Serve on a random port and print the URL
  stubd serve -f rules.yaml

  # Fixed port, JSON logs, metrics on :9100
  stubd serve -f rules.yaml --port 8080 --log-format json --metrics-port 9100

  # Also append JSON logs to a file
  stubd serve -f rules.yaml --log-file stubd.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	addRulesFlag(cmd, &f.file)
	cmd.Flags().StringVar(&f.host, "host", "", "Bind address")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "HTTP server port (0 = OS auto-assign)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().IntVar(&f.metricsPort, "metrics-port", 0, "Serve /metrics and /stats on this port (0 = disabled)")
	return cmd
}

// serverConfig layers the changed flags over the file and environment
// settings.
func (f *serveFlags) serverConfig(cmd *cobra.Command, rf *config.RuleFile) (*config.ServerConfig, error) {
	cfg := rf.ServerConfig()
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if flags.Changed("metrics-port") {
		cfg.MetricsPort = f.metricsPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	out := cmd.OutOrStdout()

	rf, d, fb, err := loadRules(f.file)
	if err != nil {
		return err
	}
	cfg, err := f.serverConfig(cmd, rf)
	if err != nil {
		return fmt.Errorf("invalid server settings: %w", err)
	}

	log, closeLog, err := newServeLogger(cfg, f.logFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	srv := engine.NewServer(cfg, d, fb,
		engine.WithLogger(log.With("component", "engine")),
		engine.WithMetrics(m),
	)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	var admin *http.Server
	if cfg.MetricsPort != 0 {
		admin, err = startAdmin(ctx, cfg, m, srv, log)
		if err != nil {
			return multierr.Append(err, srv.Stop())
		}
	}

	log.Info("server started", "url", srv.URL(), "rules", d.Len(), "config", f.file)
	fmt.Fprintf(out, "stubd listening on %s (%d rules)\n", srv.URL(), d.Len())

	<-ctx.Done()

	log.Info("shutting down")
	err = srv.Stop()
	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = multierr.Append(err, admin.Shutdown(shutdownCtx))
		cancel()
	}
	fmt.Fprintf(out, "stubd stopped: %s\n", srv.Statistics())
	return err
}

// newServeLogger logs to stderr and, with a log file, also appends JSON
// records to it.
func newServeLogger(cfg *config.ServerConfig, logFile string, stderr io.Writer) (*slog.Logger, func(), error) {
	level := logging.ParseLevel(cfg.LogLevel)
	console := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: stderr,
	})
	if logFile == "" {
		return slog.New(console), func() {}, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	toFile := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.FormatJSON,
		Output: file,
	})
	return logging.Tee(console, toFile), func() { _ = file.Close() }, nil
}

// startAdmin serves /metrics and /stats for srv on cfg.MetricsPort.
func startAdmin(ctx context.Context, cfg *config.ServerConfig, m *metrics.Metrics, srv *engine.Server, log *slog.Logger) (*http.Server, error) {
	ln, err := engine.Bind(ctx, engine.BindConfig{
		Host:       cfg.Host,
		Port:       cfg.MetricsPort,
		Attempts:   cfg.BindRetries,
		RetryDelay: cfg.BindRetryDelay,
	}, (&net.ListenConfig{}).Listen, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, srv.Statistics())
	})

	admin := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}
	go func() {
		if err := admin.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("metrics server started", "addr", "http://"+net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.MetricsPort)))
	return admin, nil
}
