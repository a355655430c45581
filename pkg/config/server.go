package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/request"
)

// Environment variable names.
const (
	EnvHost           = "STUBD_HOST"
	EnvPort           = "STUBD_PORT"
	EnvBindRetries    = "STUBD_BIND_RETRIES"
	EnvBindRetryDelay = "STUBD_BIND_RETRY_DELAY"
	EnvReadTimeout    = "STUBD_READ_TIMEOUT"
	EnvWriteTimeout   = "STUBD_WRITE_TIMEOUT"
	EnvMaxBodyBytes   = "STUBD_MAX_BODY_BYTES"
	EnvLogLevel       = "STUBD_LOG_LEVEL"
	EnvLogFormat      = "STUBD_LOG_FORMAT"
	EnvMetricsPort    = "STUBD_METRICS_PORT"
)

// ServerConfig holds listener settings.
type ServerConfig struct {
	// Host is the interface to bind. Defaults to 127.0.0.1.
	Host string `yaml:"host,omitempty"`
	// Port is the TCP port to bind; 0 picks a free port.
	Port int `yaml:"port,omitempty"`
	// BindRetries is how many times binding is attempted.
	BindRetries int `yaml:"bindRetries,omitempty"`
	// BindRetryDelay is the pause between bind attempts.
	BindRetryDelay time.Duration `yaml:"bindRetryDelay,omitempty"`
	ReadTimeout    time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout   time.Duration `yaml:"writeTimeout,omitempty"`
	// MaxBodyBytes caps how much of a request body rules can read.
	MaxBodyBytes int64  `yaml:"maxBodyBytes,omitempty"`
	LogLevel     string `yaml:"logLevel,omitempty"`
	LogFormat    string `yaml:"logFormat,omitempty"`
	// MetricsPort serves /metrics and /stats when non-zero (stubd serve only).
	MetricsPort int `yaml:"metricsPort,omitempty"`
}

// DefaultServerConfig returns the settings used when nothing is configured.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		BindRetries:    5,
		BindRetryDelay: 50 * time.Millisecond,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxBodyBytes:   request.DefaultMaxBodyBytes,
		LogLevel:       "info",
		LogFormat:      string(logging.FormatText),
	}
}

// Merge copies every non-zero field of o onto c.
func (c *ServerConfig) Merge(o *ServerConfig) {
	if o == nil {
		return
	}
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.BindRetries != 0 {
		c.BindRetries = o.BindRetries
	}
	if o.BindRetryDelay != 0 {
		c.BindRetryDelay = o.BindRetryDelay
	}
	if o.ReadTimeout != 0 {
		c.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout != 0 {
		c.WriteTimeout = o.WriteTimeout
	}
	if o.MaxBodyBytes != 0 {
		c.MaxBodyBytes = o.MaxBodyBytes
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.MetricsPort != 0 {
		c.MetricsPort = o.MetricsPort
	}
}

// Validate reports every invalid field.
func (c *ServerConfig) Validate() error {
	var err error
	if c.Port < 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("port %d out of range (0-65535)", c.Port))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		err = multierr.Append(err, fmt.Errorf("metricsPort %d out of range (0-65535)", c.MetricsPort))
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.Port {
		err = multierr.Append(err, fmt.Errorf("metricsPort %d conflicts with port", c.MetricsPort))
	}
	if c.BindRetries < 1 {
		err = multierr.Append(err, fmt.Errorf("bindRetries must be at least 1, got %d", c.BindRetries))
	}
	if c.BindRetryDelay < 0 {
		err = multierr.Append(err, fmt.Errorf("bindRetryDelay must not be negative"))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("timeouts must not be negative"))
	}
	if c.MaxBodyBytes <= 0 {
		err = multierr.Append(err, fmt.Errorf("maxBodyBytes must be positive, got %d", c.MaxBodyBytes))
	}
	if _, lerr := logging.LookupLevel(c.LogLevel); lerr != nil {
		err = multierr.Append(err, lerr)
	}
	return err
}

// LoadEnv overrides c from STUBD_* variables that are set. Malformed values
// are reported together and leave the field unchanged.
func (c *ServerConfig) LoadEnv() error {
	return c.loadEnv(os.Getenv)
}

func (c *ServerConfig) loadEnv(getenv func(string) string) error {
	var err error

	if v := getenv(EnvHost); v != "" {
		c.Host = v
	}
	err = multierr.Append(err, envInt(getenv, EnvPort, &c.Port))
	err = multierr.Append(err, envInt(getenv, EnvBindRetries, &c.BindRetries))
	err = multierr.Append(err, envDuration(getenv, EnvBindRetryDelay, &c.BindRetryDelay))
	err = multierr.Append(err, envDuration(getenv, EnvReadTimeout, &c.ReadTimeout))
	err = multierr.Append(err, envDuration(getenv, EnvWriteTimeout, &c.WriteTimeout))
	if v := getenv(EnvMaxBodyBytes); v != "" {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", EnvMaxBodyBytes, perr))
		} else {
			c.MaxBodyBytes = n
		}
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	err = multierr.Append(err, envInt(getenv, EnvMetricsPort, &c.MetricsPort))

	return err
}

func envInt(getenv func(string) string, name string, dst *int) error {
	v := getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// envDuration accepts Go durations ("250ms") or whole seconds ("30").
func envDuration(getenv func(string) string, name string, dst *time.Duration) error {
	v := getenv(name)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
