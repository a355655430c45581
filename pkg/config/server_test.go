package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultServerConfigIsValid(t *testing.T) {
	cfg := DefaultServerConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Zero(t, cfg.Port)
	assert.Equal(t, 5, cfg.BindRetries)
}

func TestMergeOnlyOverridesSetFields(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Merge(&ServerConfig{Port: 9000, LogLevel: "debug"})
	cfg.Merge(nil)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Port = 70000
	cfg.BindRetries = 0
	cfg.MaxBodyBytes = 0
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.Contains(t, err.Error(), "port 70000 out of range")
	assert.Contains(t, err.Error(), `"loud"`)
}

func TestValidateMetricsPortConflict(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Port, cfg.MetricsPort = 8080, 8080
	assert.ErrorContains(t, cfg.Validate(), "conflicts")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvHost, "0.0.0.0")
	t.Setenv(EnvPort, "8181")
	t.Setenv(EnvReadTimeout, "5")
	t.Setenv(EnvWriteTimeout, "250ms")
	t.Setenv(EnvMaxBodyBytes, "1024")
	t.Setenv(EnvLogFormat, "json")

	cfg := DefaultServerConfig()
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadEnvCollectsMalformedValues(t *testing.T) {
	env := map[string]string{
		EnvPort:        "eighty",
		EnvBindRetries: "3",
		EnvReadTimeout: "soon",
	}
	cfg := DefaultServerConfig()

	err := cfg.loadEnv(func(k string) string { return env[k] })

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), EnvPort)
	assert.Contains(t, err.Error(), EnvReadTimeout)
	assert.Zero(t, cfg.Port, "malformed values leave the field unchanged")
	assert.Equal(t, 3, cfg.BindRetries)
}

func TestExpandEnv(t *testing.T) {
	env := map[string]string{"TOKEN": "abc"}
	getenv := func(k string) string { return env[k] }

	assert.Equal(t, "Bearer abc", expandEnv("Bearer ${TOKEN}", getenv))
	assert.Equal(t, "port 8080", expandEnv("port ${PORT:-8080}", getenv))
	assert.Equal(t, "x=", expandEnv("x=${MISSING}", getenv))
	assert.Equal(t, "$TOKEN", expandEnv("$TOKEN", getenv))
}
