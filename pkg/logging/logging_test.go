package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		// Lowercase
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		// Uppercase
		{"DEBUG", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},

		// Mixed case
		{"Debug", LevelDebug},
		{"Info", LevelInfo},
		{"Warn", LevelWarn},
		{"Warning", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},

		// Empty string defaults to Info
		{"", LevelInfo},

		// Unrecognized defaults to Info
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
		{"unknown", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"TEXT", FormatText},
		{"", FormatText},
		{"yaml", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseFormat(tt.input)
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLookupLevelRejectsUnknown(t *testing.T) {
	_, err := LookupLevel("trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"trace"`)

	level, err := LookupLevel(" Warn ")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, level)
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf}).Debug("dispatched", "outcome", "hit")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dispatched", rec["msg"])
	assert.Equal(t, "hit", rec["outcome"])

	buf.Reset()
	New(Config{Level: LevelWarn, Output: &buf}).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestNopDiscards(t *testing.T) {
	assert.False(t, Nop().Enabled(context.Background(), LevelError))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestTeeHandler(t *testing.T) {
	var console, file bytes.Buffer
	logger := Tee(
		NewHandler(Config{Level: LevelWarn, Output: &console}),
		NewHandler(Config{Level: LevelDebug, Output: &file}),
		nil,
	).With("server", "shared")

	logger.Debug("request dispatched")
	logger.Warn("borrow rejected")

	assert.NotContains(t, console.String(), "request dispatched")
	assert.Contains(t, console.String(), "borrow rejected")
	assert.Contains(t, file.String(), "request dispatched")
	assert.Equal(t, 2, strings.Count(file.String(), "server=shared"))
}

func TestTeeHandlerKeepsGoingOnError(t *testing.T) {
	var buf bytes.Buffer
	ok := NewHandler(Config{Output: &buf})
	h := NewTeeHandler(failingHandler{ok}, ok)

	rec := slog.NewRecord(time.Now(), LevelInfo, "hello", 0)
	err := h.Handle(context.Background(), rec)

	require.Error(t, err)
	assert.Contains(t, buf.String(), "hello")
}
