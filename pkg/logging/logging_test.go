package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
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
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
		{"Warning", LevelWarn},
		{"dEbUg", LevelDebug},
		{" error ", LevelError},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
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
		{"", FormatText},
		{"yaml", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFormat(tt.input))
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})

	Component(logger, "serializer").Debug("serialized", "type", "posts")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "serialized", entry["msg"])
	assert.Equal(t, "serializer", entry["component"])
	assert.Equal(t, "posts", entry["type"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	logger := New(DefaultConfig())
	assert.Same(t, logger, OrNop(logger))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestTee(t *testing.T) {
	var debug, warn bytes.Buffer
	h := Tee(
		NewHandler(Config{Level: LevelDebug, Output: &debug}),
		nil,
		NewHandler(Config{Level: LevelWarn, Format: FormatJSON, Output: &warn}),
	)
	logger := slog.New(h).With("component", "mockserver")

	logger.Debug("request")
	logger.Warn("rejected")

	assert.Contains(t, debug.String(), "request")
	assert.Contains(t, debug.String(), "rejected")
	assert.NotContains(t, warn.String(), "request")
	assert.Contains(t, warn.String(), `"component":"mockserver"`)

	assert.False(t, Tee().Enabled(context.Background(), LevelError))
}

func TestTee_JoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := NewHandler(Config{Output: &buf})
	h := Tee(failingHandler{ok}, ok)

	err := h.Handle(context.Background(), slog.NewRecord(time.Time{}, LevelInfo, "hello", 0))
	assert.ErrorContains(t, err, "sink down")
	assert.Contains(t, buf.String(), "hello")
}
