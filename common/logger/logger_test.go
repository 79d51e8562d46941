package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json", true)

	log.WithAsset("images/rio/1.jpeg").Info("fetched", "content_type", "image/jpeg")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetched", entry["msg"])
	assert.Equal(t, "images/rio/1.jpeg", entry["asset"])
	assert.Equal(t, "image/jpeg", entry["content_type"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json", true)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestError_AddsStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json", true)

	log.Error("boom", "error", "bad")
	assert.Contains(t, buf.String(), `"stack"`)
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json", true)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	log.WithContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	assert.Same(t, log, log.WithContext(context.Background()))
}
