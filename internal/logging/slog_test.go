package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger_WritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Info(context.Background(), "sync completed", "applied", 3)

	out := buf.String()
	assert.Contains(t, out, "sync completed")
	assert.Contains(t, out, "applied=3")
}

func TestSlogLogger_WithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil))).With("collection", "history")

	l.Warn(context.Background(), "skipping undecodable record", "guid", "g1")

	out := buf.String()
	assert.Contains(t, out, "collection=history")
	assert.Contains(t, out, "guid=g1")
}
