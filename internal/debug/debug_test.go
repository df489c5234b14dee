package debug

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintf(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	prev := Tracing()
	defer SetTracing(prev)

	SetTracing(false)
	Printf("wl_display@1.sync(%v)", 2)
	assert.Empty(t, buf.String())

	SetTracing(true)
	Printf("wl_display@1.sync(%v)", 2)
	assert.Contains(t, buf.String(), "wl_display@1.sync(2)")
}

func TestDefaultLoggerSilent(t *testing.T) {
	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
