package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	got, ok := ParseLogLevel(" WARN ")
	require.True(t, ok)
	require.Equal(t, zapcore.WarnLevel, got)

	_, ok = ParseLogLevel("unknown")
	require.False(t, ok)

	_, ok = ParseLogLevel("")
	require.False(t, ok)
}

// TestContextLogger verifies that loggers stored in a context are returned and named.
func TestContextLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "desktop-installer")
	ctx = WithKV(ctx, "app", "demo")

	InfoKV(ctx, "Resolved targets", "count", 2)
	DebugKV(ctx, "Engine configuration", "path", "builder-config.yaml")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.DebugLevel, entries[1].Level)
	require.Equal(t, "desktop-installer", entries[0].LoggerName)
	require.Equal(t, "Resolved targets", entries[0].Message)
	require.Equal(t, "demo", entries[0].ContextMap()["app"])

	// A context without a logger falls back to the global one.
	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestLineWriter verifies that output is split into lines and partial lines are kept until flushed.
func TestLineWriter(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	w := NewLineWriter(ctx, zapcore.InfoLevel, "stdout")

	n, err := w.Write([]byte("  • building target=nsis\r\n  • packag"))
	require.NoError(t, err)
	require.Equal(t, 40, n)
	require.Equal(t, 1, logs.Len())

	_, err = w.Write([]byte("ing\n\n"))
	require.NoError(t, err)

	_, err = w.Write([]byte("tail"))
	require.NoError(t, err)
	require.Equal(t, 2, logs.Len())

	w.Flush()

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "  • building target=nsis", entries[0].ContextMap()["stdout"])
	require.Equal(t, "  • packaging", entries[1].ContextMap()["stdout"])
	require.Equal(t, "tail", entries[2].ContextMap()["stdout"])
}
