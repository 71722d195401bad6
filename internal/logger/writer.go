package logger

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap/zapcore"
)

// LineWriter is an io.Writer that logs every complete line it receives.
// It is used to forward child process output into the structured log.
type LineWriter struct {
	// ctx carries the logger the lines are written to.
	ctx context.Context //nolint:containedctx // Writer outlives a single call.
	// level is the level every line is logged at.
	level zapcore.Level
	// key is the field name the line is logged under.
	key string

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLineWriter creates a writer logging lines at the given level under the given field key.
func NewLineWriter(ctx context.Context, level zapcore.Level, key string) *LineWriter {
	return &LineWriter{
		ctx:   ctx,
		level: level,
		key:   key,
	}
}

// Write buffers p and logs each newline-terminated line.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)

	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			w.buf.Write(line)
			break
		}

		w.emit(line)
	}

	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *LineWriter) emit(line []byte) {
	text := string(bytes.TrimRight(line, "\r\n"))
	if text == "" {
		return
	}

	FromContext(w.ctx).Logw(w.level, "Engine output", w.key, text)
}
