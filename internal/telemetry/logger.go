// Package telemetry writes the client's structured event log as newline
// delimited JSON.
package telemetry

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger keeps the map-of-fields call shape used across the client and
// hands entries to zap.
type Logger struct {
	z     *zap.Logger
	close func() error
}

// New opens path for appending. An empty path discards every entry.
func New(path string, debug bool) (*Logger, error) {
	if path == "" {
		return &Logger{z: zap.NewNop(), close: func() error { return nil }}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "msg"
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(f), level)
	z := zap.New(core)
	return &Logger{
		z: z,
		close: func() error {
			_ = z.Sync()
			return f.Close()
		},
	}, nil
}

// NewWith wraps an existing zap logger, mostly for tests using zaptest/observer.
func NewWith(z *zap.Logger) *Logger {
	return &Logger{z: z, close: func() error { return z.Sync() }}
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Debug(msg, toFields(fields)...)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Info(msg, toFields(fields)...)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Error(msg, toFields(fields)...)
}

// With returns a child logger that stamps fields on every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || l.z == nil {
		return l
	}
	return &Logger{z: l.z.With(toFields(fields)...), close: func() error { return nil }}
}

func (l *Logger) Close() error {
	if l == nil || l.close == nil {
		return nil
	}
	return l.close()
}

func toFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		switch v := fields[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
