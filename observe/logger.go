package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLogLevel parses a string log level, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Field is a structured log field.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is the minimal structured logging interface carried through the
// client.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: logging is best-effort and must not panic.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// With returns a logger that attaches the fields to every entry.
	With(fields ...Field) Logger
}

// jsonLogger writes one JSON object per entry.
type jsonLogger struct {
	level LogLevel
	mu    *sync.Mutex
	w     io.Writer
	base  map[string]any
}

// NewLogger creates a JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &jsonLogger{
		level: ParseLogLevel(level),
		mu:    &sync.Mutex{},
		w:     w,
		base:  map[string]any{},
	}
}

func (l *jsonLogger) With(fields ...Field) Logger {
	base := make(map[string]any, len(l.base)+len(fields))
	for k, v := range l.base {
		base[k] = v
	}
	for _, f := range fields {
		base[f.Key] = f.Value
	}
	return &jsonLogger{level: l.level, mu: l.mu, w: l.w, base: base}
}

func (l *jsonLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields)
}

func (l *jsonLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields)
}

func (l *jsonLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields)
}

func (l *jsonLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(LevelError, msg, fields)
}

func (l *jsonLogger) log(level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, len(l.base)+len(fields)+3)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	for k, v := range l.base {
		entry[k] = v
	}
	for _, f := range fields {
		if redactedKeys[f.Key] {
			entry[f.Key] = "[REDACTED]"
		} else {
			entry[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return // drop malformed entries silently
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(data)
	l.w.Write([]byte("\n"))
}

// redactedKeys are field keys that may carry partner credentials. Values
// under these keys never reach the sink verbatim.
var redactedKeys = map[string]bool{
	"api_key":       true,
	"api_hash":      true,
	"client_secret": true,
	"authorization": true,
	"signature":     true,
	"token":         true,
	"password":      true,
	"secret":        true,
}

// NopLogger discards everything. Used when logging is disabled and in
// tests that do not assert on output.
type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, ...Field) {}
func (NopLogger) Info(context.Context, string, ...Field)  {}
func (NopLogger) Warn(context.Context, string, ...Field)  {}
func (NopLogger) Error(context.Context, string, ...Field) {}
func (n NopLogger) With(...Field) Logger                  { return n }
