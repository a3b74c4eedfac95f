package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from the backend.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal structured logging interface. Arguments after
// msg are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// Backend names accepted by Config.Backend.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Config configures construction of a Logger.
type Config struct {
	Level     LogLevel
	Format    string // json or text
	Backend   string // slog or zap
	Output    io.Writer
	AddSource bool
	// Component is attached to every entry when non-empty.
	Component string
}

// DefaultConfig returns a baseline JSON info level slog configuration.
func DefaultConfig() Config {
	return Config{Level: LogLevelInfo, Format: "json", Backend: BackendSlog, Output: os.Stderr}
}

// NewLogger builds a Logger for cfg.
func NewLogger(cfg Config) (Logger, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	var l Logger
	switch cfg.Backend {
	case "", BackendSlog:
		opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
		var handler slog.Handler
		if cfg.Format == "text" {
			handler = slog.NewTextHandler(cfg.Output, opts)
		} else {
			handler = slog.NewJSONHandler(cfg.Output, opts)
		}
		l = NewSlogAdapter(slog.New(handler))
	case BackendZap:
		l = NewZapLogger(cfg.Level, cfg.Format, cfg.Output)
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
	if cfg.Component != "" {
		l = With(l, "component", cfg.Component)
	}
	return l, nil
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextLogger prefixes every entry with fixed key/value pairs.
type contextLogger struct {
	base Logger
	kv   []any
}

// With returns a Logger that attaches kv to every entry.
func With(l Logger, kv ...any) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	if len(kv) == 0 {
		return l
	}
	if cl, ok := l.(*contextLogger); ok {
		merged := append(append([]any{}, cl.kv...), kv...)
		return &contextLogger{base: cl.base, kv: merged}
	}
	return &contextLogger{base: l, kv: kv}
}

func (c *contextLogger) args(extra []any) []any {
	return append(append(make([]any, 0, len(c.kv)+len(extra)), c.kv...), extra...)
}

func (c *contextLogger) Debug(msg string, args ...any) { c.base.Debug(msg, c.args(args)...) }
func (c *contextLogger) Info(msg string, args ...any)  { c.base.Info(msg, c.args(args)...) }
func (c *contextLogger) Warn(msg string, args ...any)  { c.base.Warn(msg, c.args(args)...) }
func (c *contextLogger) Error(msg string, args ...any) { c.base.Error(msg, c.args(args)...) }

// LogDispatch records the outcome of one function dispatch.
func LogDispatch(l Logger, function, status string, dur time.Duration, err error) {
	if err != nil {
		l.Error("dispatch.failed", "function", function, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("dispatch.completed", "function", function, "status", status, "duration_ms", dur.Milliseconds())
}

// LogOracleCall records oracle latency and success.
func LogOracleCall(l Logger, provider, model, op string, dur time.Duration, err error) {
	if err != nil {
		l.Error("oracle.call.failed", "provider", provider, "model", model, "op", op, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("oracle.call.completed", "provider", provider, "model", model, "op", op, "duration_ms", dur.Milliseconds())
}

// LogRetention records what a retention pass removed.
func LogRetention(l Logger, userID string, messages, expired, capped int) {
	if messages == 0 && expired == 0 && capped == 0 {
		l.Debug("retention.noop", "user_id", userID)
		return
	}
	l.Info("retention.applied", "user_id", userID, "messages_deleted", messages, "sessions_expired", expired, "sessions_capped", capped)
}

// LogTurn records a completed turn.
func LogTurn(l Logger, sessionID int64, function string, normalized bool, dur time.Duration) {
	l.Info("turn.completed", "session_id", sessionID, "function", function, "normalized", normalized, "duration_ms", dur.Milliseconds())
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
