// Package logging provides a minimal logging interface and adapters.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, dispatcher and stores use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping go.uber.org/zap's sugared logger
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelInfo, Backend: "zap"})
//	eng := engine.New(repo, oracle, func(o *engine.Options) { o.Logger = logger })
package logging
