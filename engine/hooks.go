package engine

import (
	"context"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/logging"
	"github.com/Sjoneon/DaySync-Server/model"
)

// HookType names a point in the turn lifecycle.
type HookType string

const (
	// HookBeforeOracle runs after the prompt is built and before the first
	// oracle call. An error aborts the turn before anything is persisted.
	HookBeforeOracle HookType = "before_oracle"

	// HookAfterDispatch runs after a function call was dispatched.
	HookAfterDispatch HookType = "after_dispatch"

	// HookAfterPersist runs once the exchange is stored.
	HookAfterPersist HookType = "after_persist"

	// HookOnError runs when a turn fails. Its own error is ignored.
	HookOnError HookType = "on_error"
)

// HookContext is the view of the turn a hook receives. Fields are filled
// as the turn progresses.
type HookContext struct {
	Type       HookType
	UserID     core.UserID
	SessionID  core.SessionID // zero until the session exists
	Utterance  string         // normalized text sent to the oracle
	Normalized bool
	Prompt     *model.Prompt
	Call       *core.FunctionCall
	Result     *core.DispatchResult
	Exchange   *core.Exchange
	Err        error
}

// Hook is a synchronous turn lifecycle callback.
type Hook interface {
	Type() HookType
	Execute(ctx context.Context, hc *HookContext) error
}

// FunctionHook adapts a function into a Hook.
//
// Example:
//
//	audit := NewFunctionHook(HookAfterDispatch, func(ctx context.Context, hc *HookContext) error {
//	    log.Printf("%s -> %s", hc.Call.Name, hc.Result.Status)
//	    return nil
//	})
type FunctionHook struct {
	hookType HookType
	fn       func(ctx context.Context, hc *HookContext) error
}

// NewFunctionHook creates a function-based hook.
func NewFunctionHook(hookType HookType, fn func(ctx context.Context, hc *HookContext) error) *FunctionHook {
	return &FunctionHook{hookType: hookType, fn: fn}
}

// Type returns the hook type.
func (h *FunctionHook) Type() HookType { return h.hookType }

// Execute calls the wrapped function.
func (h *FunctionHook) Execute(ctx context.Context, hc *HookContext) error { return h.fn(ctx, hc) }

// Hooks runs registered hooks in registration order. Register before the
// engine serves turns; execution is safe for concurrent use afterwards.
type Hooks struct {
	hooks map[HookType][]Hook
}

// NewHooks creates an empty hook registry.
func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[HookType][]Hook)}
}

// Register adds h.
func (hs *Hooks) Register(h Hook) *Hooks {
	hs.hooks[h.Type()] = append(hs.hooks[h.Type()], h)
	return hs
}

// Run executes every hook of hc.Type and stops at the first error.
func (hs *Hooks) Run(ctx context.Context, hc *HookContext) error {
	if hs == nil {
		return nil
	}
	for _, h := range hs.hooks[hc.Type] {
		if err := h.Execute(ctx, hc); err != nil {
			return err
		}
	}
	return nil
}

// LoggingHook writes one debug line per lifecycle point.
type LoggingHook struct {
	hookType HookType
	logger   logging.Logger
}

// NewLoggingHook creates a logging hook for hookType.
func NewLoggingHook(hookType HookType, logger logging.Logger) *LoggingHook {
	return &LoggingHook{hookType: hookType, logger: logger}
}

// Type returns the hook type.
func (h *LoggingHook) Type() HookType { return h.hookType }

// Execute logs the turn state.
func (h *LoggingHook) Execute(_ context.Context, hc *HookContext) error {
	if h.logger == nil {
		return nil
	}
	kv := []any{"hook", string(hc.Type), "user_id", string(hc.UserID), "session_id", int64(hc.SessionID)}
	if hc.Call != nil {
		kv = append(kv, "function", hc.Call.Name)
	}
	if hc.Result != nil {
		kv = append(kv, "status", string(hc.Result.Status))
	}
	if hc.Err != nil {
		kv = append(kv, "error", hc.Err.Error())
	}
	h.logger.Debug("turn.hook", kv...)
	return nil
}
