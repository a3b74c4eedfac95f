package core

import (
	"context"
	"time"

	"github.com/Sjoneon/DaySync-Server/logging"
)

// ToolContext provides the constrained surface a function handler sees while
// executing one dispatched call: the caller's identity, the turn clock and
// time zone, cancellation and a logger. Handlers never see the session or
// message history.
type ToolContext struct {
	ctx            context.Context
	userID         UserID
	sessionID      SessionID
	functionCallID string
	now            time.Time
	loc            *time.Location
	logger         logging.Logger
}

// ToolContextOptions configures NewToolContext.
type ToolContextOptions struct {
	SessionID      SessionID
	FunctionCallID string
	Now            time.Time
	Location       *time.Location
	Logger         logging.Logger
}

// NewToolContext constructs a tool context for userID. A zero Now is
// replaced by time.Now and a nil Location by time.Local.
func NewToolContext(ctx context.Context, userID UserID, optFns ...func(o *ToolContextOptions)) *ToolContext {
	opts := ToolContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &ToolContext{
		ctx:            ctx,
		userID:         userID,
		sessionID:      opts.SessionID,
		functionCallID: opts.FunctionCallID,
		now:            opts.Now.In(opts.Location),
		loc:            opts.Location,
		logger:         opts.Logger,
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// UserID returns the user on whose behalf the call executes.
func (tc *ToolContext) UserID() UserID { return tc.userID }

// SessionID returns the session of the turn (zero for a session not yet created).
func (tc *ToolContext) SessionID() SessionID { return tc.sessionID }

// FunctionCallID returns the correlation id of the call.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Now returns the turn's wall-clock time in the configured zone.
func (tc *ToolContext) Now() time.Time { return tc.now }

// Location returns the zone used to read local time arguments.
func (tc *ToolContext) Location() *time.Location { return tc.loc }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }
