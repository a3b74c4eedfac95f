package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/logging"
	"github.com/Sjoneon/DaySync-Server/model"
	"github.com/Sjoneon/DaySync-Server/retention"
	"github.com/Sjoneon/DaySync-Server/tool"
)

// FailureNotice replaces the reply when a dispatched function hit a storage
// fault.
const FailureNotice = "요청을 처리하는 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."

// ErrEmptyMessage is returned for a turn without user text.
var ErrEmptyMessage = errors.New("empty message")

// Retainer applies retention after a turn.
type Retainer interface {
	Enforce(ctx context.Context, userID core.UserID, sessionID core.SessionID) (retention.Report, error)
}

// Options configures an Engine.
type Options struct {
	// HistoryLimit is the number of prior messages replayed (default 10).
	HistoryLimit int
	// Location is the zone of the preamble clock and of offset-less time
	// arguments. Defaults to time.Local.
	Location *time.Location
	Clock    core.Clock
	Logger   logging.Logger
	// Registry overrides the function catalog built over the repository.
	Registry *tool.Registry
	// Retention runs at the tail of every turn; nil disables it.
	Retention Retainer
	Hooks     *Hooks
}

// TurnRequest is one inbound user message.
type TurnRequest struct {
	UserID  core.UserID
	Message string
	// SessionID continues an existing session; nil starts a new one.
	SessionID   *core.SessionID
	SideContext map[string]any
}

// TurnResult is the outcome of a completed turn.
type TurnResult struct {
	Text               string              `json:"text"`
	SessionID          core.SessionID      `json:"session_id"`
	UserMessageID      core.MessageID      `json:"user_message_id"`
	AssistantMessageID core.MessageID      `json:"assistant_message_id"`
	FunctionCalled     string              `json:"function_called,omitempty"`
	Pending            *core.PendingAction `json:"pending_action,omitempty"`
	Normalized         bool                `json:"normalized"`
}

// Engine runs conversation turns.
//
// A turn resolves the session, builds the bounded context, queries the
// oracle, dispatches at most one function call, persists the exchange and
// applies retention. Turns on the same session are serialized; anything
// else runs concurrently.
type Engine struct {
	repo     core.Repository
	oracle   model.Oracle
	registry *tool.Registry
	builder  *ContextBuilder
	locks    *keyedMutex
	opts     Options
}

// New creates an Engine.
func New(repo core.Repository, oracle model.Oracle, optFns ...func(o *Options)) *Engine {
	opts := Options{
		HistoryLimit: DefaultHistoryLimit,
		Location:     time.Local,
		Clock:        time.Now,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Registry == nil {
		opts.Registry = tool.NewRegistry(repo)
	}

	return &Engine{
		repo:     repo,
		oracle:   oracle,
		registry: opts.Registry,
		builder:  NewContextBuilder(repo, opts.HistoryLimit, opts.Location, opts.Registry.Definitions()),
		locks:    newKeyedMutex(),
		opts:     opts,
	}
}

// Turn processes one user message end to end. On error nothing is
// persisted.
func (e *Engine) Turn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	start := time.Now()
	logger := logging.With(e.opts.Logger, "user_id", string(req.UserID))

	result, err := e.turn(ctx, req, logger)
	if err != nil {
		logger.Error("turn.failed", "error", err.Error())
		_ = e.opts.Hooks.Run(ctx, &HookContext{Type: HookOnError, UserID: req.UserID, SessionID: result.SessionID, Err: err})
		return TurnResult{}, err
	}

	logging.LogTurn(logger, int64(result.SessionID), result.FunctionCalled, result.Normalized, time.Since(start))
	return result, nil
}

func (e *Engine) turn(ctx context.Context, req TurnRequest, logger logging.Logger) (TurnResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	// RESOLVE_SESSION
	if _, err := e.repo.GetUser(ctx, req.UserID); err != nil {
		return TurnResult{}, core.WrapRepository("get user", err)
	}

	var sessionID core.SessionID
	if req.SessionID != nil {
		sessionID = *req.SessionID
		unlock := e.locks.Lock(sessionID.String())
		defer unlock()

		sess, err := e.repo.GetSession(ctx, sessionID)
		if err != nil {
			return TurnResult{}, core.WrapRepository("get session", err)
		}
		if sess.UserID != req.UserID {
			return TurnResult{}, core.NewNotFound("session", sessionID)
		}
	}
	logger = logging.With(logger, "session_id", int64(sessionID))
	logger.Debug("turn.start")

	// BUILD_CONTEXT
	history, err := e.builder.History(ctx, sessionID)
	if err != nil {
		return TurnResult{SessionID: sessionID}, err
	}
	utterance, normalized := Normalize(req.Message, lastAssistantText(history))
	if normalized {
		logger.Debug("turn.normalized", "utterance", utterance)
	}

	now := e.opts.Clock()
	prompt, err := e.builder.Build(now, history, utterance, req.SideContext)
	if err != nil {
		return TurnResult{SessionID: sessionID}, err
	}

	hc := &HookContext{
		Type:       HookBeforeOracle,
		UserID:     req.UserID,
		SessionID:  sessionID,
		Utterance:  utterance,
		Normalized: normalized,
		Prompt:     &prompt,
	}
	if err := e.opts.Hooks.Run(ctx, hc); err != nil {
		return TurnResult{SessionID: sessionID}, err
	}

	// QUERY_ORACLE
	reply, err := e.oracle.GenerateReply(ctx, prompt)
	if err != nil {
		return TurnResult{SessionID: sessionID}, err
	}

	result := TurnResult{SessionID: sessionID, Normalized: normalized, Text: reply.Text}

	// ONE_CALL
	if reply.HasCall() {
		call := *reply.Call
		result.FunctionCalled = call.Name

		tc := core.NewToolContext(ctx, req.UserID, func(o *core.ToolContextOptions) {
			o.SessionID = sessionID
			o.FunctionCallID = call.ID
			o.Now = now
			o.Location = e.opts.Location
			o.Logger = logger
		})
		dispatched, err := e.registry.Dispatch(tc, call)
		if err != nil {
			logger.Error("turn.dispatch_fault", "function", call.Name, "error", err.Error())
			result.Text = FailureNotice
		} else {
			result.Pending = dispatched.Pending

			hc.Type, hc.Call, hc.Result = HookAfterDispatch, &call, &dispatched
			if err := e.opts.Hooks.Run(ctx, hc); err != nil {
				return TurnResult{SessionID: sessionID}, err
			}

			text, err := e.oracle.SubmitFunctionResult(ctx, prompt, reply, dispatched)
			if err != nil {
				return TurnResult{SessionID: sessionID}, err
			}
			result.Text = text
		}
	} else if strings.TrimSpace(result.Text) == "" {
		return TurnResult{SessionID: sessionID}, &core.OracleError{Op: "generate", Err: model.ErrEmptyReply}
	}

	// PERSIST
	userMsg := core.Message{Role: core.RoleUser, Content: req.Message, Intent: result.FunctionCalled, CreatedAt: now}
	assistantMsg := core.Message{Role: core.RoleAssistant, Content: result.Text, CreatedAt: now}
	var ex core.Exchange
	if sessionID == 0 {
		sess, started, err := e.repo.StartExchange(ctx, core.NewSession(req.UserID, now), userMsg, assistantMsg, now)
		if err != nil {
			return TurnResult{}, core.WrapRepository("start session", err)
		}
		sessionID, ex = sess.ID, started
		result.SessionID = sessionID
		logger = logging.With(logger, "session_id", int64(sessionID))
	} else {
		ex, err = e.repo.AppendExchange(ctx, sessionID, userMsg, assistantMsg, now)
		if err != nil {
			return TurnResult{SessionID: sessionID}, core.WrapRepository("append exchange", err)
		}
	}
	result.UserMessageID, result.AssistantMessageID = ex.User.ID, ex.Assistant.ID

	if err := e.repo.TouchUser(ctx, req.UserID, now); err != nil {
		logger.Warn("turn.touch_user_failed", "error", err.Error())
	}

	hc.Type, hc.SessionID, hc.Exchange = HookAfterPersist, sessionID, &ex
	if err := e.opts.Hooks.Run(ctx, hc); err != nil {
		logger.Warn("turn.hook_failed", "hook", string(HookAfterPersist), "error", err.Error())
	}

	// RETAIN
	if e.opts.Retention != nil {
		if _, err := e.opts.Retention.Enforce(ctx, req.UserID, sessionID); err != nil {
			logger.Warn("retention.failed", "error", err.Error())
		}
	}

	return result, nil
}

// Registry exposes the function catalog.
func (e *Engine) Registry() *tool.Registry { return e.registry }
