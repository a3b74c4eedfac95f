package model

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/logging"
)

// Prompt is everything the oracle sees for one turn.
type Prompt struct {
	Preamble  string           // System instructions, rendered per turn
	History   []core.Content   // Prior turns, oldest first
	Utterance string           // Normalized user text
	Tools     []ToolDefinition // Function catalog
}

// Reply is the first-phase oracle answer: text, a function call, or both.
type Reply struct {
	Text string
	Call *core.FunctionCall
}

// HasCall reports whether the reply requests a function dispatch.
func (r Reply) HasCall() bool { return r.Call != nil }

// Oracle is the two-phase generation collaborator of a conversation turn.
type Oracle interface {
	// GenerateReply returns the oracle's answer to the prompt. At most one
	// function call is surfaced.
	GenerateReply(ctx context.Context, p Prompt) (Reply, error)

	// SubmitFunctionResult feeds a dispatch outcome back and returns the final text.
	SubmitFunctionResult(ctx context.Context, p Prompt, r Reply, result core.DispatchResult) (string, error)
}

var (
	// ErrEmptyReply is reported when the oracle produced neither text nor a call.
	ErrEmptyReply = errors.New("reply has neither text nor function call")
	// ErrMalformedCall is reported when a function call carries no name.
	ErrMalformedCall = errors.New("function call without name")
)

// OracleOptions configures a ModelOracle.
type OracleOptions struct {
	// Timeout bounds each generation call. Zero means no extra bound.
	Timeout time.Duration
	Logger  logging.Logger
}

// ModelOracle implements Oracle over any Model.
type ModelOracle struct {
	model Model
	opts  OracleOptions
}

// NewOracle wraps m as an Oracle.
func NewOracle(m Model, optFns ...func(o *OracleOptions)) *ModelOracle {
	opts := OracleOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &ModelOracle{model: m, opts: opts}
}

// Info exposes the wrapped model's metadata.
func (o *ModelOracle) Info() Info { return o.model.Info() }

// GenerateReply implements Oracle.
func (o *ModelOracle) GenerateReply(ctx context.Context, p Prompt) (Reply, error) {
	resp, err := o.generate(ctx, "generate", Request{
		Instructions: p.Preamble,
		Contents:     p.baseContents(),
		Tools:        p.Tools,
	})
	if err != nil {
		return Reply{}, err
	}

	reply := Reply{Text: strings.TrimSpace(resp.Content.Text())}
	if calls := resp.Content.FunctionCalls(); len(calls) > 0 {
		call := calls[0]
		if strings.TrimSpace(call.Name) == "" {
			return Reply{}, &core.OracleError{Op: "generate", Err: ErrMalformedCall}
		}
		if call.ID == "" {
			call.ID = "call_" + core.NewID()
		}
		if len(calls) > 1 {
			o.opts.Logger.Warn("oracle.extra_calls_ignored", "function", call.Name, "count", len(calls))
		}
		reply.Call = &call
	}
	if reply.Text == "" && reply.Call == nil {
		return Reply{}, &core.OracleError{Op: "generate", Err: ErrEmptyReply}
	}
	return reply, nil
}

// SubmitFunctionResult implements Oracle.
func (o *ModelOracle) SubmitFunctionResult(ctx context.Context, p Prompt, r Reply, result core.DispatchResult) (string, error) {
	if r.Call == nil {
		return "", &core.OracleError{Op: "continue", Err: ErrMalformedCall}
	}

	callParts := make([]core.Part, 0, 2)
	if r.Text != "" {
		callParts = append(callParts, core.TextPart{Text: r.Text})
	}
	callParts = append(callParts, core.FunctionCallPart{FunctionCall: *r.Call})

	contents := append(p.baseContents(),
		core.Content{Role: string(core.RoleAssistant), Parts: callParts},
		core.Content{Role: string(core.RoleTool), Parts: []core.Part{core.FunctionResponsePart{
			FunctionResponse: core.FunctionResponse{ID: r.Call.ID, Name: r.Call.Name, Response: result.AsResponse()},
		}}},
	)

	resp, err := o.generate(ctx, "continue", Request{
		Instructions: p.Preamble,
		Contents:     contents,
		Tools:        p.Tools,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Content.Text())
	if text == "" {
		return "", &core.OracleError{Op: "continue", Err: ErrEmptyReply}
	}
	return text, nil
}

func (o *ModelOracle) generate(ctx context.Context, op string, req Request) (Response, error) {
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	info := o.model.Info()
	start := time.Now()
	resp, err := Collect(ctx, o.model, req)
	logging.LogOracleCall(o.opts.Logger, info.Provider, info.Name, op, time.Since(start), err)
	if err != nil {
		return Response{}, &core.OracleError{Op: op, Err: err}
	}
	return resp, nil
}

func (p Prompt) baseContents() []core.Content {
	contents := make([]core.Content, 0, len(p.History)+3)
	contents = append(contents, p.History...)
	contents = append(contents, core.NewTextContent(core.RoleUser, p.Utterance))
	return contents
}
