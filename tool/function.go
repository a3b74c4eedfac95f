package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/internal/util"
)

// HandlerFunc executes one validated call.
type HandlerFunc func(toolCtx *core.ToolContext, args map[string]any) (core.DispatchResult, error)

// FunctionTool adapts a plain Go function into a catalog Tool.
//
// Call validates arguments against the declared schema before the handler
// runs, so a handler never sees a call with missing required fields or
// mistyped values. Failures of that kind become in-band error results.
// Handler errors are wrapped into *ToolError.
//
// A FunctionTool holds no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	kind        Kind
	description string
	parameters  map[string]any
	fn          HandlerFunc
}

// NewFunctionTool constructs a FunctionTool from an explicit schema.
func NewFunctionTool(kind Kind, description string, parameters map[string]any, fn HandlerFunc) *FunctionTool {
	return &FunctionTool{
		kind:        kind,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from an argument
// struct using reflection (see util.CreateSchema).
//
// Example:
//
//	type deleteAlarmArgs struct {
//	  TargetLabel string `json:"target_label" description:"삭제할 알람 라벨"`
//	}
//
//	t := NewFunctionToolFromStruct(KindDeleteAlarm, "알람을 삭제합니다.", deleteAlarmArgs{}, handler)
func NewFunctionToolFromStruct(kind Kind, description string, structType any, fn HandlerFunc) *FunctionTool {
	return NewFunctionTool(kind, description, util.CreateSchema(structType), fn)
}

// Kind returns the catalog kind.
func (t *FunctionTool) Kind() Kind { return t.kind }

// Description returns the description exposed to the oracle.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args then invokes the handler.
//
// Logging fields: tool, fc_id, duration_ms.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (core.DispatchResult, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", string(t.kind), "fc_id", toolCtx.FunctionCallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("dispatch.validation_failed", "tool", string(t.kind), "error", err.Error())
		return validationResult(err), nil
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) {
			return core.DispatchResult{}, err
		}
		code := CodeExecution
		var re *core.RepositoryError
		if errors.As(err, &re) {
			code = CodeRepository
		}
		logger.Error("tool.call.failed", "tool", string(t.kind), "fc_id", toolCtx.FunctionCallID(), "error", err.Error())
		return core.DispatchResult{}, &ToolError{Tool: string(t.kind), Message: err.Error(), Code: code, Err: err}
	}

	logger.Debug("tool.call.completed", "tool", string(t.kind), "status", string(result.Status), "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func validationResult(err error) core.DispatchResult {
	var missing *util.MissingFieldsError
	if errors.As(err, &missing) {
		res := core.Failure(fmt.Sprintf("필수 정보가 누락되었습니다: %s", strings.Join(missing.Fields, ", ")))
		res.Payload = map[string]any{"missing_fields": missing.Fields}
		return res
	}
	var verr *util.ValidationError
	if errors.As(err, &verr) {
		res := core.Failure(fmt.Sprintf("'%s' 값이 올바르지 않습니다: %s", verr.Field, verr.Message))
		res.Payload = map[string]any{"invalid_field": verr.Field}
		return res
	}
	return core.Failure(err.Error())
}

// bindArgs decodes a validated argument bag into a typed struct.
func bindArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
