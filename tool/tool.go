// Package tool implements the closed function catalog the oracle may call:
// typed parameter schemas, argument validation, one handler per kind and a
// structured in-band result.
package tool

import (
	"fmt"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/internal/util"
)

// Tool is one callable catalog entry.
type Tool interface {
	// Kind returns the catalog kind served by this tool.
	Kind() Kind

	// Description is shown to the oracle to decide when to call the tool.
	Description() string

	// Parameters returns the JSON schema of the accepted arguments.
	Parameters() map[string]any

	// Call validates args and executes the action. Business failures are
	// reported in the result; the error is reserved for repository faults.
	Call(toolCtx *core.ToolContext, args map[string]any) (core.DispatchResult, error)
}

// ValidationError represents a single parameter validation failure.
type ValidationError = util.ValidationError

// MissingFieldsError names every missing required argument.
type MissingFieldsError = util.MissingFieldsError

// ToolError wraps a fault raised while executing a tool.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
	Err     error  `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes the underlying fault.
func (e *ToolError) Unwrap() error { return e.Err }

// Error codes carried by ToolError.
const (
	CodeRepository = "REPOSITORY_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)
