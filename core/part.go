package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Part represents a polymorphic segment of role-based content exchanged with
// an oracle. Concrete part types implement the unexported isPart marker
// enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// FunctionCall is a transient function invocation request emitted by the
// oracle. It lives only for the duration of one turn and is never persisted.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Provider call id, echoed in the response
	Name      string `json:"name"`                // Function name from the catalog
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument object
}

// DecodeArgs parses Arguments into an argument bag. An empty payload decodes
// to an empty map.
func (fc FunctionCall) DecodeArgs() (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(fc.Arguments) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
		return nil, fmt.Errorf("decode arguments of %s: %w", fc.Name, err)
	}
	return args, nil
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

// isPart implements the Part interface for FunctionCallPart.
func (FunctionCallPart) isPart() {}

// FunctionResponse carries a dispatch outcome back to the oracle.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"` // Matches originating FunctionCall ID
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// JSON renders the response payload for providers that accept tool results
// as text.
func (fr FunctionResponse) JSON() string {
	b, err := json.Marshal(fr.Response)
	if err != nil {
		return fmt.Sprintf("%v", fr.Response)
	}
	return string(b)
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

// isPart implements the Part interface for FunctionResponsePart.
func (FunctionResponsePart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // user, assistant, tool or system
	Parts []Part `json:"parts"`
}

// NewTextContent builds single-part text content.
func NewTextContent(role Role, text string) Content {
	return Content{Role: string(role), Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// FunctionCalls returns the function call parts in their original order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// FunctionResponses returns the function response parts in their original order.
func (c Content) FunctionResponses() []FunctionResponse {
	var responses []FunctionResponse
	for _, p := range c.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}
