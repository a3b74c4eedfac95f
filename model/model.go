package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sjoneon/DaySync-Server/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input.
type Request struct {
	Instructions string           `json:"instructions"` // System preamble
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed model reply.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "tool_calls", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "gemini", "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface an oracle needs to drive generation.
// Generate delivers exactly one Response or one error; both channels are
// closed afterwards.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when the model closed its channels
// without producing a response.
var ErrNoResponse = errors.New("model produced no response")

// Collect drains a Generate call and returns the final response.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		last Response
		got  bool
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			last, got = r, true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}
	if !got {
		return Response{}, ErrNoResponse
	}
	return last, nil
}

// MockModel is a scripted in-memory Model useful for tests and offline runs.
// Each Generate call pops the next queued step; requests are recorded.
type MockModel struct {
	info Info

	mu       sync.Mutex
	steps    []mockStep
	requests []Request
}

type mockStep struct {
	content core.Content
	err     error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock", SupportsTools: true}}
}

// AddText queues a plain text reply.
func (m *MockModel) AddText(text string) *MockModel {
	return m.add(mockStep{content: core.NewTextContent(core.RoleAssistant, text)})
}

// AddCall queues a function call reply with JSON encoded arguments.
func (m *MockModel) AddCall(id, name, args string) *MockModel {
	return m.add(mockStep{content: core.Content{
		Role:  string(core.RoleAssistant),
		Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}}},
	}})
}

// AddContent queues an arbitrary reply.
func (m *MockModel) AddContent(c core.Content) *MockModel {
	return m.add(mockStep{content: c})
}

// AddError queues a failing generation.
func (m *MockModel) AddError(err error) *MockModel {
	return m.add(mockStep{err: err})
}

func (m *MockModel) add(s mockStep) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, s)
	return m
}

// Requests returns a copy of every request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Pending reports how many scripted steps remain.
func (m *MockModel) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var (
		step mockStep
		ok   bool
	)
	if len(m.steps) > 0 {
		step, ok = m.steps[0], true
		m.steps = m.steps[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		switch {
		case ctx.Err() != nil:
			errCh <- ctx.Err()
		case !ok:
			errCh <- fmt.Errorf("mock model %s: script exhausted", m.info.Name)
		case step.err != nil:
			errCh <- step.err
		default:
			respCh <- Response{Content: step.content, FinishReason: "stop"}
		}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
