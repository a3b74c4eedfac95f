package core

// DispatchStatus is the outcome class of a function dispatch.
type DispatchStatus string

const (
	StatusSuccess DispatchStatus = "success"
	StatusError   DispatchStatus = "error"
	StatusPending DispatchStatus = "pending"
)

// Pending action kinds surfaced to the caller of a turn.
const (
	PendingConfirmLocation = "confirm_current_location"
	PendingRouteSearch     = "search_route"
	PendingWeather         = "weather"
)

// CurrentLocation is the sentinel start location meaning "the caller's live
// position". It is resolved by the caller's geolocation, not by the backend.
const CurrentLocation = "@current_location"

// PendingAction is a request for the external caller to act on (confirm the
// current location, run a route search, fetch weather).
type PendingAction struct {
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// DispatchResult is the in-band outcome of one function dispatch. Business
// failures (missing arguments, unknown records, invalid enum values) are
// carried here with StatusError; they are never returned as Go errors.
type DispatchResult struct {
	Status  DispatchStatus `json:"status"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
	Pending *PendingAction `json:"pending,omitempty"`
}

// Success builds a success result.
func Success(msg string, payload map[string]any) DispatchResult {
	return DispatchResult{Status: StatusSuccess, Message: msg, Payload: payload}
}

// Failure builds an error result.
func Failure(msg string) DispatchResult {
	return DispatchResult{Status: StatusError, Message: msg}
}

// OK reports whether the result is not an error.
func (r DispatchResult) OK() bool { return r.Status != StatusError }

// AsResponse converts the result into the payload handed back to the oracle.
func (r DispatchResult) AsResponse() map[string]any {
	resp := map[string]any{
		"status":  string(r.Status),
		"message": r.Message,
	}
	for k, v := range r.Payload {
		resp[k] = v
	}
	if r.Pending != nil {
		resp["pending_action"] = r.Pending.Kind
	}
	return resp
}
