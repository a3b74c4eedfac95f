// Package core provides the foundational domain types and contracts of the
// DaySync assistant. It defines:
//
//   - Users, conversation Sessions and immutable Messages
//   - Domain records (CalendarEvent, Alarm) plus explicit patch structs
//   - Oracle content parts (text, function call, function response)
//   - DispatchResult / PendingAction produced by function dispatch
//   - Repository interfaces implemented by the store packages
//   - Typed errors classifying NotFound, oracle and repository faults
//
// The package keeps persistence, model transport and orchestration out of
// scope, exposing small value types and interfaces so that backends and
// oracles can be substituted freely (in-memory store and scripted models in
// tests, SQLite and hosted models in production).
package core
