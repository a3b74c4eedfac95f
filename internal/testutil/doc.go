// Package testutil contains fluent builders that seed a core.Repository with
// users, sessions, messages and calendar records, plus a manual clock for
// tests that pin wall-clock dependent behavior. They are not intended for
// production usage.
package testutil
