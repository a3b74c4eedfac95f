// Package engine runs DaySync conversation turns.
//
// A turn takes one user message and produces one assistant reply:
//
//  1. resolve the session, creating it on the first message
//  2. normalize bare yes/no answers to the assistant's last question
//  3. build the prompt from the preamble, the last messages of the session
//     and the function catalog
//  4. ask the oracle; dispatch at most one function call and hand the
//     outcome back for the final wording
//  5. store both messages in one append and apply retention
//
// # Failures
//
// Business failures of a dispatch (missing arguments, unknown records) stay
// in-band and reach the oracle as an error result. Oracle failures abort the
// turn before anything is stored. A repository fault during dispatch ends
// the turn with FailureNotice as the reply.
//
// # Concurrency
//
// Turns on one session are serialized with a per-session lock. Turns on
// different sessions, including new ones, run in parallel.
//
// # Hooks
//
// Hooks observe a turn at fixed points (before the oracle, after dispatch,
// after persistence, on error). A before-oracle hook may abort the turn by
// returning an error.
package engine
