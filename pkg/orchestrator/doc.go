// Package orchestrator runs the session state machine: it opens reasoning
// engine invocations with a prompt feed, forwards mailbox arrivals into the
// open feed, detects the close sentinel both during and between invocations,
// and tracks the resumable session handle across invocations.
//
// Invariants:
// - Results are emitted in engine emission order, one envelope each.
// - Mailbox messages drained in the same poll as the close sentinel are
//   forwarded into the feed before the feed is closed.
// - No session-update envelope is emitted for an invocation terminated by
//   the sentinel; emitting one would reset the host's idle timer and delay
//   shutdown.
// - Only the polling task closes the prompt feed, so a close can never race
//   a push.
package orchestrator
