// Package engine defines the boundary to the reasoning engine: a closed
// event variant over its output stream, and a subprocess-backed
// implementation speaking the stream-json protocol. The engine owns all
// tool execution and planning; nothing in this package reimplements it.
package engine

import (
	"context"
	"encoding/json"
)

// EventKind tags one engine output event.
type EventKind int

const (
	// EventInit reports the engine's session identity for this invocation.
	EventInit EventKind = iota
	// EventAssistant is an assistant-authored unit; its ID is the resume cursor.
	EventAssistant
	// EventResult is one discrete, emit-worthy result.
	EventResult
	// EventToolNote is a tool-related notification, consumed for logging only.
	EventToolNote
	// EventOther is any record the broker has no interest in.
	EventOther
)

// Event is one decoded engine output record.
type Event struct {
	Kind      EventKind
	SessionID string
	MessageID string
	Text      string
	IsError   bool
	Raw       json.RawMessage
}

// PromptSource feeds prompts into an open invocation. Next blocks while the
// source is open and empty; ok=false means no further prompts will arrive.
type PromptSource interface {
	Next(ctx context.Context) (string, bool)
}

// Options configures one invocation.
type Options struct {
	// SessionID resumes an existing engine conversation when set.
	SessionID string
	// ResumeAt is the last acknowledged output unit; resumption continues
	// immediately after it instead of replaying history.
	ResumeAt string
	// Env is merged into the engine subprocess environment only, never into
	// the broker's own environment.
	Env map[string]string
}

// Invocation is one open conversation turn-sequence with the engine.
// Events closes when the invocation ends; Wait reports how it ended.
type Invocation struct {
	Events <-chan Event
	wait   func() error
}

// Wait blocks until the invocation has fully ended and returns its error.
func (inv *Invocation) Wait() error {
	if inv.wait == nil {
		return nil
	}
	return inv.wait()
}

// Engine opens invocations against a reasoning engine.
type Engine interface {
	Invoke(ctx context.Context, opts Options, prompts PromptSource) (*Invocation, error)
}

// NewInvocation builds an Invocation; exported for fakes in tests of
// packages driving an Engine.
func NewInvocation(events <-chan Event, wait func() error) *Invocation {
	return &Invocation{Events: events, wait: wait}
}
