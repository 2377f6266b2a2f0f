// Package emitter frames result envelopes as marker-delimited JSON blocks on
// the process output channel. The consuming host treats any marker pair as
// one discrete result; a null-result envelope is a session-continuity
// heartbeat, not a visible message.
package emitter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Marker lines wrapping each serialized envelope on the output channel.
const (
	StartMarker = "===ENCLAVE_RESULT_START==="
	EndMarker   = "===ENCLAVE_RESULT_END==="
)

// Status values carried by an envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is one framed output block. Immutable once constructed.
type Envelope struct {
	Status       string  `json:"status"`
	Result       *string `json:"result"`
	NewSessionID string  `json:"newSessionId,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Success builds an envelope carrying a visible result.
func Success(result, sessionID string) Envelope {
	return Envelope{
		Status:       StatusSuccess,
		Result:       &result,
		NewSessionID: sessionID,
	}
}

// SessionUpdate builds a null-result heartbeat carrying session continuity.
func SessionUpdate(sessionID string) Envelope {
	return Envelope{
		Status:       StatusSuccess,
		NewSessionID: sessionID,
	}
}

// Failure builds an error envelope carrying the last known session identity.
func Failure(message, sessionID string) Envelope {
	return Envelope{
		Status:       StatusError,
		NewSessionID: sessionID,
		Error:        message,
	}
}

// Emitter serializes envelopes onto a writer. Writes are serialized so
// concurrent emits never interleave marker pairs.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates an emitter over w, typically os.Stdout.
func New(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes one envelope as a marker-delimited block.
func (e *Emitter) Emit(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := fmt.Fprintf(e.w, "%s\n%s\n%s\n", StartMarker, data, EndMarker); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}
	return nil
}
