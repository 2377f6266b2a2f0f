// Package control parses the startup control-channel payload: one JSON blob
// read in full from stdin before any other work begins.
package control

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// scheduledNotice prefixes prompts that originate from a scheduler rather
// than a live operator.
const scheduledNotice = "[This message was triggered by a scheduled task. " +
	"There is no operator waiting on the reply; act on it directly.]"

// WithScheduledNotice prefixes the scheduled-task notice to a prompt.
func WithScheduledNotice(text string) string {
	return scheduledNotice + "\n\n" + text
}

// payloadSchema is the wire contract with the host process.
const payloadSchema = `{
  "type": "object",
  "required": ["prompt"],
  "properties": {
    "prompt": {"type": "string", "minLength": 1},
    "session_id": {"type": "string"},
    "group_id": {"type": "string"},
    "scheduled": {"type": "boolean"},
    "secrets": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// Payload is the decoded startup control-channel message.
type Payload struct {
	Prompt    string            `json:"prompt"`
	SessionID string            `json:"session_id,omitempty"`
	GroupID   string            `json:"group_id,omitempty"`
	Scheduled bool              `json:"scheduled,omitempty"`
	Secrets   map[string]string `json:"secrets,omitempty"`
}

// EffectivePrompt returns the prompt to feed the engine, with the scheduled
// notice prefixed when the host flagged this run as a scheduled task.
func (p *Payload) EffectivePrompt() string {
	if p.Scheduled {
		return WithScheduledNotice(p.Prompt)
	}
	return p.Prompt
}

// Read consumes r in full and parses the payload. Any malformed payload is a
// fatal startup error for the caller.
func Read(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read control payload: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the payload schema and decodes it.
func Parse(data []byte) (*Payload, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("control payload is empty")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(payloadSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate control payload: %w", err)
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("invalid control payload: %s", strings.Join(issues, "; "))
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode control payload: %w", err)
	}
	return &payload, nil
}
