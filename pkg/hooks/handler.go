package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// hookInput is the payload the engine writes to a hook handler's stdin.
type hookInput struct {
	SessionID      string         `json:"session_id"`
	TranscriptPath string         `json:"transcript_path"`
	ToolName       string         `json:"tool_name"`
	ToolInput      map[string]any `json:"tool_input"`
}

// preToolUseOutput is the reply shape for a PreToolUse hook.
type preToolUseOutput struct {
	HookSpecificOutput struct {
		HookEventName      string         `json:"hookEventName"`
		PermissionDecision string         `json:"permissionDecision"`
		UpdatedInput       map[string]any `json:"updatedInput,omitempty"`
	} `json:"hookSpecificOutput"`
}

// HandlePreToolUse reads a hook payload from r, sanitizes shell-tool input
// and writes the engine's expected reply to w.
func HandlePreToolUse(r io.Reader, w io.Writer, secretKeys []string) error {
	var in hookInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("failed to decode hook input: %w", err)
	}

	var out preToolUseOutput
	out.HookSpecificOutput.HookEventName = "PreToolUse"
	out.HookSpecificOutput.PermissionDecision = "allow"

	updated := SanitizeToolInput(in.ToolName, in.ToolInput, secretKeys)
	if in.ToolName == ShellTool && updated != nil {
		out.HookSpecificOutput.UpdatedInput = updated
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("failed to encode hook output: %w", err)
	}
	return nil
}

// HandlePreCompact reads a hook payload from r and archives the transcript.
// It never fails the hook: archive errors are handled inside the archiver.
func HandlePreCompact(r io.Reader, archiver *Archiver) error {
	var in hookInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("failed to decode hook input: %w", err)
	}

	archiver.PreCompact(in.SessionID, in.TranscriptPath)
	return nil
}
