package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// hookCommand registers one shell hook handler with the engine.
type hookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

type hookMatcher struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []hookCommand `json:"hooks"`
}

type settings struct {
	Hooks map[string][]hookMatcher `json:"hooks"`
}

// WriteSettings generates the engine settings file wiring the broker's own
// hook subcommands in as the engine's PreToolUse and PreCompact handlers.
// selfExe is the path the engine should invoke, normally os.Executable().
func WriteSettings(dir, selfExe string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create settings directory: %w", err)
	}

	cfg := settings{
		Hooks: map[string][]hookMatcher{
			"PreToolUse": {{
				Matcher: "Bash",
				Hooks:   []hookCommand{{Type: "command", Command: selfExe + " hook pre-tool-use"}},
			}},
			"PreCompact": {{
				Hooks: []hookCommand{{Type: "command", Command: selfExe + " hook pre-compact"}},
			}},
		},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal settings: %w", err)
	}

	path := filepath.Join(dir, "engine-settings.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write settings: %w", err)
	}
	return path, nil
}
