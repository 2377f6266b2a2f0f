// Package hooks implements the two side-effect callbacks the reasoning
// engine invokes: archiving the transcript before compaction, and stripping
// secret environment values from shell-tool commands before execution.
package hooks

import (
	"strings"
)

// ShellTool is the engine tool name the sanitizer applies to.
const ShellTool = "Bash"

// SanitizeToolInput rewrites shell-tool input so subprocesses never observe
// the given secret environment variables. Non-shell tools and inputs without
// a command pass through untouched.
func SanitizeToolInput(tool string, input map[string]any, secretKeys []string) map[string]any {
	if tool != ShellTool || len(secretKeys) == 0 {
		return input
	}

	command, ok := input["command"].(string)
	if !ok || command == "" {
		return input
	}

	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	out["command"] = "unset " + strings.Join(secretKeys, " ") + "; " + command
	return out
}
