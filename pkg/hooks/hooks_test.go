package hooks

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecrets = []string{"OPENROUTER_API_KEY", "GOOGLE_REFRESH_TOKEN"}

func TestSanitizeToolInput_PrefixesUnset(t *testing.T) {
	input := map[string]any{"command": "env | sort", "timeout": 5000}

	out := SanitizeToolInput("Bash", input, testSecrets)

	assert.Equal(t, "unset OPENROUTER_API_KEY GOOGLE_REFRESH_TOKEN; env | sort", out["command"])
	assert.Equal(t, 5000, out["timeout"])
	// Original input is not mutated.
	assert.Equal(t, "env | sort", input["command"])
}

func TestSanitizeToolInput_NonShellToolUntouched(t *testing.T) {
	input := map[string]any{"command": "whatever"}
	out := SanitizeToolInput("Read", input, testSecrets)
	assert.Equal(t, "whatever", out["command"])
}

func TestSanitizeToolInput_MissingCommandNoOp(t *testing.T) {
	input := map[string]any{"description": "no command here"}
	out := SanitizeToolInput("Bash", input, testSecrets)
	assert.Equal(t, input, out)
}

func TestHandlePreToolUse(t *testing.T) {
	in := strings.NewReader(`{"tool_name":"Bash","tool_input":{"command":"echo hi"}}`)
	var buf bytes.Buffer

	require.NoError(t, HandlePreToolUse(in, &buf, testSecrets))

	var out struct {
		HookSpecificOutput struct {
			HookEventName      string         `json:"hookEventName"`
			PermissionDecision string         `json:"permissionDecision"`
			UpdatedInput       map[string]any `json:"updatedInput"`
		} `json:"hookSpecificOutput"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "PreToolUse", out.HookSpecificOutput.HookEventName)
	assert.Equal(t, "allow", out.HookSpecificOutput.PermissionDecision)
	assert.Equal(t,
		"unset OPENROUTER_API_KEY GOOGLE_REFRESH_TOKEN; echo hi",
		out.HookSpecificOutput.UpdatedInput["command"])
}

func TestHandlePreToolUse_BadInput(t *testing.T) {
	err := HandlePreToolUse(strings.NewReader("{broken"), &bytes.Buffer{}, testSecrets)
	assert.Error(t, err)
}

type fakeSummaries struct {
	summary string
	saved   map[string]string
}

func (f *fakeSummaries) SummaryFor(string) (string, bool, error) {
	if f.summary == "" {
		return "", false, nil
	}
	return f.summary, true, nil
}

func (f *fakeSummaries) SaveSummary(sessionID, summary string) error {
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[sessionID] = summary
	return nil
}

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))
	return path
}

func TestArchiver_PreCompactWritesArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	a := NewArchiver(dir, &fakeSummaries{summary: "Weekly Report"}, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC) }

	path := writeTranscript(t,
		`{"type":"user","message":{"role":"user","content":"write the report"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"report written"}]}}`,
	)

	a.PreCompact("sess-1", path)

	data, err := os.ReadFile(filepath.Join(dir, "2026-05-02-weekly-report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "report written")
}

func TestArchiver_TranscriptSummaryBeatsStored(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	a := NewArchiver(dir, &fakeSummaries{summary: "Stored Title"}, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC) }

	path := writeTranscript(t,
		`{"type":"summary","summary":"Transcript Title"}`,
		`{"type":"user","message":{"role":"user","content":"hi"}}`,
	)

	a.PreCompact("sess-1", path)

	_, err := os.Stat(filepath.Join(dir, "2026-05-02-transcript-title.md"))
	assert.NoError(t, err)
}

func TestArchiver_PersistsTranscriptSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	store := &fakeSummaries{}
	a := NewArchiver(dir, store, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC) }

	path := writeTranscript(t,
		`{"type":"summary","summary":"Transcript Title"}`,
		`{"type":"user","message":{"role":"user","content":"hi"}}`,
	)

	a.PreCompact("sess-1", path)

	assert.Equal(t, "Transcript Title", store.saved["sess-1"])
}

func TestArchiver_NoSummaryNothingPersisted(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	store := &fakeSummaries{summary: "Stored Title"}
	a := NewArchiver(dir, store, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC) }

	path := writeTranscript(t, `{"type":"user","message":{"role":"user","content":"hi"}}`)

	a.PreCompact("sess-1", path)

	assert.Empty(t, store.saved)
}

func TestArchiver_FallbackTitle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	a := NewArchiver(dir, nil, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2026, 5, 2, 10, 30, 0, 0, time.UTC) }

	path := writeTranscript(t, `{"type":"user","message":{"role":"user","content":"hi"}}`)

	a.PreCompact("", path)

	_, err := os.Stat(filepath.Join(dir, "2026-05-02-session-2026-05-02-10-30.md"))
	assert.NoError(t, err)
}

func TestArchiver_MissingTranscriptSwallowed(t *testing.T) {
	a := NewArchiver(t.TempDir(), nil, zerolog.Nop())
	// Must not panic or write anything.
	a.PreCompact("sess-1", "/nonexistent/transcript.jsonl")
}

func TestArchiver_EmptyTranscriptNotArchived(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	a := NewArchiver(dir, nil, zerolog.Nop())

	path := writeTranscript(t, `{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"t1","name":"Bash","input":{}}]}}`)
	a.PreCompact("sess-1", path)

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "archive dir must not be created for empty transcripts")
}
