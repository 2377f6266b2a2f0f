package engine

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_Init(t *testing.T) {
	ev := ParseEvent([]byte(`{"type":"system","subtype":"init","session_id":"sess-1","model":"x"}`))
	assert.Equal(t, EventInit, ev.Kind)
	assert.Equal(t, "sess-1", ev.SessionID)
}

func TestParseEvent_Assistant(t *testing.T) {
	ev := ParseEvent([]byte(`{"type":"assistant","uuid":"msg-42","session_id":"sess-1","message":{"role":"assistant","content":[{"type":"text","text":"working on it"}]}}`))
	assert.Equal(t, EventAssistant, ev.Kind)
	assert.Equal(t, "msg-42", ev.MessageID)
	assert.Equal(t, "working on it", ev.Text)
}

func TestParseEvent_Result(t *testing.T) {
	ev := ParseEvent([]byte(`{"type":"result","subtype":"success","session_id":"sess-1","result":"all done","is_error":false}`))
	assert.Equal(t, EventResult, ev.Kind)
	assert.Equal(t, "all done", ev.Text)
	assert.False(t, ev.IsError)
}

func TestParseEvent_ToolNoteAndOther(t *testing.T) {
	note := ParseEvent([]byte(`{"type":"system","subtype":"tool_use","session_id":"sess-1"}`))
	assert.Equal(t, EventToolNote, note.Kind)

	other := ParseEvent([]byte(`{"type":"stream_event"}`))
	assert.Equal(t, EventOther, other.Kind)

	garbage := ParseEvent([]byte(`not json at all`))
	assert.Equal(t, EventOther, garbage.Kind)
}

func TestBuildArgs_Fresh(t *testing.T) {
	s := NewSubprocess(SubprocessConfig{Binary: "claude", Logger: zerolog.Nop()})

	args := s.buildArgs(Options{})

	assert.Contains(t, args, "--input-format")
	assert.Contains(t, args, "--output-format")
	assert.NotContains(t, args, "--resume")
}

func TestBuildArgs_Resume(t *testing.T) {
	s := NewSubprocess(SubprocessConfig{Binary: "claude", Model: "sonnet", SettingsPath: "/tmp/s.json", Logger: zerolog.Nop()})

	args := s.buildArgs(Options{SessionID: "sess-1", ResumeAt: "msg-42"})

	assert.Contains(t, args, "--resume")
	assert.Contains(t, args, "sess-1")
	assert.Contains(t, args, "--resume-session-at")
	assert.Contains(t, args, "msg-42")
	assert.Contains(t, args, "--model")
	assert.Contains(t, args, "--settings")
}

func TestBuildArgs_CursorWithoutSessionIgnored(t *testing.T) {
	s := NewSubprocess(SubprocessConfig{Logger: zerolog.Nop()})

	args := s.buildArgs(Options{ResumeAt: "msg-42"})

	assert.NotContains(t, args, "--resume-session-at")
}

func TestBuildEnv_MergesWithoutMutatingProcess(t *testing.T) {
	env := buildEnv(Options{Env: map[string]string{"SECRET_TOKEN": "abc"}})

	assert.Contains(t, env, "SECRET_TOKEN=abc")
	_, present := os.LookupEnv("SECRET_TOKEN")
	assert.False(t, present, "merge must not leak into the broker environment")
}

// parkedPrompts blocks in Next until its context ends, mimicking an open
// prompt stream with nothing queued.
type parkedPrompts struct {
	released chan struct{}
}

func (p *parkedPrompts) Next(ctx context.Context) (string, bool) {
	<-ctx.Done()
	close(p.released)
	return "", false
}

func TestInvoke_FeederUnblocksWhenEngineExits(t *testing.T) {
	s := NewSubprocess(SubprocessConfig{Binary: "true", Logger: zerolog.Nop()})
	prompts := &parkedPrompts{released: make(chan struct{})}

	inv, err := s.Invoke(context.Background(), Options{}, prompts)
	require.NoError(t, err)

	for range inv.Events {
	}
	require.NoError(t, inv.Wait())

	select {
	case <-prompts.released:
	case <-time.After(2 * time.Second):
		t.Fatal("prompt feeder still parked after engine exit")
	}
}

func TestWriteSettings(t *testing.T) {
	path, err := WriteSettings(t.TempDir(), "/usr/local/bin/enclave")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg struct {
		Hooks map[string][]struct {
			Matcher string `json:"matcher"`
			Hooks   []struct {
				Command string `json:"command"`
			} `json:"hooks"`
		} `json:"hooks"`
	}
	require.NoError(t, json.Unmarshal(data, &cfg))

	require.Len(t, cfg.Hooks["PreToolUse"], 1)
	assert.Equal(t, "Bash", cfg.Hooks["PreToolUse"][0].Matcher)
	assert.Equal(t, "/usr/local/bin/enclave hook pre-tool-use", cfg.Hooks["PreToolUse"][0].Hooks[0].Command)
	require.Len(t, cfg.Hooks["PreCompact"], 1)
	assert.Equal(t, "/usr/local/bin/enclave hook pre-compact", cfg.Hooks["PreCompact"][0].Hooks[0].Command)
}
