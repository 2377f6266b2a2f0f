package control

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullPayload(t *testing.T) {
	payload, err := Parse([]byte(`{
		"prompt": "hello",
		"session_id": "sess-9",
		"group_id": "team-a",
		"scheduled": false,
		"secrets": {"OPENROUTER_API_KEY": "sk-test"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "hello", payload.Prompt)
	assert.Equal(t, "sess-9", payload.SessionID)
	assert.Equal(t, "team-a", payload.GroupID)
	assert.Equal(t, "sk-test", payload.Secrets["OPENROUTER_API_KEY"])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"not json", "{oops"},
		{"missing prompt", `{"group_id":"g"}`},
		{"empty prompt", `{"prompt":""}`},
		{"wrong prompt type", `{"prompt":42}`},
		{"wrong secrets type", `{"prompt":"hi","secrets":{"K":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestRead(t *testing.T) {
	payload, err := Read(strings.NewReader(`{"prompt":"from stdin"}`))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", payload.Prompt)
}

func TestEffectivePrompt_ScheduledNotice(t *testing.T) {
	payload, err := Parse([]byte(`{"prompt":"water the plants","scheduled":true}`))
	require.NoError(t, err)

	got := payload.EffectivePrompt()
	assert.True(t, strings.HasPrefix(got, "[This message was triggered by a scheduled task."))
	assert.True(t, strings.HasSuffix(got, "water the plants"))
}

func TestEffectivePrompt_Unscheduled(t *testing.T) {
	payload := &Payload{Prompt: "plain"}
	assert.Equal(t, "plain", payload.EffectivePrompt())
}
