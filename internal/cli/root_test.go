package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"--version"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		assert.Contains(t, output.String(), "enclave version")
	})

	t.Run("help flag", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"--help"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		helpText := output.String()
		assert.Contains(t, helpText, "session broker")
		assert.Contains(t, helpText, "close sentinel")
	})
}

func TestHookCommandsRegistered(t *testing.T) {
	hook, _, err := GetRootCmd().Find([]string{"hook"})
	require.NoError(t, err)
	assert.True(t, hook.Hidden)

	names := []string{}
	for _, sub := range hook.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "pre-tool-use")
	assert.Contains(t, names, "pre-compact")
}
