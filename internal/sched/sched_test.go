package sched

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arif/enclave/internal/config"
)

func TestNewRejectsInvalidExpression(t *testing.T) {
	_, err := New(t.TempDir(), []config.ScheduleRule{
		{Expr: "not a cron expr", Text: "hello"},
	}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")
}

func TestNewAcceptsStandardExpressions(t *testing.T) {
	s, err := New(t.TempDir(), []config.ScheduleRule{
		{Expr: "*/5 * * * *", Text: "check mail"},
		{Expr: "0 9 * * MON", Text: "weekly summary"},
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestFireWritesMailboxMessage(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil, zerolog.Nop())
	require.NoError(t, err)

	s.fire("check the calendar")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, filepath.Ext(entries[0].Name()) == ".json")

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"message"`)
	assert.Contains(t, string(data), "scheduled task")
	assert.Contains(t, string(data), "check the calendar")
}

func TestFireOrderingByFilename(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil, zerolog.Nop())
	require.NoError(t, err)

	s.fire("first")
	time.Sleep(2 * time.Millisecond)
	s.fire("second")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// ReadDir returns sorted names; millisecond prefixes keep creation order.
	first, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, entries[1].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(first), "first")
	assert.Contains(t, string(second), "second")
}