package mailbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailbox(t *testing.T) *Mailbox {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "mailbox"), filepath.Join(dir, "close"), 20*time.Millisecond, zerolog.Nop())
}

func dropMessage(t *testing.T, m *Mailbox, name, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(m.Dir(), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), name), []byte(`{"type":"message","text":"`+text+`"}`), 0o600))
}

func TestMailbox_DrainLexicographicOrder(t *testing.T) {
	m := newTestMailbox(t)

	// Written out of order on purpose; delivery order is filename order.
	dropMessage(t, m, "002.json", "second")
	dropMessage(t, m, "001.json", "first")
	dropMessage(t, m, "010.json", "third")

	texts, err := m.Drain()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, texts)

	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "drain must leave the mailbox empty")
}

func TestMailbox_DrainEmptyDirectory(t *testing.T) {
	m := newTestMailbox(t)

	texts, err := m.Drain()
	require.NoError(t, err)
	assert.Empty(t, texts)

	// Drain creates the mailbox directory lazily.
	info, err := os.Stat(m.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMailbox_PoisonMessageDiscarded(t *testing.T) {
	m := newTestMailbox(t)

	require.NoError(t, os.MkdirAll(m.Dir(), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "001.json"), []byte("{not json"), 0o600))
	dropMessage(t, m, "002.json", "good")

	texts, err := m.Drain()
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, texts)

	// Poison file must be gone, not retried on the next drain.
	texts, err = m.Drain()
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestMailbox_WrongTypeIsPoison(t *testing.T) {
	m := newTestMailbox(t)

	require.NoError(t, os.MkdirAll(m.Dir(), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "001.json"), []byte(`{"type":"other","text":"nope"}`), 0o600))

	texts, err := m.Drain()
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestMailbox_ShouldCloseConsumesOnce(t *testing.T) {
	m := newTestMailbox(t)

	assert.False(t, m.ShouldClose())

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(m.Dir()), "close"), nil, 0o600))

	assert.True(t, m.ShouldClose())
	assert.False(t, m.ShouldClose(), "second observation must return false")
}

func TestMailbox_WaitForNextReturnsMessages(t *testing.T) {
	m := newTestMailbox(t)

	go func() {
		time.Sleep(30 * time.Millisecond)
		dropMessage(t, m, "001.json", "hello")
		dropMessage(t, m, "002.json", "world")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	text, closed, err := m.WaitForNext(ctx)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, "hello\nworld", text)
}

func TestMailbox_WaitForNextSentinel(t *testing.T) {
	m := newTestMailbox(t)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(filepath.Dir(m.Dir()), "close"), nil, 0o600)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, closed, err := m.WaitForNext(ctx)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestMailbox_WaitForNextMessageBeatsSentinel(t *testing.T) {
	m := newTestMailbox(t)

	// Both present in the same poll window: the message is delivered and
	// closure is deferred by one more turn.
	dropMessage(t, m, "001.json", "last words")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(m.Dir()), "close"), nil, 0o600))

	ctx := context.Background()

	text, closed, err := m.WaitForNext(ctx)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, "last words", text)

	_, closed, err = m.WaitForNext(ctx)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestMailbox_WaitForNextContextCancelled(t *testing.T) {
	m := newTestMailbox(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := m.WaitForNext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
