package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "enclave.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_HandleRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LoadHandle("group-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveHandle("group-1", Handle{SessionID: "sess-a", ResumeCursor: "msg-5"}))

	h, found, err := s.LoadHandle("group-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sess-a", h.SessionID)
	assert.Equal(t, "msg-5", h.ResumeCursor)
}

func TestStore_HandleUpsert(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveHandle("group-1", Handle{SessionID: "sess-a"}))
	require.NoError(t, s.SaveHandle("group-1", Handle{SessionID: "sess-b", ResumeCursor: "msg-9"}))

	h, found, err := s.LoadHandle("group-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sess-b", h.SessionID)
	assert.Equal(t, "msg-9", h.ResumeCursor)
}

func TestStore_SaveHandleIgnoresEmpty(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveHandle("", Handle{SessionID: "sess-a"}))
	require.NoError(t, s.SaveHandle("group-1", Handle{}))

	_, found, err := s.LoadHandle("group-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_SummaryRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.SummaryFor("sess-a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveSummary("sess-a", "Fixing the deploy pipeline"))

	summary, found, err := s.SummaryFor("sess-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Fixing the deploy pipeline", summary)
}
