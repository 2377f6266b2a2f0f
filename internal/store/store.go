// Package store persists session continuity across sandbox restarts: the
// resumable session handle per group identity, and session summaries used
// to title archived transcripts.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_handles (
	group_id      TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	resume_cursor TEXT NOT NULL DEFAULT '',
	updated_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS session_summaries (
	session_id TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Handle is a persisted resumable session identity.
type Handle struct {
	SessionID    string
	ResumeCursor string
}

// Store is a sqlite-backed continuity store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveHandle upserts the session handle for a group identity.
func (s *Store) SaveHandle(groupID string, h Handle) error {
	if groupID == "" || h.SessionID == "" {
		return nil
	}
	_, err := s.db.Exec(`
		INSERT INTO session_handles (group_id, session_id, resume_cursor, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(group_id) DO UPDATE SET
			session_id = excluded.session_id,
			resume_cursor = excluded.resume_cursor,
			updated_at = excluded.updated_at`,
		groupID, h.SessionID, h.ResumeCursor, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save session handle: %w", err)
	}
	return nil
}

// LoadHandle returns the stored handle for a group identity, if any.
func (s *Store) LoadHandle(groupID string) (Handle, bool, error) {
	var h Handle
	err := s.db.QueryRow(
		`SELECT session_id, resume_cursor FROM session_handles WHERE group_id = ?`,
		groupID).Scan(&h.SessionID, &h.ResumeCursor)
	if errors.Is(err, sql.ErrNoRows) {
		return Handle{}, false, nil
	}
	if err != nil {
		return Handle{}, false, fmt.Errorf("failed to load session handle: %w", err)
	}
	return h, true, nil
}

// SaveSummary upserts the human-readable summary for a session identity.
func (s *Store) SaveSummary(sessionID, summary string) error {
	if sessionID == "" || summary == "" {
		return nil
	}
	_, err := s.db.Exec(`
		INSERT INTO session_summaries (session_id, summary, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			summary = excluded.summary,
			updated_at = excluded.updated_at`,
		sessionID, summary, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save session summary: %w", err)
	}
	return nil
}

// SummaryFor returns the stored summary for a session identity, if any.
func (s *Store) SummaryFor(sessionID string) (string, bool, error) {
	var summary string
	err := s.db.QueryRow(
		`SELECT summary FROM session_summaries WHERE session_id = ?`,
		sessionID).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load session summary: %w", err)
	}
	return summary, true, nil
}
