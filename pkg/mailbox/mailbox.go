package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultPollInterval bounds how long WaitForNext sleeps between scans.
const DefaultPollInterval = time.Second

// Message is the on-disk shape of one mailbox message.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Mailbox reads message files and the close sentinel from a directory.
// It is a single-consumer channel: concurrent readers are not supported.
type Mailbox struct {
	dir      string
	sentinel string
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a mailbox over dir with the close sentinel at sentinelPath.
// A non-positive interval falls back to DefaultPollInterval.
func New(dir, sentinelPath string, interval time.Duration, logger zerolog.Logger) *Mailbox {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Mailbox{
		dir:      dir,
		sentinel: sentinelPath,
		interval: interval,
		logger:   logger.With().Str("component", "mailbox").Logger(),
	}
}

// Dir returns the mailbox directory.
func (m *Mailbox) Dir() string {
	return m.dir
}

// Drain lists, parses and deletes all pending message files, returning their
// texts in delivery (lexicographic filename) order. Files that fail to parse
// are deleted and skipped.
func (m *Mailbox) Drain() ([]string, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create mailbox directory: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailbox: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var texts []string
	for _, name := range names {
		path := filepath.Join(m.dir, name)
		text, err := readMessage(path)

		// Consumed either way: poison messages must not block the mailbox.
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			m.logger.Warn().Err(removeErr).Str("file", name).Msg("Failed to delete mailbox file")
		}

		if err != nil {
			m.logger.Warn().Err(err).Str("file", name).Msg("Discarding malformed mailbox message")
			continue
		}
		texts = append(texts, text)
	}

	return texts, nil
}

// ShouldClose reports whether the close sentinel is present, consuming it.
// It returns true exactly once per sentinel creation.
func (m *Mailbox) ShouldClose() bool {
	err := os.Remove(m.sentinel)
	if err == nil {
		m.logger.Info().Str("sentinel", m.sentinel).Msg("Close sentinel consumed")
		return true
	}
	if !os.IsNotExist(err) {
		m.logger.Warn().Err(err).Msg("Failed to check close sentinel")
	}
	return false
}

// WaitForNext blocks until the mailbox yields at least one message or the
// close sentinel appears. It returns the newline-joined messages, or
// closed=true when the session should terminate. The poll interval is the
// upper bound on latency; a directory event wakes the wait early.
func (m *Mailbox) WaitForNext(ctx context.Context) (text string, closed bool, err error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return "", false, fmt.Errorf("failed to create mailbox directory: %w", err)
	}

	wake := m.watch(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		texts, err := m.Drain()
		if err != nil {
			return "", false, err
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n"), false, nil
		}
		if m.ShouldClose() {
			return "", true, nil
		}

		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
	}
}

// watch returns a channel that fires when the mailbox directory changes.
// Watch setup failure is not fatal; polling alone still makes progress.
func (m *Mailbox) watch(ctx context.Context) <-chan struct{} {
	wake := make(chan struct{}, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.logger.Debug().Err(err).Msg("Mailbox watcher unavailable, polling only")
		return wake
	}
	if err := watcher.Add(m.dir); err != nil {
		m.logger.Debug().Err(err).Msg("Mailbox watch failed, polling only")
		_ = watcher.Close()
		return wake
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return wake
}

func readMessage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type != "message" {
		return "", fmt.Errorf("unexpected message type %q", msg.Type)
	}
	return msg.Text, nil
}
