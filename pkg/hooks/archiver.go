package hooks

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/arif/enclave/pkg/transcript"
)

// SummaryStore persists and resolves summaries per session identity.
type SummaryStore interface {
	SummaryFor(sessionID string) (string, bool, error)
	SaveSummary(sessionID, summary string) error
}

// Archiver writes conversation turns to the archive directory before the
// engine compacts them away. Archiving is best-effort: every failure is
// logged and swallowed, never surfaced to the session.
type Archiver struct {
	dir       string
	summaries SummaryStore
	logger    zerolog.Logger
	now       func() time.Time
}

// NewArchiver creates an archiver writing into dir. summaries may be nil.
func NewArchiver(dir string, summaries SummaryStore, logger zerolog.Logger) *Archiver {
	return &Archiver{
		dir:       dir,
		summaries: summaries,
		logger:    logger.With().Str("component", "archiver").Logger(),
		now:       time.Now,
	}
}

// PreCompact archives the user/assistant turns of the transcript at
// transcriptPath. Title precedence: transcript summary, stored summary for
// the session identity, then a time-derived fallback.
func (a *Archiver) PreCompact(sessionID, transcriptPath string) {
	parsed, err := transcript.ParseFile(transcriptPath)
	if err != nil {
		a.logger.Warn().Err(err).Str("transcript", transcriptPath).Msg("Skipping archive, transcript unreadable")
		return
	}
	if len(parsed.Turns) == 0 {
		a.logger.Debug().Str("transcript", transcriptPath).Msg("Skipping archive, no text turns")
		return
	}

	title := parsed.Summary
	if title != "" && a.summaries != nil && sessionID != "" {
		if err := a.summaries.SaveSummary(sessionID, title); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to persist summary")
		}
	}
	if title == "" && a.summaries != nil && sessionID != "" {
		stored, found, err := a.summaries.SummaryFor(sessionID)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Summary lookup failed")
		} else if found {
			title = stored
		}
	}
	if title == "" {
		title = transcript.FallbackTitle(a.now())
	}

	path, err := transcript.WriteArchive(a.dir, title, parsed.Turns, a.now())
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write archive")
		return
	}

	a.logger.Info().Str("path", path).Int("turns", len(parsed.Turns)).Msg("Transcript archived")
}
