// Package sched injects scheduled prompts into the mailbox on cron
// schedules, so recurring instructions flow through the same control channel
// as operator messages.
package sched

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/arif/enclave/internal/config"
	"github.com/arif/enclave/internal/control"
)

// Scheduler runs cron rules that each write one mailbox message per firing.
type Scheduler struct {
	runner *cron.Cron
	dir    string
	logger zerolog.Logger
}

// New creates a scheduler for the given rules. Invalid expressions are
// rejected up front so a typo fails at startup rather than silently never
// firing.
func New(mailboxDir string, rules []config.ScheduleRule, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		runner: cron.New(),
		dir:    mailboxDir,
		logger: logger.With().Str("component", "sched").Logger(),
	}

	for i, rule := range rules {
		rule := rule
		_, err := s.runner.AddFunc(rule.Expr, func() {
			s.fire(rule.Text)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %d: invalid cron expression %q: %w", i, rule.Expr, err)
		}
	}

	return s, nil
}

// Start begins firing rules in the background.
func (s *Scheduler) Start() {
	s.runner.Start()
}

// Stop stops the scheduler and waits for in-flight firings.
func (s *Scheduler) Stop() {
	<-s.runner.Stop().Done()
}

// fire writes one mailbox message. The write-then-rename dance keeps the
// message invisible to the mailbox until it is complete.
func (s *Scheduler) fire(text string) {
	if err := s.writeMessage(text); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write scheduled message")
		return
	}
	s.logger.Info().Str("text", text).Msg("Scheduled prompt queued")
}

func (s *Scheduler) writeMessage(text string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"type": "message",
		"text": control.WithScheduledNotice(text),
	})
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%d-%s.json", time.Now().UnixMilli(), uuid.NewString())
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}
