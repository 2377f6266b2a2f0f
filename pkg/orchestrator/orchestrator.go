package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/arif/enclave/internal/store"
	"github.com/arif/enclave/pkg/emitter"
	"github.com/arif/enclave/pkg/engine"
	"github.com/arif/enclave/pkg/mailbox"
	"github.com/arif/enclave/pkg/pushstream"
)

// SessionError carries the last known session identity alongside a fatal
// session error, so the error envelope can still name the session.
type SessionError struct {
	SessionID string
	Err       error
}

func (e *SessionError) Error() string { return e.Err.Error() }

func (e *SessionError) Unwrap() error { return e.Err }

// HandleStore persists session continuity across restarts.
type HandleStore interface {
	SaveHandle(groupID string, h store.Handle) error
}

// Config holds orchestrator dependencies.
type Config struct {
	Engine   engine.Engine
	Mailbox  *mailbox.Mailbox
	Emitter  *emitter.Emitter
	Store    HandleStore // optional
	GroupID  string
	Secrets  map[string]string
	Interval time.Duration
	Logger   zerolog.Logger
}

// Orchestrator drives the primary reasoning engine for one logical session.
type Orchestrator struct {
	engine   engine.Engine
	mailbox  *mailbox.Mailbox
	emitter  *emitter.Emitter
	store    HandleStore
	groupID  string
	secrets  map[string]string
	interval time.Duration
	logger   zerolog.Logger
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.Mailbox == nil {
		return nil, fmt.Errorf("mailbox is required")
	}
	if cfg.Emitter == nil {
		return nil, fmt.Errorf("emitter is required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = mailbox.DefaultPollInterval
	}

	return &Orchestrator{
		engine:   cfg.Engine,
		mailbox:  cfg.Mailbox,
		emitter:  cfg.Emitter,
		store:    cfg.Store,
		groupID:  cfg.GroupID,
		secrets:  cfg.Secrets,
		interval: interval,
		logger:   cfg.Logger.With().Str("component", "orchestrator").Logger(),
	}, nil
}

// Run executes the session loop until the close sentinel is observed or an
// invocation fails. A nil return means graceful termination.
func (o *Orchestrator) Run(ctx context.Context, initialPrompt string, handle store.Handle) error {
	prompt := initialPrompt

	for {
		closedDuring, err := o.runInvocation(ctx, prompt, &handle)
		if err != nil {
			return &SessionError{SessionID: handle.SessionID, Err: err}
		}
		if closedDuring {
			o.logger.Info().Msg("Session closed during invocation")
			return nil
		}

		// Draining: let the caller persist session continuity, then block
		// for the next prompt.
		if err := o.emitter.Emit(emitter.SessionUpdate(handle.SessionID)); err != nil {
			return &SessionError{SessionID: handle.SessionID, Err: fmt.Errorf("failed to emit session update: %w", err)}
		}
		o.persist(handle)

		next, closed, err := o.mailbox.WaitForNext(ctx)
		if err != nil {
			return &SessionError{SessionID: handle.SessionID, Err: fmt.Errorf("failed waiting for next prompt: %w", err)}
		}
		if closed {
			o.logger.Info().Msg("Session closed between invocations")
			return nil
		}
		prompt = next
	}
}

// runInvocation drives one engine invocation seeded with prompt. It reports
// whether the close sentinel fired while the invocation was active.
func (o *Orchestrator) runInvocation(ctx context.Context, prompt string, handle *store.Handle) (bool, error) {
	invID, _ := gonanoid.New()
	logger := o.logger.With().Str("invocation_id", invID).Logger()

	stream := pushstream.New()
	stream.Push(prompt)

	// The poller closes the feed once every seeded or forwarded prompt has
	// produced a result and a poll tick drained nothing new. Closing earlier
	// would cut off multi-step work still in flight.
	var prompts, results atomic.Int64
	prompts.Store(1)

	pollCtx, stopPoll := context.WithCancel(ctx)
	pollDone := make(chan bool, 1)
	go func() {
		pollDone <- o.poll(pollCtx, stream, &prompts, &results, logger)
	}()

	inv, err := o.engine.Invoke(ctx, engine.Options{
		SessionID: handle.SessionID,
		ResumeAt:  handle.ResumeCursor,
		Env:       o.secrets,
	}, stream)
	if err != nil {
		stopPoll()
		<-pollDone
		return false, fmt.Errorf("failed to open invocation: %w", err)
	}

	logger.Info().
		Str("session_id", handle.SessionID).
		Str("resume_cursor", handle.ResumeCursor).
		Msg("Invocation opened")

	sawInit := false
	for ev := range inv.Events {
		switch ev.Kind {
		case engine.EventInit:
			if !sawInit {
				sawInit = true
				if ev.SessionID != "" {
					handle.SessionID = ev.SessionID
					o.persist(*handle)
					logger.Debug().Str("session_id", ev.SessionID).Msg("Session identity reported")
				}
			}
		case engine.EventAssistant:
			if ev.MessageID != "" {
				handle.ResumeCursor = ev.MessageID
			}
		case engine.EventResult:
			if ev.IsError {
				logger.Warn().Str("result", ev.Text).Msg("Engine reported an error result")
			}
			if err := o.emitter.Emit(emitter.Success(ev.Text, handle.SessionID)); err != nil {
				stopPoll()
				<-pollDone
				return false, fmt.Errorf("failed to emit result: %w", err)
			}
			results.Add(1)
		case engine.EventToolNote:
			logger.Debug().RawJSON("event", ev.Raw).Msg("Tool notification")
		}
	}

	invErr := inv.Wait()
	stopPoll()
	closedDuring := <-pollDone

	if invErr != nil {
		return false, fmt.Errorf("invocation failed: %w", invErr)
	}

	o.persist(*handle)
	logger.Info().Bool("closed_during", closedDuring).Msg("Invocation ended")
	return closedDuring, nil
}

// poll forwards mailbox arrivals into the feed every interval and watches
// for the close sentinel. It is the only goroutine that closes the feed.
// Returns true when the sentinel fired while the invocation was active.
func (o *Orchestrator) poll(ctx context.Context, stream *pushstream.Stream, prompts, results *atomic.Int64, logger zerolog.Logger) bool {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		texts, err := o.mailbox.Drain()
		if err != nil {
			logger.Warn().Err(err).Msg("Mailbox drain failed")
			continue
		}
		for _, text := range texts {
			stream.Push(text)
			prompts.Add(1)
			logger.Debug().Int("chars", len(text)).Msg("Follow-up forwarded into invocation")
		}

		// Sentinel wins the race for closedDuring, but messages drained in
		// the same poll were already pushed above.
		if o.mailbox.ShouldClose() {
			stream.Close()
			return true
		}

		if len(texts) == 0 && results.Load() >= prompts.Load() {
			stream.Close()
			return false
		}
	}
}

func (o *Orchestrator) persist(h store.Handle) {
	if o.store == nil || h.SessionID == "" {
		return
	}
	if err := o.store.SaveHandle(o.groupID, h); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to persist session handle")
	}
}
