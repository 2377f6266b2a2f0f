package fallback

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arif/enclave/pkg/emitter"
	"github.com/arif/enclave/pkg/mailbox"
)

// ActionRouter resolves deterministic intents without calling the provider.
// Handled reports whether the text matched a known intent; when it did,
// result carries the user-facing reply.
type ActionRouter interface {
	Handle(ctx context.Context, text string) (result string, handled bool, err error)
}

// Config holds fallback-loop dependencies.
type Config struct {
	Provider Provider
	Router   ActionRouter // optional
	Mailbox  *mailbox.Mailbox
	Emitter  *emitter.Emitter
	Logger   zerolog.Logger
}

// Loop is the session loop for the capability-reduced path. The provider is
// stateless, so conversational continuity lives in an in-memory history that
// grows for the process lifetime; there is no resumable session handle.
type Loop struct {
	provider Provider
	router   ActionRouter
	mailbox  *mailbox.Mailbox
	emitter  *emitter.Emitter
	logger   zerolog.Logger
	history  []Message
}

// NewLoop creates a fallback loop.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Mailbox == nil {
		return nil, fmt.Errorf("mailbox is required")
	}
	if cfg.Emitter == nil {
		return nil, fmt.Errorf("emitter is required")
	}

	return &Loop{
		provider: cfg.Provider,
		router:   cfg.Router,
		mailbox:  cfg.Mailbox,
		emitter:  cfg.Emitter,
		logger:   cfg.Logger.With().Str("component", "fallback").Logger(),
	}, nil
}

// Run processes prompts until the close sentinel is observed. Each turn is
// answered either by the action router or by the completion provider, then
// acknowledged with a result envelope followed by a session-update envelope.
func (l *Loop) Run(ctx context.Context, initialPrompt string) error {
	prompt := initialPrompt

	for {
		result, err := l.answer(ctx, prompt)
		if err != nil {
			return err
		}

		if err := l.emitter.Emit(emitter.Success(result, "")); err != nil {
			return fmt.Errorf("emit result: %w", err)
		}
		if err := l.emitter.Emit(emitter.SessionUpdate("")); err != nil {
			return fmt.Errorf("emit session update: %w", err)
		}

		next, closed, err := l.mailbox.WaitForNext(ctx)
		if err != nil {
			return err
		}
		if closed {
			l.logger.Info().Msg("Close sentinel observed, ending fallback session")
			return nil
		}
		prompt = next
	}
}

func (l *Loop) answer(ctx context.Context, prompt string) (string, error) {
	if l.router != nil {
		result, handled, err := l.router.Handle(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("direct action: %w", err)
		}
		if handled {
			l.logger.Debug().Msg("Prompt resolved by action router")
			return result, nil
		}
	}

	l.history = append(l.history, Message{Role: "user", Content: prompt})
	reply, err := l.provider.Complete(ctx, l.history)
	if err != nil {
		return "", fmt.Errorf("provider %s: %w", l.provider.Name(), err)
	}
	l.history = append(l.history, Message{Role: "assistant", Content: reply})

	return reply, nil
}
