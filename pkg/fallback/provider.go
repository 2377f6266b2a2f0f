// Package fallback drives the capability-reduced provider path: a stateless
// completion engine plus deterministic direct-action routing, selected once
// per process lifetime when the primary engine's credentials are absent.
package fallback

import (
	"context"
	"strings"

	"github.com/arif/enclave/internal/config"
)

// Message is one turn of the accumulated fallback conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Provider produces one completion for an accumulated message history.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}

// NewProvider selects the completion client for the configured fallback
// endpoint: the Anthropic SDK when the base URL targets the Anthropic API,
// otherwise an OpenAI-compatible client (OpenRouter and friends).
func NewProvider(cfg config.FallbackConfig) Provider {
	if strings.Contains(cfg.BaseURL, "anthropic.com") {
		return newAnthropicProvider(cfg)
	}
	return newOpenAIProvider(cfg)
}
