package actions

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Router classifies prompts and executes matched intents against the Google
// APIs. Prompts that match an intent but lack required parameters produce a
// clarifying reply rather than an API call or an error.
type Router struct {
	google *Client
	logger zerolog.Logger
}

// NewRouter creates a router backed by the given Google client.
func NewRouter(google *Client, logger zerolog.Logger) *Router {
	return &Router{
		google: google,
		logger: logger.With().Str("component", "actions").Logger(),
	}
}

// Handle classifies text and executes the matched intent. The second return
// is false when no intent matched; errors are reserved for failed execution
// of a matched intent.
func (r *Router) Handle(ctx context.Context, text string) (string, bool, error) {
	intent, ok := Classify(text)
	if !ok {
		return "", false, nil
	}

	r.logger.Debug().Str("intent", fmt.Sprintf("%T", intent)).Msg("Direct action matched")

	result, err := r.execute(ctx, intent)
	if err != nil {
		return "", true, err
	}
	return result, true, nil
}

func (r *Router) execute(ctx context.Context, intent Intent) (string, error) {
	switch it := intent.(type) {
	case CheckCalendarHealth:
		return r.google.CheckHealth(ctx)

	case CreateEvent:
		if it.Summary == "" || it.StartISO == "" || it.EndISO == "" {
			return `To create an event I need a quoted title and ISO-8601 start and end times, for example: create an event "Standup" from 2026-09-01T09:00 to 2026-09-01T09:15.`, nil
		}
		return r.google.CreateEvent(ctx, it.Summary, it.StartISO, it.EndISO, it.Timezone)

	case ListEvents:
		return r.google.ListEvents(ctx, it.WindowDays)

	case SendEmail:
		if it.To == "" {
			return "To send an email I need a recipient address, for example: send an email to someone@example.com subject: Hello body: Hi there.", nil
		}
		return r.google.SendEmail(ctx, it.To, it.Subject, it.Body)

	case SearchSent:
		if it.Recipient == "" {
			return "To search sent mail I need a recipient address, for example: search sent emails to someone@example.com.", nil
		}
		return r.google.SearchSent(ctx, it.Recipient)

	case ReadUnread:
		return r.google.ReadUnread(ctx)
	}

	return "", fmt.Errorf("unhandled intent %T", intent)
}
