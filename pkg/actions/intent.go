// Package actions classifies free-text instructions into a fixed set of
// Gmail and Calendar intents and executes them with direct REST calls,
// bypassing the completion provider for operations it cannot perform itself.
package actions

// Intent is a closed set of direct actions. Produced transiently from a
// prompt, executed immediately, never persisted.
type Intent interface {
	intent()
}

// ReadUnread lists unread inbox messages.
type ReadUnread struct{}

// SendEmail sends a plain-text email.
type SendEmail struct {
	To      string
	Subject string
	Body    string
}

// SearchSent searches the sent folder for mail to a recipient.
type SearchSent struct {
	Recipient string
}

// ListEvents lists upcoming calendar events within a day window.
type ListEvents struct {
	WindowDays int
}

// CreateEvent creates a calendar event.
type CreateEvent struct {
	Summary  string
	StartISO string
	EndISO   string
	Timezone string
}

// CheckCalendarHealth verifies calendar API connectivity.
type CheckCalendarHealth struct{}

func (ReadUnread) intent()          {}
func (SendEmail) intent()           {}
func (SearchSent) intent()          {}
func (ListEvents) intent()          {}
func (CreateEvent) intent()         {}
func (CheckCalendarHealth) intent() {}
