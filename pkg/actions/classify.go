package actions

import (
	"regexp"
	"strings"
)

// Classification is keyword based over the lowercased text and order
// sensitive: several patterns can match the same instruction, so the
// connectivity check runs before anything else calendar-shaped, event
// creation before generic listing, and send/search before the generic
// unread check. First match wins.
var (
	calendarHealthRe = regexp.MustCompile(`calendar.*\b(working|works|connected|connectivity|health|status|reachable|accessible)\b|\b(test|verify)\b.*\bcalendar\b`)
	createEventRe    = regexp.MustCompile(`\b(create|add|schedule|book|put)\b.*\b(event|meeting|appointment|call|reminder)\b`)
	listEventsRe     = regexp.MustCompile(`\b(calendar|agenda|schedule)\b|\b(list|show|upcoming|what)\b.*\b(events?|meetings?|appointments?)\b`)
	sendEmailRe      = regexp.MustCompile(`\b(send|compose|write)\b.*\b(e-?mail|message)\b`)
	searchSentRe     = regexp.MustCompile(`\b(search|find|look)\b.*\bsent\b|\bsent\b.*\b(e-?mails?|messages?)\b`)
	readUnreadRe     = regexp.MustCompile(`\b(unread|inbox)\b|\b(check|read|show|any|new)\b.*\be-?mails?\b`)
)

// Classify maps an instruction to an intent, extracting parameters from the
// original (case-preserved) text. The second return is false when no intent
// pattern matches and the prompt should go to the completion provider.
func Classify(text string) (Intent, bool) {
	lower := strings.ToLower(text)

	switch {
	case calendarHealthRe.MatchString(lower):
		return CheckCalendarHealth{}, true

	case createEventRe.MatchString(lower):
		start, end := ExtractISOTimes(text)
		return CreateEvent{
			Summary:  ExtractSummary(text),
			StartISO: start,
			EndISO:   end,
			Timezone: ExtractTimezone(text),
		}, true

	case listEventsRe.MatchString(lower):
		return ListEvents{WindowDays: ExtractWindowDays(lower)}, true

	case sendEmailRe.MatchString(lower):
		return SendEmail{
			To:      ExtractEmail(text),
			Subject: ExtractField(text, "subject", "(no subject)"),
			Body:    ExtractField(text, "body", "(empty)"),
		}, true

	case searchSentRe.MatchString(lower):
		return SearchSent{Recipient: ExtractEmail(text)}, true

	case readUnreadRe.MatchString(lower):
		return ReadUnread{}, true
	}

	return nil, false
}
