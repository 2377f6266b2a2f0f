package actions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	isoTimeRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?::\d{2})?(?:Z|[+\-]\d{2}:\d{2})?`)
	summaryRe  = regexp.MustCompile(`(?i)(?:titled|called|title:|summary:)\s*"([^"]+)"`)
	quotedRe   = regexp.MustCompile(`"([^"]+)"`)
	timezoneRe = regexp.MustCompile(`(?i)(?:timezone|time zone|tz)[:\s]+([A-Za-z]+/[A-Za-z_]+)`)
	daysRe     = regexp.MustCompile(`(\d+)\s*days?`)
)

// ExtractEmail returns the first email address in the text, or "".
func ExtractEmail(text string) string {
	return emailRe.FindString(text)
}

// ExtractField pulls a `key: value` parameter out of the text. Quoted values
// are taken verbatim; unquoted values run until the next known key or the end
// of the text. Returns fallback when the key is absent.
func ExtractField(text, key, fallback string) string {
	quoted := regexp.MustCompile(`(?i)` + key + `\s*:\s*"([^"]+)"`)
	if m := quoted.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	bare := regexp.MustCompile(`(?i)` + key + `\s*:\s*(.+?)(?:\s+(?:to|subject|body|start|end|timezone)\s*:|$)`)
	if m := bare.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}

	return fallback
}

// ExtractSummary returns the event title: an explicitly labeled quoted title
// first, any quoted string second, otherwise "".
func ExtractSummary(text string) string {
	if m := summaryRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractISOTimes returns the first two ISO-8601 timestamps in the text as
// (start, end), each normalized via NormalizeISO against the extracted
// timezone. Missing timestamps come back as "".
func ExtractISOTimes(text string) (start, end string) {
	tz := ExtractTimezone(text)
	matches := isoTimeRe.FindAllString(text, 2)
	if len(matches) > 0 {
		start = NormalizeISO(matches[0], tz)
	}
	if len(matches) > 1 {
		end = NormalizeISO(matches[1], tz)
	}
	return start, end
}

// ExtractTimezone returns an IANA zone name mentioned in the text, or "UTC".
func ExtractTimezone(text string) string {
	if m := timezoneRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return "UTC"
}

// NormalizeISO completes a partial ISO-8601 timestamp: seconds are added when
// absent, and a timestamp with no offset is interpreted in tz and rewritten
// with that zone's explicit offset. Inputs that already carry an offset pass
// through with seconds filled in; unparseable inputs pass through untouched.
func NormalizeISO(value, tz string) string {
	hasZone := strings.HasSuffix(value, "Z") || regexp.MustCompile(`[+\-]\d{2}:\d{2}$`).MatchString(value)

	base := value
	if hasZone {
		if t, err := time.Parse(time.RFC3339, base); err == nil {
			return t.Format(time.RFC3339)
		}
		// Zone present but seconds missing.
		if t, err := time.Parse("2006-01-02T15:04Z07:00", base); err == nil {
			return t.Format(time.RFC3339)
		}
		return value
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", base, loc); err == nil {
		return t.Format(time.RFC3339)
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", base, loc); err == nil {
		return t.Format(time.RFC3339)
	}
	return value
}

// ExtractWindowDays returns the listing window in days, bounded to [1,60].
// Named shortcuts: "today" is 1, "tomorrow" 2, "week" 7, "month" 30. The
// default window is 7 days.
func ExtractWindowDays(lower string) int {
	if m := daysRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return clampDays(n)
		}
	}

	switch {
	case strings.Contains(lower, "today"):
		return 1
	case strings.Contains(lower, "tomorrow"):
		return 2
	case strings.Contains(lower, "month"):
		return 30
	case strings.Contains(lower, "week"):
		return 7
	}
	return 7
}

func clampDays(n int) int {
	if n < 1 {
		return 1
	}
	if n > 60 {
		return 60
	}
	return n
}

func formatDayWindow(days int) string {
	if days == 1 {
		return "the next day"
	}
	return fmt.Sprintf("the next %d days", days)
}
