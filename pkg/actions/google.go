package actions

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/arif/enclave/internal/config"
)

const (
	defaultTokenURL     = "https://oauth2.googleapis.com/token"
	defaultGmailBase    = "https://gmail.googleapis.com/gmail/v1"
	defaultCalendarBase = "https://www.googleapis.com/calendar/v3"

	maxUnreadMessages = 10
	maxEventsPerList  = 50
)

// Client performs direct Gmail and Calendar API calls using an OAuth
// refresh-token grant. Base URLs are fields so tests can point the client at
// a local server.
type Client struct {
	cfg          config.GoogleConfig
	httpClient   *http.Client
	tokenURL     string
	gmailBase    string
	calendarBase string
	now          func() time.Time
	logger       zerolog.Logger
}

// NewClient creates a Google API client.
func NewClient(cfg config.GoogleConfig, logger zerolog.Logger) *Client {
	return &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     defaultTokenURL,
		gmailBase:    defaultGmailBase,
		calendarBase: defaultCalendarBase,
		now:          time.Now,
		logger:       logger.With().Str("component", "google").Logger(),
	}
}

// accessToken exchanges the refresh token for an access token. Incomplete
// credentials fail immediately rather than producing a doomed API call.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" || c.cfg.RefreshToken == "" {
		return "", fmt.Errorf("google credentials incomplete: client id, client secret and refresh token are all required")
	}

	conf := oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.tokenURL},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.cfg.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("token refresh: %w", err)
	}
	return token.AccessToken, nil
}

func (c *Client) doJSON(ctx context.Context, method, token, rawURL string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("google api %s %s: status %d: %s", method, rawURL, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type messageList struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messageMeta struct {
	Payload struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
	Snippet string `json:"snippet"`
}

func (m messageMeta) header(name string) string {
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// ReadUnread lists unread inbox messages with sender and subject.
func (c *Client) ReadUnread(ctx context.Context) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}
	return c.listMessages(ctx, token, "is:unread", "unread message")
}

// SearchSent lists sent messages addressed to recipient.
func (c *Client) SearchSent(ctx context.Context, recipient string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf("in:sent to:%s", recipient)
	return c.listMessages(ctx, token, query, "sent message to "+recipient)
}

func (c *Client) listMessages(ctx context.Context, token, query, what string) (string, error) {
	listURL := fmt.Sprintf("%s/users/me/messages?q=%s&maxResults=%d",
		c.gmailBase, url.QueryEscape(query), maxUnreadMessages)

	var list messageList
	if err := c.doJSON(ctx, http.MethodGet, token, listURL, nil, &list); err != nil {
		return "", err
	}
	if len(list.Messages) == 0 {
		return fmt.Sprintf("No %ss found.", what), nil
	}

	lines := make([]string, 0, len(list.Messages))
	for _, ref := range list.Messages {
		metaURL := fmt.Sprintf("%s/users/me/messages/%s?format=metadata&metadataHeaders=From&metadataHeaders=Subject",
			c.gmailBase, url.PathEscape(ref.ID))

		var meta messageMeta
		if err := c.doJSON(ctx, http.MethodGet, token, metaURL, nil, &meta); err != nil {
			return "", err
		}

		subject := meta.header("Subject")
		if subject == "" {
			subject = "(no subject)"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", meta.header("From"), subject))
	}

	return fmt.Sprintf("Found %d %s(s):\n%s", len(lines), what, strings.Join(lines, "\n")), nil
}

// SendEmail sends a plain-text email from the authenticated account.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	raw := strings.Join([]string{
		"To: " + to,
		"Subject: " + subject,
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	payload := map[string]string{"raw": base64.RawURLEncoding.EncodeToString([]byte(raw))}
	sendURL := c.gmailBase + "/users/me/messages/send"
	if err := c.doJSON(ctx, http.MethodPost, token, sendURL, payload, nil); err != nil {
		return "", err
	}

	c.logger.Info().Str("to", to).Msg("Email sent")
	return fmt.Sprintf("Email sent to %s.", to), nil
}

type calendarList struct {
	Items []struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
	} `json:"items"`
}

type eventList struct {
	Items []struct {
		Summary string        `json:"summary"`
		Start   eventBoundary `json:"start"`
		End     eventBoundary `json:"end"`
	} `json:"items"`
}

type eventBoundary struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type calendarEvent struct {
	date    string
	start   string
	end     string
	title   string
	instant time.Time
	allDay  bool
}

// CheckHealth verifies calendar connectivity by listing accessible calendars.
func (c *Client) CheckHealth(ctx context.Context) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	var calendars calendarList
	if err := c.doJSON(ctx, http.MethodGet, token, c.calendarBase+"/users/me/calendarList", nil, &calendars); err != nil {
		return "", err
	}

	return fmt.Sprintf("Google Calendar is reachable: %d calendar(s) visible.", len(calendars.Items)), nil
}

// ListEvents lists upcoming events across every accessible calendar within
// the day window. Events visible through multiple calendar subscriptions are
// collapsed by (date, start, end, title), and the merged list is ordered by
// actual start instant.
func (c *Client) ListEvents(ctx context.Context, windowDays int) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	var calendars calendarList
	if err := c.doJSON(ctx, http.MethodGet, token, c.calendarBase+"/users/me/calendarList", nil, &calendars); err != nil {
		return "", err
	}

	from := c.now()
	to := from.AddDate(0, 0, windowDays)

	seen := make(map[string]struct{})
	var events []calendarEvent

	for _, cal := range calendars.Items {
		eventsURL := fmt.Sprintf("%s/calendars/%s/events?singleEvents=true&orderBy=startTime&timeMin=%s&timeMax=%s&maxResults=%d",
			c.calendarBase,
			url.PathEscape(cal.ID),
			url.QueryEscape(from.Format(time.RFC3339)),
			url.QueryEscape(to.Format(time.RFC3339)),
			maxEventsPerList)

		var page eventList
		if err := c.doJSON(ctx, http.MethodGet, token, eventsURL, nil, &page); err != nil {
			return "", err
		}

		for _, item := range page.Items {
			ev := newCalendarEvent(item.Summary, item.Start, item.End)
			key := strings.Join([]string{ev.date, ev.start, ev.end, ev.title}, "|")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			events = append(events, ev)
		}
	}

	if len(events) == 0 {
		return fmt.Sprintf("No events in %s.", formatDayWindow(windowDays)), nil
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].instant.Before(events[j].instant)
	})

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, ev.format())
	}
	return fmt.Sprintf("Events in %s:\n%s", formatDayWindow(windowDays), strings.Join(lines, "\n")), nil
}

func newCalendarEvent(summary string, start, end eventBoundary) calendarEvent {
	ev := calendarEvent{title: summary}
	if summary == "" {
		ev.title = "(untitled)"
	}

	if start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, start.DateTime)
		if err == nil {
			ev.instant = t
			ev.date = t.Format("2006-01-02")
			ev.start = t.Format("15:04")
		}
		if endT, err := time.Parse(time.RFC3339, end.DateTime); err == nil {
			ev.end = endT.Format("15:04")
		}
		return ev
	}

	ev.allDay = true
	ev.date = start.Date
	if t, err := time.Parse("2006-01-02", start.Date); err == nil {
		ev.instant = t
	}
	return ev
}

func (ev calendarEvent) format() string {
	if ev.allDay {
		return fmt.Sprintf("- %s (all day): %s", ev.date, ev.title)
	}
	return fmt.Sprintf("- %s %s-%s: %s", ev.date, ev.start, ev.end, ev.title)
}

// CreateEvent creates an event on the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, summary, startISO, endISO, timezone string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]interface{}{
		"summary": summary,
		"start":   map[string]string{"dateTime": startISO, "timeZone": timezone},
		"end":     map[string]string{"dateTime": endISO, "timeZone": timezone},
	}

	createURL := c.calendarBase + "/calendars/primary/events"
	if err := c.doJSON(ctx, http.MethodPost, token, createURL, payload, nil); err != nil {
		return "", err
	}

	c.logger.Info().Str("summary", summary).Msg("Calendar event created")
	return fmt.Sprintf("Created event %q from %s to %s (%s).", summary, startISO, endISO, timezone), nil
}
