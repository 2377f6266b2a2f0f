package engine

import (
	"encoding/json"
)

// rawEvent is the envelope shape shared by all stream-json records.
type rawEvent struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	SessionID string `json:"session_id"`
	UUID      string `json:"uuid"`
	Result    string `json:"result"`
	IsError   bool   `json:"is_error"`
	Message   struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// ParseEvent decodes one stream-json line into the closed event variant.
// Undecodable lines become EventOther so the consumer's dispatch stays total.
func ParseEvent(line []byte) Event {
	raw := json.RawMessage(append([]byte(nil), line...))

	var rec rawEvent
	if err := json.Unmarshal(line, &rec); err != nil {
		return Event{Kind: EventOther, Raw: raw}
	}

	switch rec.Type {
	case "system":
		if rec.Subtype == "init" {
			return Event{Kind: EventInit, SessionID: rec.SessionID, Raw: raw}
		}
		return Event{Kind: EventToolNote, SessionID: rec.SessionID, Raw: raw}
	case "assistant":
		var text string
		for _, block := range rec.Message.Content {
			if block.Type == "text" {
				text = block.Text
			}
		}
		return Event{
			Kind:      EventAssistant,
			SessionID: rec.SessionID,
			MessageID: rec.UUID,
			Text:      text,
			Raw:       raw,
		}
	case "result":
		return Event{
			Kind:      EventResult,
			SessionID: rec.SessionID,
			Text:      rec.Result,
			IsError:   rec.IsError,
			Raw:       raw,
		}
	default:
		return Event{Kind: EventOther, SessionID: rec.SessionID, Raw: raw}
	}
}
