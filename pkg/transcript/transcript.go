// Package transcript reads the reasoning engine's JSONL transcript format
// and writes human-readable archives of conversation turns. The transcript
// file format is owned by the engine; only the shapes consumed here are
// relied upon.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Turn is one user- or assistant-authored text turn.
type Turn struct {
	Role string
	Text string
}

// Parsed is the useful content of one transcript file.
type Parsed struct {
	Turns   []Turn
	Summary string // most recent summary line, if any
}

// line is the subset of a transcript record this package understands.
// Tool-call records carry no text blocks and fall through untouched.
type line struct {
	Type    string `json:"type"`
	Summary string `json:"summary,omitempty"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// contentBlock is one element of a structured message content array.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseFile reads and parses the transcript at path.
func ParseFile(path string) (*Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a JSONL transcript, keeping user/assistant text turns and
// the latest summary. Unparsable lines are skipped; the engine writes
// records this package has no interest in.
func Parse(r io.Reader) (*Parsed, error) {
	parsed := &Parsed{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec line
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}

		switch rec.Type {
		case "summary":
			if rec.Summary != "" {
				parsed.Summary = rec.Summary
			}
		case "user", "assistant":
			text := extractText(rec.Message.Content)
			if text == "" {
				continue
			}
			parsed.Turns = append(parsed.Turns, Turn{Role: rec.Type, Text: text})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return parsed, nil
}

// extractText flattens message content to text, ignoring tool_use and
// tool_result blocks. Content is either a bare string or a block array.
func extractText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(content, &plain); err == nil {
		return strings.TrimSpace(plain)
	}

	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, strings.TrimSpace(block.Text))
		}
	}
	return strings.Join(parts, "\n")
}
