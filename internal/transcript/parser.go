// Package transcript reads JSONL conversation transcripts into role-tagged
// messages for decision ingestion.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// minTextChars matches the shortest head the extractor will accept; shorter
// messages cannot carry a decision.
const minTextChars = 5

// maxLineBytes bounds a single transcript line.
const maxLineBytes = 1024 * 1024

// line is one JSONL record.
type line struct {
	Type      string          `json:"type"` // "user", "assistant", "system"
	SessionID string          `json:"sessionId"`
	Message   json.RawMessage `json:"message"`
}

type message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"` // string or []contentItem
}

type contentItem struct {
	Type string `json:"type"` // "text", "tool_use", "tool_result"
	Text string `json:"text,omitempty"`
}

// Message is a conversational turn ready for Engine.Process.
type Message struct {
	Line      int    // 1-based line number in the source
	SessionID string // empty when the transcript does not carry one
	Role      string
	Text      string
}

// Stats reports what Parse saw.
type Stats struct {
	Lines     int
	Messages  int
	Malformed int
}

var systemReminderRe = regexp.MustCompile(`<system-reminder>[\s\S]*?</system-reminder>`)

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) ([]Message, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads JSONL records from r. Malformed lines are counted and skipped;
// only a read failure is an error.
func Parse(r io.Reader) ([]Message, Stats, error) {
	var (
		msgs  []Message
		stats Stats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		stats.Lines++
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}

		m, err := parseLine(raw)
		if err != nil {
			stats.Malformed++
			continue
		}
		if m == nil {
			continue
		}
		m.Line = stats.Lines
		msgs = append(msgs, *m)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan transcript: %w", err)
	}

	stats.Messages = len(msgs)
	return msgs, stats, nil
}

func parseLine(raw []byte) (*Message, error) {
	var l line
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	if l.Type == "" || l.Message == nil {
		return nil, nil
	}

	var msg message
	if err := json.Unmarshal(l.Message, &msg); err != nil {
		return nil, err
	}

	text := systemReminderRe.ReplaceAllString(extractText(msg.Content), "")
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minTextChars || strings.HasPrefix(text, "{") {
		return nil, nil
	}

	role := msg.Role
	if role == "" {
		role = l.Type
	}
	return &Message{SessionID: l.SessionID, Role: role, Text: text}, nil
}

// extractText handles the polymorphic content field: a plain string or an
// array of content items, of which only text blocks are kept.
func extractText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []contentItem
	if err := json.Unmarshal(raw, &items); err == nil {
		var texts []string
		for _, item := range items {
			if item.Type == "text" && item.Text != "" {
				texts = append(texts, item.Text)
			}
		}
		return strings.Join(texts, "\n")
	}
	return ""
}
