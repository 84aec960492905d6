package llm

import (
	"encoding/json"
	"strings"
)

// ChatMessage is one cleaned conversation turn used for prompting and
// evaluation. Role is "human" for the candidate, "ai" for the interviewer.
type ChatMessage struct {
	Role    string `json:"type"`
	Content string `json:"content"`
}

// storedTurn mirrors the history store's wire format.
type storedTurn struct {
	Type string `json:"type"`
	Data struct {
		Content string `json:"content"`
	} `json:"data"`
}

// ParseHistory turns raw history records (newest first, as read from the
// store) into chronological, deduplicated chat messages. Interviewer turns
// whose content is still the model's raw JSON are reduced to the question
// text. Repeated (speaker, content) pairs, as produced by retried steps, are
// kept once.
func ParseHistory(raw []string) []ChatMessage {
	seen := make(map[ChatMessage]struct{})
	var msgs []ChatMessage

	for _, item := range raw {
		var turn storedTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue
		}
		if turn.Type != "human" && turn.Type != "ai" {
			continue
		}

		content := strings.TrimSpace(turn.Data.Content)
		if turn.Type == "ai" {
			content = extractQuestion(content)
		}
		if content == "" {
			continue
		}

		msg := ChatMessage{Role: turn.Type, Content: content}
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		msgs = append(msgs, msg)
	}

	// Stored newest first; evaluation wants chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}

// extractQuestion unwraps an interviewer turn that was stored as the model's
// raw JSON object rather than plain question text.
func extractQuestion(content string) string {
	if !strings.HasPrefix(content, "{") {
		return content
	}
	var inner struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(content), &inner); err != nil || inner.Question == "" {
		return content
	}
	return strings.TrimSpace(inner.Question)
}

// FormatHistory renders chat messages as a plain transcript for the
// evaluation prompt.
func FormatHistory(msgs []ChatMessage) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		speaker := "Interviewer"
		if m.Role == "human" {
			speaker = "Candidate"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}
