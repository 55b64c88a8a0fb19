package models

import (
	"encoding/json"
	"strings"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContentPart is one element of a rich message payload. Only text parts carry
// content the conversation engine can use; other kinds are preserved as-is.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessageContent is either plain text or a sequence of rich parts. Exactly one
// of the two is set.
type MessageContent struct {
	Text  string
	Parts []ContentPart
	rich  bool
}

// TextContent wraps a plain string as message content
func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// RichContent wraps a sequence of parts as message content
func RichContent(parts []ContentPart) MessageContent {
	return MessageContent{Parts: parts, rich: true}
}

// IsRich reports whether the content is a part sequence
func (c MessageContent) IsRich() bool {
	return c.rich
}

// AsText flattens the content to plain text. Rich content concatenates the
// text of its text parts; non-text parts contribute nothing.
func (c MessageContent) AsText() string {
	if !c.rich {
		return c.Text
	}
	var sb strings.Builder
	for _, p := range c.Parts {
		if p.Type == "text" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// MarshalJSON emits a string for plain content and an array for rich content,
// matching the wire shape of OpenAI-style chat messages
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.rich {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts either a string or an array of parts
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = TextContent(s)
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*c = RichContent(parts)
	return nil
}

// Message is a single turn in a conversation
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// NewMessage creates a plain-text message
func NewMessage(role, text string) Message {
	return Message{Role: role, Content: TextContent(text)}
}

// Thread is a conversation identified by an opaque id, with its accumulated
// message history and optional translation target language
type Thread struct {
	ID             string    `json:"thread_id"`
	Messages       []Message `json:"messages"`
	TargetLanguage string    `json:"target_language,omitempty"`
}
