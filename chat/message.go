package chat

import (
	"time"
)

type MessageType string

const (
	TypeUser MessageType = "user"
	TypeAI   MessageType = "ai"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message is one turn of the conversation. Values are never mutated after NewMessage.
type Message struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Model     Model       `json:"model"`
	Timestamp string      `json:"timestamp"`
}

func NewMessage(typ MessageType, content string, model Model, now time.Time) Message {
	return Message{
		Type:      typ,
		Content:   content,
		Model:     model,
		Timestamp: FormatTimestamp(now),
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the stored timestamp; ok is false for anything that is not ISO-8601.
func (m Message) Time() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m Message) IsUser() bool { return m.Type == TypeUser }
