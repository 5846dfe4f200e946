package entity

import (
	"bytes"
	"strconv"
	"time"
)

// MessageID is assigned monotonically by the backend and is unique
// across chats. Like ChatID it tolerates both numeric and string JSON
// forms on the wire.
type MessageID int64

func (id MessageID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = MessageID(n)
	return nil
}

// Sender kinds.
const (
	SenderUser   = "user"
	SenderAdmin  = "admin"
	SenderSystem = "system"
)

// Message is immutable once persisted: the backend never edits or
// deletes one, so any two copies observed with the same ID are the
// same message.
type Message struct {
	ID         MessageID `json:"id"`
	ChatID     ChatID    `json:"chat_id"`
	SenderType string    `json:"sender_type"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasAttachment reports whether the message references an uploaded
// file. FilePath is server-relative; resolving it against a base URL
// is the consumer's job.
func (m *Message) HasAttachment() bool {
	return m.FilePath != ""
}
