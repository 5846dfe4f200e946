package entity

import (
	"bytes"
	"strconv"
	"time"
)

// ChatID is the canonical chat identifier. The push channel and some
// clients historically sent it as either a JSON number or a string, so
// it is normalized to int64 once at the decode boundary and compared as
// a plain integer everywhere else.
type ChatID int64

func (id ChatID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id *ChatID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = ChatID(n)
	return nil
}

// Chat lifecycle statuses. Solved and closed are terminal.
const (
	StatusOpen    = "open"
	StatusClaimed = "claimed"
	StatusSolved  = "solved"
	StatusClosed  = "closed"
)

type Chat struct {
	ID           ChatID    `json:"id"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	UserID       string    `json:"user_id,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	ClaimedBy    string    `json:"claimed_by,omitempty"`
	AdminName    string    `json:"admin_name,omitempty"`
	LastMessage  string    `json:"last_message,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTerminal reports whether the chat accepts no further lifecycle
// transitions or messages.
func (c *Chat) IsTerminal() bool {
	return c.Status == StatusSolved || c.Status == StatusClosed
}

// IsClaimedBy reports whether adminID currently holds the claim.
func (c *Chat) IsClaimedBy(adminID string) bool {
	return c.ClaimedBy != "" && c.ClaimedBy == adminID
}

func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusSolved, StatusClosed:
		return true
	}
	return false
}
