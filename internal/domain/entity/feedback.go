package entity

import "time"

// Feedback is submitted once per chat after it reaches a terminal
// status. SessionID scopes submissions from guests.
type Feedback struct {
	ID        int64     `json:"id"`
	ChatID    ChatID    `json:"chat_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
