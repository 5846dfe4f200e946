package websocket

import (
	"encoding/json"
	"time"

	"supportchat/internal/domain/entity"
)

// Push-channel event names. The channel is scoped into per-chat rooms;
// inbound events are client-to-server, the rest are broadcast
// server-to-client.
const (
	EventJoinChat  = "join-chat"  // inbound {chatId}
	EventLeaveChat = "leave-chat" // inbound {chatId}

	EventNewMessage  = "new-message"  // broadcast of any persisted message
	EventChatUpdated = "chat-updated" // signal to reconcile lifecycle/claim state
	EventTyping      = "typing"       // ephemeral, relayed within the room
	EventAdminStatus = "admin-status" // presence hint
)

// Envelope is the wire frame for every push-channel event.
type Envelope struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

func NewEnvelope(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Event:     event,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type JoinChatPayload struct {
	ChatID entity.ChatID `json:"chatId"`
}

type ChatUpdatedPayload struct {
	ChatID entity.ChatID `json:"chatId"`
	Status string        `json:"status,omitempty"`
}

type TypingPayload struct {
	ChatID     entity.ChatID `json:"chatId"`
	IsTyping   bool          `json:"isTyping"`
	SenderName string        `json:"senderName,omitempty"`
}

type AdminStatusPayload struct {
	ChatID    entity.ChatID `json:"chatId"`
	AdminName string        `json:"adminName"`
}
