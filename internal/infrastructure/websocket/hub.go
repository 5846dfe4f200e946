package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"supportchat/internal/domain/entity"
	"supportchat/pkg/logger"
)

// Client represents one connected push-channel consumer.
type Client struct {
	ID    string
	Name  string
	Conn  *websocket.Conn
	Send  chan []byte
	rooms map[entity.ChatID]bool
}

func NewClient(id, name string, conn *websocket.Conn) *Client {
	return &Client{
		ID:    id,
		Name:  name,
		Conn:  conn,
		Send:  make(chan []byte, 64),
		rooms: make(map[entity.ChatID]bool),
	}
}

// Hub manages all active connections and their per-chat room
// memberships. It is a single long-lived shared resource; clients join
// and leave rooms over the connection rather than reconnecting.
type Hub struct {
	clients    map[string]*Client
	rooms      map[entity.ChatID]map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan broadcastFrame
	mutex      sync.RWMutex
}

type broadcastFrame struct {
	chatID   entity.ChatID
	exceptID string
	payload  []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[entity.ChatID]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan broadcastFrame),
	}
}

// Start runs the hub's main loop in a goroutine.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-h.Register:
				h.mutex.Lock()
				h.clients[client.ID] = client
				h.mutex.Unlock()
				logger.Info("Client registered: %s", client.ID)

			case client := <-h.Unregister:
				h.mutex.Lock()
				if _, ok := h.clients[client.ID]; ok {
					h.dropClientLocked(client)
				}
				h.mutex.Unlock()
				logger.Info("Client unregistered: %s", client.ID)

			case frame := <-h.broadcast:
				h.deliver(frame)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Hub) JoinRoom(client *Client, chatID entity.ChatID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	// A client dropped for a full buffer may still issue joins until
	// its pumps observe the disconnect.
	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[chatID] = room
	}
	room[client.ID] = client
	client.rooms[chatID] = true
	logger.Info("Client %s joined chat room %s", client.ID, chatID)
}

func (h *Hub) LeaveRoom(client *Client, chatID entity.ChatID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removeFromRoomLocked(chatID, client.ID)
	delete(client.rooms, chatID)
	logger.Info("Client %s left chat room %s", client.ID, chatID)
}

func (h *Hub) dropClientLocked(client *Client) {
	delete(h.clients, client.ID)
	for chatID := range client.rooms {
		h.removeFromRoomLocked(chatID, client.ID)
	}
	close(client.Send)
}

func (h *Hub) removeFromRoomLocked(chatID entity.ChatID, clientID string) {
	if room, ok := h.rooms[chatID]; ok {
		delete(room, clientID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// BroadcastToChat delivers an event to every client in the chat's
// room. Slow consumers are dropped rather than allowed to block the
// hub.
func (h *Hub) BroadcastToChat(chatID entity.ChatID, event string, data interface{}) {
	h.enqueue(chatID, "", event, data)
}

// BroadcastToChatExcept skips the named client, used for typing relays
// so senders do not see their own indicator.
func (h *Hub) BroadcastToChatExcept(chatID entity.ChatID, exceptID, event string, data interface{}) {
	h.enqueue(chatID, exceptID, event, data)
}

func (h *Hub) enqueue(chatID entity.ChatID, exceptID, event string, data interface{}) {
	payload, err := NewEnvelope(event, data)
	if err != nil {
		logger.Error("Failed to marshal %s event: %v", event, err)
		return
	}
	h.broadcast <- broadcastFrame{chatID: chatID, exceptID: exceptID, payload: payload}
}

// deliver runs on the hub loop, the only goroutine that closes Send
// channels, so sends here cannot race an unregister close.
func (h *Hub) deliver(frame broadcastFrame) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, client := range h.rooms[frame.chatID] {
		if id == frame.exceptID {
			continue
		}
		select {
		case client.Send <- frame.payload:
		default:
			logger.Warn("Client %s send buffer full, dropping connection", client.ID)
			h.dropClientLocked(client)
		}
	}
}

// ReadPump consumes inbound frames until the connection drops. Only
// join-chat, leave-chat and typing are accepted from clients; all
// other events originate server side.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Read error for client %s: %v", c.ID, err)
			}
			break
		}
		h.handleInbound(c, raw)
	}
}

func (h *Hub) handleInbound(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("Invalid frame from client %s: %v", c.ID, err)
		return
	}

	switch env.Event {
	case EventJoinChat:
		var payload JoinChatPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ChatID == 0 {
			logger.Warn("Invalid join-chat payload from client %s", c.ID)
			return
		}
		h.JoinRoom(c, payload.ChatID)

	case EventLeaveChat:
		var payload JoinChatPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ChatID == 0 {
			logger.Warn("Invalid leave-chat payload from client %s", c.ID)
			return
		}
		h.LeaveRoom(c, payload.ChatID)

	case EventTyping:
		var payload TypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ChatID == 0 {
			logger.Warn("Invalid typing payload from client %s", c.ID)
			return
		}
		if payload.SenderName == "" {
			payload.SenderName = c.Name
		}
		h.BroadcastToChatExcept(payload.ChatID, c.ID, EventTyping, payload)

	default:
		logger.Warn("Unknown event %q from client %s", env.Event, c.ID)
	}
}

// WritePump drains the send buffer onto the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Error("Write error for client %s: %v", c.ID, err)
			return
		}
	}
}
