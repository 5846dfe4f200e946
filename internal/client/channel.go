package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"supportchat/internal/domain/entity"
	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/errors"
	"supportchat/pkg/logger"
)

// ChannelEvents are the push-side callbacks. They are invoked from the
// channel's read goroutine; handlers must not block.
type ChannelEvents struct {
	NewMessage  func(entity.Message)
	ChatUpdated func(ws.ChatUpdatedPayload)
	Typing      func(ws.TypingPayload)
	AdminStatus func(ws.AdminStatusPayload)
	Disconnect  func(error)
}

// Channel is the single shared push connection. All chat rooms the
// client is interested in are joined over this one socket.
type Channel struct {
	url    string
	events ChannelEvents

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewChannel builds an undial'd channel. socketURL is the backend base
// URL in either http or ws scheme; token, when set, is passed as a
// query parameter for authenticated subscriptions.
func NewChannel(socketURL, token string, events ChannelEvents) (*Channel, error) {
	u, err := url.Parse(socketURL)
	if err != nil {
		return nil, errors.BadRequest("Invalid socket URL", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return &Channel{url: u.String(), events: events}, nil
}

func (ch *Channel) Dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ch.url, nil)
	if err != nil {
		return errors.Internal("Failed to connect push channel", err)
	}

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		conn.Close()
		return errors.Internal("Channel is closed", nil)
	}
	ch.conn = conn
	ch.mu.Unlock()

	go ch.readLoop(conn)
	return nil
}

func (ch *Channel) Close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.closed = true
	if ch.conn == nil {
		return nil
	}
	err := ch.conn.Close()
	ch.conn = nil
	return err
}

// JoinChat subscribes the connection to a chat room. Broadcasts for
// other rooms stop arriving once the previous room is left.
func (ch *Channel) JoinChat(chatID entity.ChatID) error {
	return ch.send(ws.EventJoinChat, ws.JoinChatPayload{ChatID: chatID})
}

func (ch *Channel) LeaveChat(chatID entity.ChatID) error {
	return ch.send(ws.EventLeaveChat, ws.JoinChatPayload{ChatID: chatID})
}

// SendTyping relays the ephemeral typing flag to the rest of the room.
func (ch *Channel) SendTyping(chatID entity.ChatID, isTyping bool, senderName string) error {
	return ch.send(ws.EventTyping, ws.TypingPayload{
		ChatID:     chatID,
		IsTyping:   isTyping,
		SenderName: senderName,
	})
}

func (ch *Channel) send(event string, data interface{}) error {
	frame, err := ws.NewEnvelope(event, data)
	if err != nil {
		return errors.Internal("Failed to encode frame", err)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.conn == nil {
		return errors.Internal("Push channel is not connected", nil)
	}
	if err := ch.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return errors.Internal("Failed to write frame", err)
	}
	return nil
}

func (ch *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			ch.mu.Lock()
			intentional := ch.closed || ch.conn != conn
			ch.mu.Unlock()
			if !intentional && ch.events.Disconnect != nil {
				ch.events.Disconnect(err)
			}
			return
		}
		ch.dispatch(raw)
	}
}

func (ch *Channel) dispatch(raw []byte) {
	var env ws.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("Dropping malformed push frame: %v", err)
		return
	}

	switch env.Event {
	case ws.EventNewMessage:
		var msg entity.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			logger.Warn("Dropping malformed %s payload: %v", env.Event, err)
			return
		}
		if ch.events.NewMessage != nil {
			ch.events.NewMessage(msg)
		}
	case ws.EventChatUpdated:
		var p ws.ChatUpdatedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logger.Warn("Dropping malformed %s payload: %v", env.Event, err)
			return
		}
		if ch.events.ChatUpdated != nil {
			ch.events.ChatUpdated(p)
		}
	case ws.EventTyping:
		var p ws.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logger.Warn("Dropping malformed %s payload: %v", env.Event, err)
			return
		}
		if ch.events.Typing != nil {
			ch.events.Typing(p)
		}
	case ws.EventAdminStatus:
		var p ws.AdminStatusPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logger.Warn("Dropping malformed %s payload: %v", env.Event, err)
			return
		}
		if ch.events.AdminStatus != nil {
			ch.events.AdminStatus(p)
		}
	default:
		// Unknown events are ignored so the protocol can grow.
	}
}
