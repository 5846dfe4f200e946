package websocket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/domain/entity"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.Start(ctx)
	return hub
}

// drain consumes a client's send buffer until the hub closes it,
// standing in for WritePump.
func drain(c *Client) {
	go func() {
		for range c.Send {
		}
	}()
}

func TestBroadcastDuringDisconnectDoesNotPanic(t *testing.T) {
	hub := startHub(t)
	chatID := entity.ChatID(42)

	clients := make([]*Client, 0, 8)
	for i := 0; i < 8; i++ {
		c := NewClient(fmt.Sprintf("client-%d", i), "linda", nil)
		hub.Register <- c
		hub.JoinRoom(c, chatID)
		drain(c)
		clients = append(clients, c)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.BroadcastToChat(chatID, EventNewMessage, map[string]int{"seq": i})
		}
	}()
	go func() {
		defer wg.Done()
		for _, c := range clients {
			hub.Unregister <- c
		}
	}()
	wg.Wait()

	// Every send channel must have been closed exactly once.
	for _, c := range clients {
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-c.Send:
				return !ok
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond, "send channel for %s never closed", c.ID)
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub := startHub(t)
	chatID := entity.ChatID(7)

	slow := NewClient("slow", "budi", nil)
	hub.Register <- slow
	hub.JoinRoom(slow, chatID)

	// Nobody drains slow.Send, so the buffer fills and the hub must
	// cut the client loose instead of blocking.
	for i := 0; i < cap(slow.Send)+8; i++ {
		hub.BroadcastToChat(chatID, EventNewMessage, map[string]int{"seq": i})
	}

	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-slow.Send:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond, "slow client was never dropped")

	// A late join from the dropped client must not resurrect it.
	hub.JoinRoom(slow, chatID)
	hub.BroadcastToChat(chatID, EventNewMessage, map[string]string{"content": "after drop"})
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	hub := startHub(t)
	chatID := entity.ChatID(3)

	sender := NewClient("sender", "admin", nil)
	peer := NewClient("peer", "guest", nil)
	for _, c := range []*Client{sender, peer} {
		hub.Register <- c
		hub.JoinRoom(c, chatID)
	}

	hub.BroadcastToChatExcept(chatID, sender.ID, EventTyping, TypingPayload{ChatID: chatID, SenderName: "admin"})

	select {
	case raw := <-peer.Send:
		assert.Contains(t, string(raw), EventTyping)
	case <-time.After(time.Second):
		t.Fatal("peer never received the typing relay")
	}
	select {
	case raw := <-sender.Send:
		t.Fatalf("sender received its own relay: %s", raw)
	default:
	}
}
