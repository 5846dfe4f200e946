package client

import (
	"sync"
	"time"

	"supportchat/internal/domain/entity"
	ws "supportchat/internal/infrastructure/websocket"
)

// DefaultTypingExpiry clears a stale typing flag when the peer's
// stop-typing frame was lost.
const DefaultTypingExpiry = 6 * time.Second

// Names that count as agent presence even when the sender type is not
// marked admin. Legacy system greetings were sent this way.
var presenceSentinels = map[string]struct{}{
	"Admin Runtera": {},
	"Runtera":       {},
}

// PresenceState is the ephemeral, chat-scoped signal set surfaced to
// the UI. It is advisory only: nothing is gated on it.
type PresenceState struct {
	AgentOnline bool
	AgentName   string
	Typing      bool
	TypingName  string
}

// PresenceTracker derives presence for a single chat from message
// traffic, admin-status hints and typing frames. Agent-online is
// sticky: once any admin evidence is seen it stays set until the
// tracker is discarded, so a quiet agent is not shown as gone.
type PresenceTracker struct {
	chatID       entity.ChatID
	typingExpiry time.Duration
	onChange     func(PresenceState)

	mu    sync.Mutex
	state PresenceState
	timer *time.Timer
}

// NewPresenceTracker builds a tracker for one chat. typingExpiry < 0
// disables expiry entirely; 0 selects the default.
func NewPresenceTracker(chatID entity.ChatID, typingExpiry time.Duration, onChange func(PresenceState)) *PresenceTracker {
	if typingExpiry == 0 {
		typingExpiry = DefaultTypingExpiry
	}
	return &PresenceTracker{
		chatID:       chatID,
		typingExpiry: typingExpiry,
		onChange:     onChange,
	}
}

func (t *PresenceTracker) State() PresenceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ObserveMessage inspects one merged message for agent evidence. Works
// on history scans and live broadcasts alike.
func (t *PresenceTracker) ObserveMessage(msg entity.Message) {
	if msg.ChatID != t.chatID {
		return
	}
	_, sentinel := presenceSentinels[msg.SenderName]
	if msg.SenderType != entity.SenderAdmin && !sentinel {
		return
	}

	t.mu.Lock()
	changed := !t.state.AgentOnline || t.state.AgentName != msg.SenderName
	t.state.AgentOnline = true
	if msg.SenderName != "" {
		t.state.AgentName = msg.SenderName
	}
	state := t.state
	t.mu.Unlock()

	if changed {
		t.notify(state)
	}
}

// ObserveAdminStatus folds in an explicit presence hint.
func (t *PresenceTracker) ObserveAdminStatus(p ws.AdminStatusPayload) {
	if p.ChatID != t.chatID {
		return
	}

	t.mu.Lock()
	changed := !t.state.AgentOnline || (p.AdminName != "" && t.state.AgentName != p.AdminName)
	t.state.AgentOnline = true
	if p.AdminName != "" {
		t.state.AgentName = p.AdminName
	}
	state := t.state
	t.mu.Unlock()

	if changed {
		t.notify(state)
	}
}

// ObserveTyping sets or clears the typing flag. Frames for other chats
// are dropped, so a peer typing elsewhere never leaks into this view.
func (t *PresenceTracker) ObserveTyping(p ws.TypingPayload) {
	if p.ChatID != t.chatID {
		return
	}

	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.state.Typing = p.IsTyping
	if p.IsTyping {
		t.state.TypingName = p.SenderName
		if t.typingExpiry > 0 {
			t.timer = time.AfterFunc(t.typingExpiry, t.expireTyping)
		}
	} else {
		t.state.TypingName = ""
	}
	state := t.state
	t.mu.Unlock()

	t.notify(state)
}

func (t *PresenceTracker) expireTyping() {
	t.mu.Lock()
	if !t.state.Typing {
		t.mu.Unlock()
		return
	}
	t.state.Typing = false
	t.state.TypingName = ""
	t.timer = nil
	state := t.state
	t.mu.Unlock()

	t.notify(state)
}

// Stop cancels any pending expiry timer.
func (t *PresenceTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *PresenceTracker) notify(state PresenceState) {
	if t.onChange != nil {
		t.onChange(state)
	}
}
