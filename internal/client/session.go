package client

import (
	"sort"
	"sync"

	"supportchat/internal/domain/entity"
)

// Session is the client-side authoritative view of one chat: the chat
// record plus its ordered, deduplicated message log. Messages arrive
// over two paths at once (REST responses and push broadcasts), in any
// order; the session merges them into a single stable view.
type Session struct {
	mu       sync.Mutex
	chat     entity.Chat
	messages []entity.Message
	seen     map[entity.MessageID]struct{}
}

func NewSession(chat entity.Chat) *Session {
	return &Session{
		chat: chat,
		seen: make(map[entity.MessageID]struct{}),
	}
}

func (s *Session) ChatID() entity.ChatID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.ID
}

func (s *Session) Chat() entity.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat
}

// Messages returns the ordered log. The slice is a copy; callers may
// keep it across further merges.
func (s *Session) Messages() []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ApplyMessage merges one message into the log. It reports whether an
// insertion happened: a message for another chat, or one whose ID is
// already present, is a no-op. Both the REST response to a send and
// the broadcast of the same persisted record funnel through here, so
// whichever arrives second is absorbed silently.
func (s *Session) ApplyMessage(msg entity.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ChatID != s.chat.ID {
		return false
	}
	if _, dup := s.seen[msg.ID]; dup {
		return false
	}

	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
	s.sortLocked()
	s.refreshPreviewLocked()
	return true
}

// ReplaceSnapshot merges a full refetch. The fetched chat record wins
// on every field; the message log is the union of the snapshot and
// anything already held locally, so a message observed over push just
// before the fetch completed is never lost.
func (s *Session) ReplaceSnapshot(chat entity.Chat, msgs []entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat.ID != s.chat.ID {
		return
	}
	s.chat = chat
	for _, msg := range msgs {
		if msg.ChatID != s.chat.ID {
			continue
		}
		if _, dup := s.seen[msg.ID]; dup {
			continue
		}
		s.seen[msg.ID] = struct{}{}
		s.messages = append(s.messages, msg)
	}
	s.sortLocked()
	s.refreshPreviewLocked()
}

// ChatPatch is a partial chat update. Nil fields are left untouched.
type ChatPatch struct {
	Status    *string
	ClaimedBy *string
	AdminName *string
}

// UpdateChatFields applies a partial update to the chat record without
// touching the message log.
func (s *Session) UpdateChatFields(patch ChatPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Status != nil {
		s.chat.Status = *patch.Status
	}
	if patch.ClaimedBy != nil {
		s.chat.ClaimedBy = *patch.ClaimedBy
	}
	if patch.AdminName != nil {
		s.chat.AdminName = *patch.AdminName
	}
}

// ReplaceChat swaps in a freshly fetched chat record wholesale.
func (s *Session) ReplaceChat(chat entity.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat.ID != s.chat.ID {
		return
	}
	s.chat = chat
}

// Total order: creation time first, identifier as the tiebreak. Every
// replica that holds the same message set renders the same sequence.
func (s *Session) sortLocked() {
	sort.SliceStable(s.messages, func(i, j int) bool {
		a, b := &s.messages[i], &s.messages[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (s *Session) refreshPreviewLocked() {
	if len(s.messages) == 0 {
		return
	}
	last := &s.messages[len(s.messages)-1]
	if last.Content != "" {
		s.chat.LastMessage = last.Content
	} else {
		s.chat.LastMessage = last.FileName
	}
	if len(s.messages) > s.chat.MessageCount {
		s.chat.MessageCount = len(s.messages)
	}
}

// Roster is the dashboard-facing chat list cache. It holds the last
// fetched list and applies lightweight preview updates from broadcasts
// between refetches.
type Roster struct {
	mu    sync.Mutex
	chats map[entity.ChatID]*entity.Chat
	order []entity.ChatID
}

func NewRoster() *Roster {
	return &Roster{chats: make(map[entity.ChatID]*entity.Chat)}
}

// Replace swaps in a freshly fetched list, preserving its order.
func (r *Roster) Replace(chats []entity.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chats = make(map[entity.ChatID]*entity.Chat, len(chats))
	r.order = r.order[:0]
	for i := range chats {
		c := chats[i]
		if _, dup := r.chats[c.ID]; dup {
			continue
		}
		r.chats[c.ID] = &c
		r.order = append(r.order, c.ID)
	}
}

// ApplyPreview folds a broadcast message into the list entry's
// denormalized preview fields. Messages for unknown chats are ignored
// until the next refetch picks the chat up.
func (r *Roster) ApplyPreview(msg entity.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[msg.ChatID]
	if !ok {
		return false
	}
	if msg.Content != "" {
		chat.LastMessage = msg.Content
	} else {
		chat.LastMessage = msg.FileName
	}
	chat.MessageCount++
	return true
}

func (r *Roster) Get(id entity.ChatID) (entity.Chat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return entity.Chat{}, false
	}
	return *chat, true
}

// Chats returns the list in fetch order.
func (r *Roster) Chats() []entity.Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Chat, 0, len(r.order))
	for _, id := range r.order {
		if chat, ok := r.chats[id]; ok {
			out = append(out, *chat)
		}
	}
	return out
}
