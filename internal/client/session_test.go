package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/domain/entity"
)

func msg(id int64, chatID entity.ChatID, at time.Time, content string) entity.Message {
	return entity.Message{
		ID:         entity.MessageID(id),
		ChatID:     chatID,
		SenderType: entity.SenderUser,
		SenderName: "Guest",
		Content:    content,
		CreatedAt:  at,
	}
}

func TestSessionApplyMessageDeduplicates(t *testing.T) {
	s := NewSession(entity.Chat{ID: 7, Status: entity.StatusOpen})
	base := time.Now()

	m := msg(1, 7, base, "hello")
	assert.True(t, s.ApplyMessage(m))

	// The same record arrives again over the other delivery path.
	assert.False(t, s.ApplyMessage(m))
	assert.Len(t, s.Messages(), 1)
}

func TestSessionApplyMessageIgnoresOtherChats(t *testing.T) {
	s := NewSession(entity.Chat{ID: 7})
	assert.False(t, s.ApplyMessage(msg(1, 9, time.Now(), "stray")))
	assert.Empty(t, s.Messages())
}

func TestSessionOrderIsArrivalIndependent(t *testing.T) {
	base := time.Now()
	a := msg(1, 7, base, "a")
	b := msg(2, 7, base.Add(time.Second), "b")
	c := msg(3, 7, base.Add(2*time.Second), "c")

	first := NewSession(entity.Chat{ID: 7})
	for _, m := range []entity.Message{a, b, c} {
		first.ApplyMessage(m)
	}

	second := NewSession(entity.Chat{ID: 7})
	for _, m := range []entity.Message{c, a, b} {
		second.ApplyMessage(m)
	}

	require.Equal(t, first.Messages(), second.Messages())
	got := second.Messages()
	assert.Equal(t, "a", got[0].Content)
	assert.Equal(t, "c", got[2].Content)
}

func TestSessionOrderTiebreaksOnID(t *testing.T) {
	at := time.Now()
	s := NewSession(entity.Chat{ID: 7})
	s.ApplyMessage(msg(5, 7, at, "later id"))
	s.ApplyMessage(msg(2, 7, at, "earlier id"))

	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "earlier id", got[0].Content)
	assert.Equal(t, "later id", got[1].Content)
}

func TestSessionReplaceSnapshotKeepsPushArrivals(t *testing.T) {
	base := time.Now()
	s := NewSession(entity.Chat{ID: 7, Status: entity.StatusOpen})

	// A broadcast lands while the history fetch is in flight.
	pushed := msg(4, 7, base.Add(3*time.Second), "pushed")
	require.True(t, s.ApplyMessage(pushed))

	// The fetch completes without the pushed message.
	s.ReplaceSnapshot(
		entity.Chat{ID: 7, Status: entity.StatusClaimed, ClaimedBy: "admin-1", AdminName: "Agent"},
		[]entity.Message{msg(1, 7, base, "first"), msg(2, 7, base.Add(time.Second), "second")},
	)

	got := s.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, "pushed", got[2].Content)

	chat := s.Chat()
	assert.Equal(t, entity.StatusClaimed, chat.Status)
	assert.Equal(t, "admin-1", chat.ClaimedBy)
}

func TestSessionReplaceSnapshotIsIdempotent(t *testing.T) {
	base := time.Now()
	chat := entity.Chat{ID: 7, Status: entity.StatusOpen}
	history := []entity.Message{msg(1, 7, base, "first"), msg(2, 7, base.Add(time.Second), "second")}

	s := NewSession(chat)
	s.ReplaceSnapshot(chat, history)
	s.ReplaceSnapshot(chat, history)

	assert.Len(t, s.Messages(), 2)
}

func TestSessionPreviewTracksLastOrderedMessage(t *testing.T) {
	base := time.Now()
	s := NewSession(entity.Chat{ID: 7})
	s.ApplyMessage(msg(2, 7, base.Add(time.Second), "newest"))
	s.ApplyMessage(msg(1, 7, base, "older"))

	chat := s.Chat()
	assert.Equal(t, "newest", chat.LastMessage)
	assert.Equal(t, 2, chat.MessageCount)
}

func TestSessionUpdateChatFieldsPartial(t *testing.T) {
	s := NewSession(entity.Chat{ID: 7, Status: entity.StatusOpen, Category: "racepack"})

	claimed := entity.StatusClaimed
	admin := "admin-1"
	s.UpdateChatFields(ChatPatch{Status: &claimed, ClaimedBy: &admin})

	chat := s.Chat()
	assert.Equal(t, entity.StatusClaimed, chat.Status)
	assert.Equal(t, "admin-1", chat.ClaimedBy)
	assert.Equal(t, "racepack", chat.Category)
}

func TestRosterApplyPreview(t *testing.T) {
	r := NewRoster()
	r.Replace([]entity.Chat{
		{ID: 1, Status: entity.StatusOpen, MessageCount: 2},
		{ID: 2, Status: entity.StatusClaimed, MessageCount: 5},
	})

	assert.True(t, r.ApplyPreview(msg(10, 2, time.Now(), "latest word")))
	chat, ok := r.Get(2)
	require.True(t, ok)
	assert.Equal(t, "latest word", chat.LastMessage)
	assert.Equal(t, 6, chat.MessageCount)

	// Unknown chats wait for the next refetch.
	assert.False(t, r.ApplyPreview(msg(11, 99, time.Now(), "stray")))
}

func TestRosterReplacePreservesFetchOrder(t *testing.T) {
	r := NewRoster()
	r.Replace([]entity.Chat{{ID: 3}, {ID: 1}, {ID: 2}})

	got := r.Chats()
	require.Len(t, got, 3)
	assert.Equal(t, entity.ChatID(3), got[0].ID)
	assert.Equal(t, entity.ChatID(2), got[2].ID)
}
