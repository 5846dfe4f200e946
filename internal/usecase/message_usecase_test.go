package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/adapter/repository"
	"supportchat/internal/domain/entity"
	"supportchat/internal/infrastructure/storage"
	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/errors"
)

type messageFixture struct {
	chats    *ChatUseCase
	messages *MessageUseCase
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	hub.Start(ctx)

	store, err := storage.NewLocalStorage(t.TempDir(), 1024)
	require.NoError(t, err)

	chatRepo := repository.NewMemoryChatRepository()
	messageRepo := repository.NewMemoryMessageRepository()
	return &messageFixture{
		chats:    NewChatUseCase(chatRepo, messageRepo, repository.NewMemoryCategoryRepository(nil), hub),
		messages: NewMessageUseCase(chatRepo, messageRepo, store, hub),
	}
}

func (f *messageFixture) guestChat(t *testing.T) (*entity.Chat, string) {
	t.Helper()
	chat, sessionID, err := f.chats.CreateGuestChat(context.Background(), "racepack")
	require.NoError(t, err)
	return chat, sessionID
}

func TestSendMessagePersistsAndUpdatesPreview(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	chat, sessionID := f.guestChat(t)

	msg, err := f.messages.Send(ctx, SendMessageInput{
		ChatID:     chat.ID,
		Content:    "  halo  ",
		SenderType: entity.SenderUser,
		SenderID:   sessionID,
		SenderName: "Guest",
		SessionID:  sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, "halo", msg.Content)
	assert.NotZero(t, msg.ID)

	// Greeting plus the new message.
	stored, err := f.chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "halo", stored.LastMessage)
	assert.Equal(t, 2, stored.MessageCount)
}

func TestSendMessageRequiresContentOrAttachment(t *testing.T) {
	f := newMessageFixture(t)
	chat, sessionID := f.guestChat(t)

	_, err := f.messages.Send(context.Background(), SendMessageInput{
		ChatID:     chat.ID,
		Content:    "   ",
		SenderType: entity.SenderUser,
		SenderID:   sessionID,
		SessionID:  sessionID,
	})
	assert.Equal(t, "BAD_REQUEST", errors.Code(err))
}

func TestSendMessageRejectsTerminalChat(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	chat, sessionID := f.guestChat(t)

	_, err := f.chats.Claim(ctx, chat.ID, "admin-1", "Agent One")
	require.NoError(t, err)
	_, err = f.chats.Solve(ctx, chat.ID, "admin-1")
	require.NoError(t, err)

	_, err = f.messages.Send(ctx, SendMessageInput{
		ChatID:     chat.ID,
		Content:    "too late",
		SenderType: entity.SenderUser,
		SenderID:   sessionID,
		SessionID:  sessionID,
	})
	assert.Equal(t, "BAD_REQUEST", errors.Code(err))
}

func TestSendMessageAdminMustHoldClaim(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	chat, _ := f.guestChat(t)

	_, err := f.messages.Send(ctx, SendMessageInput{
		ChatID:     chat.ID,
		Content:    "hello",
		SenderType: entity.SenderAdmin,
		SenderID:   "admin-1",
		SenderName: "Agent One",
	})
	assert.Equal(t, "FORBIDDEN", errors.Code(err))

	_, err = f.chats.Claim(ctx, chat.ID, "admin-1", "Agent One")
	require.NoError(t, err)

	msg, err := f.messages.Send(ctx, SendMessageInput{
		ChatID:     chat.ID,
		Content:    "hello",
		SenderType: entity.SenderAdmin,
		SenderID:   "admin-1",
		SenderName: "Agent One",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SenderAdmin, msg.SenderType)

	// A different admin still cannot reply.
	_, err = f.messages.Send(ctx, SendMessageInput{
		ChatID:     chat.ID,
		Content:    "me too",
		SenderType: entity.SenderAdmin,
		SenderID:   "admin-2",
		SenderName: "Agent Two",
	})
	assert.Equal(t, "FORBIDDEN", errors.Code(err))
}

func TestSendMessageGuestSessionScope(t *testing.T) {
	f := newMessageFixture(t)
	chat, _ := f.guestChat(t)

	_, err := f.messages.Send(context.Background(), SendMessageInput{
		ChatID:     chat.ID,
		Content:    "hello",
		SenderType: entity.SenderUser,
		SenderID:   "guest_wrong",
		SessionID:  "guest_wrong",
	})
	assert.Equal(t, "FORBIDDEN", errors.Code(err))
}

func TestSendMessageStoresAttachment(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	chat, sessionID := f.guestChat(t)

	msg, err := f.messages.Send(ctx, SendMessageInput{
		ChatID: chat.ID,
		Attachment: &Attachment{
			FileName: "receipt.png",
			Size:     11,
			Reader:   strings.NewReader("png-payload"),
		},
		SenderType: entity.SenderUser,
		SenderID:   sessionID,
		SenderName: "Guest",
		SessionID:  sessionID,
	})
	require.NoError(t, err)
	assert.True(t, msg.HasAttachment())
	assert.True(t, strings.HasPrefix(msg.FilePath, "/uploads/"))
	assert.Equal(t, "receipt.png", msg.FileName)

	// Attachment-only messages preview by file name.
	stored, err := f.chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "receipt.png", stored.LastMessage)
}

func TestSendMessageRejectsOversizeAttachment(t *testing.T) {
	f := newMessageFixture(t)
	chat, sessionID := f.guestChat(t)

	_, err := f.messages.Send(context.Background(), SendMessageInput{
		ChatID: chat.ID,
		Attachment: &Attachment{
			FileName: "huge.bin",
			Size:     4096,
			Reader:   strings.NewReader(strings.Repeat("x", 4096)),
		},
		SenderType: entity.SenderUser,
		SenderID:   sessionID,
		SessionID:  sessionID,
	})
	assert.Error(t, err)
}

func TestListByChatOrdered(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	chat, sessionID := f.guestChat(t)

	for _, content := range []string{"one", "two", "three"} {
		_, err := f.messages.Send(ctx, SendMessageInput{
			ChatID:     chat.ID,
			Content:    content,
			SenderType: entity.SenderUser,
			SenderID:   sessionID,
			SenderName: "Guest",
			SessionID:  sessionID,
		})
		require.NoError(t, err)
	}

	msgs, err := f.messages.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, entity.SenderSystem, msgs[0].SenderType)
	assert.Equal(t, "one", msgs[1].Content)
	assert.Equal(t, "three", msgs[3].Content)
	assert.Less(t, msgs[1].ID, msgs[2].ID)
}

func TestListByChatUnknownChat(t *testing.T) {
	f := newMessageFixture(t)
	_, err := f.messages.ListByChat(context.Background(), 404)
	assert.Equal(t, "NOT_FOUND", errors.Code(err))
}
