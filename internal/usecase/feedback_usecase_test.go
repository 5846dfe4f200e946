package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/adapter/repository"
	"supportchat/internal/domain/entity"
	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/errors"
)

type feedbackFixture struct {
	chats    *ChatUseCase
	feedback *FeedbackUseCase
}

func newFeedbackFixture(t *testing.T) *feedbackFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	hub.Start(ctx)

	chatRepo := repository.NewMemoryChatRepository()
	return &feedbackFixture{
		chats:    NewChatUseCase(chatRepo, repository.NewMemoryMessageRepository(), repository.NewMemoryCategoryRepository(nil), hub),
		feedback: NewFeedbackUseCase(chatRepo, repository.NewMemoryFeedbackRepository()),
	}
}

func (f *feedbackFixture) solvedGuestChat(t *testing.T) (*entity.Chat, string) {
	t.Helper()
	ctx := context.Background()
	chat, sessionID, err := f.chats.CreateGuestChat(ctx, "racepack")
	require.NoError(t, err)
	_, err = f.chats.Claim(ctx, chat.ID, "admin-1", "Agent One")
	require.NoError(t, err)
	_, err = f.chats.Solve(ctx, chat.ID, "admin-1")
	require.NoError(t, err)
	return chat, sessionID
}

func TestSubmitFeedback(t *testing.T) {
	f := newFeedbackFixture(t)
	chat, sessionID := f.solvedGuestChat(t)

	fb, err := f.feedback.Submit(context.Background(), SubmitFeedbackInput{
		ChatID:    chat.ID,
		Rating:    5,
		Comment:   "cepat dan jelas",
		SessionID: sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, fb.Rating)
	assert.NotZero(t, fb.ID)
}

func TestSubmitFeedbackRatingBounds(t *testing.T) {
	f := newFeedbackFixture(t)
	chat, sessionID := f.solvedGuestChat(t)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.feedback.Submit(context.Background(), SubmitFeedbackInput{
			ChatID: chat.ID, Rating: rating, SessionID: sessionID,
		})
		assert.Equal(t, "BAD_REQUEST", errors.Code(err))
	}
}

func TestSubmitFeedbackRequiresTerminalChat(t *testing.T) {
	f := newFeedbackFixture(t)
	chat, sessionID, err := f.chats.CreateGuestChat(context.Background(), "racepack")
	require.NoError(t, err)

	_, err = f.feedback.Submit(context.Background(), SubmitFeedbackInput{
		ChatID: chat.ID, Rating: 4, SessionID: sessionID,
	})
	assert.Equal(t, "BAD_REQUEST", errors.Code(err))
}

func TestSubmitFeedbackScopedToOwner(t *testing.T) {
	f := newFeedbackFixture(t)
	chat, _ := f.solvedGuestChat(t)

	_, err := f.feedback.Submit(context.Background(), SubmitFeedbackInput{
		ChatID: chat.ID, Rating: 4, SessionID: "guest_intruder",
	})
	assert.Equal(t, "FORBIDDEN", errors.Code(err))
}

func TestSubmitFeedbackOncePerChat(t *testing.T) {
	f := newFeedbackFixture(t)
	chat, sessionID := f.solvedGuestChat(t)
	ctx := context.Background()

	_, err := f.feedback.Submit(ctx, SubmitFeedbackInput{ChatID: chat.ID, Rating: 5, SessionID: sessionID})
	require.NoError(t, err)

	_, err = f.feedback.Submit(ctx, SubmitFeedbackInput{ChatID: chat.ID, Rating: 3, SessionID: sessionID})
	assert.Equal(t, "CONFLICT", errors.Code(err))
}
