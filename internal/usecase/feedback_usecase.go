package usecase

import (
	"context"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/pkg/errors"
	"supportchat/pkg/logger"
)

type FeedbackUseCase struct {
	chatRepo     repository.ChatRepository
	feedbackRepo repository.FeedbackRepository
}

func NewFeedbackUseCase(chatRepo repository.ChatRepository, feedbackRepo repository.FeedbackRepository) *FeedbackUseCase {
	return &FeedbackUseCase{
		chatRepo:     chatRepo,
		feedbackRepo: feedbackRepo,
	}
}

type SubmitFeedbackInput struct {
	ChatID    entity.ChatID
	Rating    int
	Comment   string
	UserID    string // authenticated participants
	SessionID string // guests
}

// Submit records one feedback entry for a terminal chat, scoped to the
// participant who owned it.
func (uc *FeedbackUseCase) Submit(ctx context.Context, input SubmitFeedbackInput) (*entity.Feedback, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.BadRequest("Rating must be between 1 and 5", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsTerminal() {
		return nil, errors.BadRequest("Feedback is only accepted after the chat is resolved", nil)
	}

	if chat.SessionID != "" {
		if input.SessionID != chat.SessionID {
			return nil, errors.Forbidden("Session does not own this chat", nil)
		}
	} else if chat.UserID != input.UserID {
		return nil, errors.Forbidden("User does not own this chat", nil)
	}

	feedback := &entity.Feedback{
		ChatID:    input.ChatID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		SessionID: input.SessionID,
	}
	if err := uc.feedbackRepo.Create(ctx, feedback); err != nil {
		return nil, err
	}

	logger.Info("Feedback recorded for chat %s (rating %d)", input.ChatID, input.Rating)
	return feedback, nil
}
