package repository

import (
	"context"

	"supportchat/internal/domain/entity"
)

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entity.Feedback) error
	GetByChat(ctx context.Context, chatID entity.ChatID) (*entity.Feedback, error)
}
