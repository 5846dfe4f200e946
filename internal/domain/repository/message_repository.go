package repository

import (
	"context"

	"supportchat/internal/domain/entity"
)

type MessageRepository interface {
	// Create persists the message and assigns its monotonic ID.
	Create(ctx context.Context, message *entity.Message) error
	ListByChat(ctx context.Context, chatID entity.ChatID) ([]*entity.Message, error)
	CountAll(ctx context.Context) (int, error)
}
