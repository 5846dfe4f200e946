package repository

import (
	"context"

	"supportchat/internal/domain/entity"
)

// ChatFilter narrows the admin-facing chat list. Empty fields match
// everything.
type ChatFilter struct {
	Status   string
	Category string
	AdminID  string
}

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id entity.ChatID) (*entity.Chat, error)
	Update(ctx context.Context, chat *entity.Chat) error
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)
	ListBySessionID(ctx context.Context, sessionID string) ([]*entity.Chat, error)
	List(ctx context.Context, filter ChatFilter) ([]*entity.Chat, error)

	// Claim atomically assigns the chat to adminID iff it is still
	// open. Exactly one concurrent caller wins; the rest get a
	// conflict error carrying the authoritative chat state.
	Claim(ctx context.Context, id entity.ChatID, adminID, adminName string) (*entity.Chat, error)
}
