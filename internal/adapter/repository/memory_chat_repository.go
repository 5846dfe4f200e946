package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/pkg/errors"
)

type memoryChatRepository struct {
	mu     sync.RWMutex
	chats  map[entity.ChatID]*entity.Chat
	nextID entity.ChatID
}

func NewMemoryChatRepository() repository.ChatRepository {
	return &memoryChatRepository{
		chats:  make(map[entity.ChatID]*entity.Chat),
		nextID: 1,
	}
}

func (r *memoryChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	stored := *chat
	r.chats[chat.ID] = &stored
	return nil
}

func (r *memoryChatRepository) GetByID(ctx context.Context, id entity.ChatID) (*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	clone := *chat
	return &clone, nil
}

func (r *memoryChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chats[chat.ID]; !ok {
		return errors.NotFound("Chat", nil)
	}
	chat.UpdatedAt = time.Now().UTC()
	stored := *chat
	r.chats[chat.ID] = &stored
	return nil
}

func (r *memoryChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	return r.listWhere(func(c *entity.Chat) bool { return c.UserID == userID }), nil
}

func (r *memoryChatRepository) ListBySessionID(ctx context.Context, sessionID string) ([]*entity.Chat, error) {
	return r.listWhere(func(c *entity.Chat) bool { return c.SessionID == sessionID }), nil
}

func (r *memoryChatRepository) List(ctx context.Context, filter repository.ChatFilter) ([]*entity.Chat, error) {
	return r.listWhere(func(c *entity.Chat) bool {
		if filter.Status != "" && c.Status != filter.Status {
			return false
		}
		if filter.Category != "" && c.Category != filter.Category {
			return false
		}
		if filter.AdminID != "" && c.ClaimedBy != filter.AdminID {
			return false
		}
		return true
	}), nil
}

func (r *memoryChatRepository) Claim(ctx context.Context, id entity.ChatID, adminID, adminName string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	if chat.Status != entity.StatusOpen {
		// Losing claimer gets the authoritative state back so the
		// caller can reconcile instead of guessing.
		clone := *chat
		return &clone, errors.Conflict("Chat is already claimed")
	}

	chat.Status = entity.StatusClaimed
	chat.ClaimedBy = adminID
	chat.AdminName = adminName
	chat.UpdatedAt = time.Now().UTC()

	clone := *chat
	return &clone, nil
}

func (r *memoryChatRepository) listWhere(keep func(*entity.Chat) bool) []*entity.Chat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Chat, 0)
	for _, chat := range r.chats {
		if keep(chat) {
			clone := *chat
			out = append(out, &clone)
		}
	}
	// Newest first, matching what the dashboards expect.
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}
