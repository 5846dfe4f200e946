package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
)

type memoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[entity.ChatID][]*entity.Message
	total    int
	nextID   entity.MessageID
}

func NewMemoryMessageRepository() repository.MessageRepository {
	return &memoryMessageRepository{
		messages: make(map[entity.ChatID][]*entity.Message),
		nextID:   1,
	}
}

func (r *memoryMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.ID = r.nextID
	r.nextID++
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	stored := *message
	r.messages[message.ChatID] = append(r.messages[message.ChatID], &stored)
	r.total++
	return nil
}

func (r *memoryMessageRepository) ListByChat(ctx context.Context, chatID entity.ChatID) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[chatID]
	out := make([]*entity.Message, 0, len(stored))
	for _, m := range stored {
		clone := *m
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryMessageRepository) CountAll(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total, nil
}
