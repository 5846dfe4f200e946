package repository

import (
	"context"
	"sync"
	"time"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/pkg/errors"
)

type memoryFeedbackRepository struct {
	mu      sync.RWMutex
	byChat  map[entity.ChatID]*entity.Feedback
	nextID  int64
}

func NewMemoryFeedbackRepository() repository.FeedbackRepository {
	return &memoryFeedbackRepository{
		byChat: make(map[entity.ChatID]*entity.Feedback),
		nextID: 1,
	}
}

func (r *memoryFeedbackRepository) Create(ctx context.Context, feedback *entity.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byChat[feedback.ChatID]; ok {
		return errors.Conflict("Feedback already submitted for this chat")
	}

	feedback.ID = r.nextID
	r.nextID++
	feedback.CreatedAt = time.Now().UTC()

	stored := *feedback
	r.byChat[feedback.ChatID] = &stored
	return nil
}

func (r *memoryFeedbackRepository) GetByChat(ctx context.Context, chatID entity.ChatID) (*entity.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	feedback, ok := r.byChat[chatID]
	if !ok {
		return nil, errors.NotFound("Feedback", nil)
	}
	clone := *feedback
	return &clone, nil
}
