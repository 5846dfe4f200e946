package repository

import (
	"context"
	"sync"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/pkg/errors"
)

type memoryCategoryRepository struct {
	mu         sync.RWMutex
	categories []*entity.Category
}

// NewMemoryCategoryRepository seeds the default service topics when
// given none.
func NewMemoryCategoryRepository(seed []*entity.Category) repository.CategoryRepository {
	if len(seed) == 0 {
		seed = []*entity.Category{
			{ID: 1, Name: "racepack", DisplayName: "Racepack", Active: true},
			{ID: 2, Name: "akun", DisplayName: "Akun", Active: true},
			{ID: 3, Name: "event", DisplayName: "Event", Active: true},
			{ID: 4, Name: "pembayaran", DisplayName: "Pembayaran", Active: true},
			{ID: 5, Name: "others", DisplayName: "Lainnya", Active: true},
		}
	}
	return &memoryCategoryRepository{categories: seed}
}

func (r *memoryCategoryRepository) ListActive(ctx context.Context) ([]*entity.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Category, 0, len(r.categories))
	for _, c := range r.categories {
		if c.Active {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memoryCategoryRepository) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Name == name {
			clone := *c
			return &clone, nil
		}
	}
	return nil, errors.NotFound("Category", nil)
}
