package repository

import (
	"context"

	"supportchat/internal/domain/entity"
)

type CategoryRepository interface {
	ListActive(ctx context.Context) ([]*entity.Category, error)
	GetByName(ctx context.Context, name string) (*entity.Category, error)
}
