package repository

import (
	"context"

	"github.com/yourusername/quiz-web/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByAmazonID(ctx context.Context, amazonID string) (*entity.User, error)
	// FindOrCreateByAmazonID атомарно вставляет пользователя или возвращает существующего.
	// created == true, если запись была вставлена этим вызовом.
	FindOrCreateByAmazonID(ctx context.Context, amazonID, displayName string) (user *entity.User, created bool, err error)
	UpdateDisplayName(ctx context.Context, userID uint, displayName string) error
	Count(ctx context.Context) (int64, error)
}
