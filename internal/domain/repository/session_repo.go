package repository

import (
	"context"
	"time"

	"github.com/yourusername/quiz-web/internal/domain/entity"
)

// SessionRepository хранит серверные сессии в той же БД, что и остальные модели
type SessionRepository interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	// Save вставляет сессию или перезаписывает данные существующей
	Save(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
