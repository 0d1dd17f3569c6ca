package repository

import (
	"context"

	"github.com/yourusername/quiz-web/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(ctx context.Context, quiz *entity.Quiz) error
	GetByID(ctx context.Context, id uint) (*entity.Quiz, error)
	GetByName(ctx context.Context, name string) (*entity.Quiz, error)
	GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error)
	List(ctx context.Context, limit, offset int) ([]entity.Quiz, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]entity.Quiz, error)
	// AddQuestion привязывает сохраненный вопрос к викторине.
	// Возвращает ErrNotFound, если вопроса или викторины нет в БД.
	AddQuestion(ctx context.Context, quizID, questionID uint) error
}
