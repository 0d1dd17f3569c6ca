package repository

import (
	"context"

	"github.com/yourusername/quiz-web/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	GetByQuizID(ctx context.Context, quizID uint) ([]entity.Question, error)
}
