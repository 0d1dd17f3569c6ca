package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину
func (r *QuizRepo) Create(ctx context.Context, quiz *entity.Quiz) error {
	if err := r.db.WithContext(ctx).Create(quiz).Error; err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner #%d", apperrors.ErrNotFound, quiz.OwnerID)
		}
		return err
	}
	return nil
}

// GetByID возвращает викторину по ID
func (r *QuizRepo) GetByID(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByName возвращает первую викторину с указанным именем
func (r *QuizRepo) GetByName(ctx context.Context, name string) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("id").First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с вопросами
func (r *QuizRepo) GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id") }).
		First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// List возвращает список викторин с пагинацией
func (r *QuizRepo) List(ctx context.Context, limit, offset int) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Order("id").Find(&quizzes).Error
	return quizzes, err
}

// ListByOwner возвращает викторины пользователя
func (r *QuizRepo) ListByOwner(ctx context.Context, ownerID uint) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&quizzes).Error
	return quizzes, err
}

// AddQuestion привязывает сохраненный вопрос к викторине
func (r *QuizRepo) AddQuestion(ctx context.Context, quizID, questionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quizCount int64
		if err := tx.Model(&entity.Quiz{}).Where("id = ?", quizID).Count(&quizCount).Error; err != nil {
			return err
		}
		if quizCount == 0 {
			return fmt.Errorf("%w: quiz #%d", apperrors.ErrNotFound, quizID)
		}

		result := tx.Model(&entity.Question{}).
			Where("id = ?", questionID).
			Update("quiz_id", quizID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
		}
		return nil
	})
}
