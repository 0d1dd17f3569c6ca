package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	"github.com/yourusername/quiz-web/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
	"github.com/yourusername/quiz-web/pkg/logger"
)

const (
	quizCacheTTL    = time.Minute
	maxQuizNameLen  = 100
	maxQuizTypeLen  = 50
	maxQuestionLen  = 500
	maxPageSize     = 100
	defaultPageSize = 20
)

// QuestionInput - данные нового вопроса
type QuestionInput struct {
	Q       string
	A       string
	Choices []string
}

// QuizService предоставляет методы для работы с викториной
type QuizService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository // nil, если Redis не настроен
	tx           Transactor                 // nil - запись без транзакции
}

// NewQuizService создает новый сервис викторин. cacheRepo и tx могут быть nil.
func NewQuizService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	tx Transactor,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		tx:           tx,
	}
}

const quizCachePattern = "quiz:*"

func quizCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

// ResetCache удаляет все закешированные викторины. Нужен после пересоздания схемы,
// когда ID викторин начинаются заново.
func (s *QuizService) ResetCache(ctx context.Context) error {
	if s.cacheRepo == nil {
		return nil
	}
	deleted, err := s.cacheRepo.DeletePattern(ctx, quizCachePattern)
	if err != nil {
		return fmt.Errorf("failed to reset quiz cache: %w", err)
	}
	logger.Infof("[QuizService] Кеш викторин сброшен, удалено ключей: %d", deleted)
	return nil
}

// ListQuizzes возвращает страницу викторин
func (s *QuizService) ListQuizzes(ctx context.Context, page, pageSize int) ([]entity.Quiz, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.quizRepo.List(ctx, pageSize, (page-1)*pageSize)
}

// ListUserQuizzes возвращает викторины пользователя
func (s *QuizService) ListUserQuizzes(ctx context.Context, ownerID uint) ([]entity.Quiz, error) {
	return s.quizRepo.ListByOwner(ctx, ownerID)
}

// GetQuizWithQuestions возвращает викторину с вопросами, используя кеш при наличии
func (s *QuizService) GetQuizWithQuestions(ctx context.Context, quizID uint) (*entity.Quiz, error) {
	if s.cacheRepo != nil {
		var cached entity.Quiz
		err := s.cacheRepo.GetJSON(ctx, quizCacheKey(quizID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Warnf("[QuizService] Ошибка чтения кеша викторины %d: %v", quizID, err)
		}
	}

	quiz, err := s.quizRepo.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(ctx, quizCacheKey(quizID), quiz, quizCacheTTL); err != nil {
			logger.Warnf("[QuizService] Не удалось закешировать викторину %d: %v", quizID, err)
		}
	}
	return quiz, nil
}

// CreateQuiz создает викторину от имени пользователя
func (s *QuizService) CreateQuiz(ctx context.Context, owner *entity.User, name, quizType string) (*entity.Quiz, error) {
	if owner == nil {
		return nil, apperrors.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	quizType = strings.TrimSpace(quizType)
	if name == "" {
		return nil, fmt.Errorf("%w: quiz name is required", apperrors.ErrValidation)
	}
	if len(name) > maxQuizNameLen {
		return nil, fmt.Errorf("%w: quiz name is longer than %d characters", apperrors.ErrValidation, maxQuizNameLen)
	}
	if len(quizType) > maxQuizTypeLen {
		return nil, fmt.Errorf("%w: quiz type is longer than %d characters", apperrors.ErrValidation, maxQuizTypeLen)
	}

	quiz := &entity.Quiz{
		Name:             name,
		Type:             quizType,
		OwnerID:          owner.ID,
		OwnerDisplayName: owner.DisplayName,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	return quiz, nil
}

// AddQuestion создает вопрос и привязывает его к викторине владельца
func (s *QuizService) AddQuestion(ctx context.Context, user *entity.User, quizID uint, input QuestionInput) (*entity.Question, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsOwnedBy(user.ID) {
		return nil, ErrQuizNotOwned
	}

	question, err := buildQuestion(quiz, input)
	if err != nil {
		return nil, err
	}

	// Вопрос без викторины не должен остаться в БД
	persist := func(repos Repositories) error {
		if err := repos.Questions.Create(ctx, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		if err := repos.Quizzes.AddQuestion(ctx, quiz.ID, question.ID); err != nil {
			return fmt.Errorf("failed to add question to quiz %d: %w", quiz.ID, err)
		}
		return nil
	}
	if s.tx != nil {
		err = s.tx.WithinTransaction(ctx, persist)
	} else {
		err = persist(Repositories{Quizzes: s.quizRepo, Questions: s.questionRepo})
	}
	if err != nil {
		return nil, err
	}
	question.QuizID = &quiz.ID

	s.invalidate(ctx, quiz.ID)
	return question, nil
}

func (s *QuizService) invalidate(ctx context.Context, quizID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(ctx, quizCacheKey(quizID)); err != nil {
		logger.Warnf("[QuizService] Не удалось сбросить кеш викторины %d: %v", quizID, err)
	}
}

// buildQuestion проверяет ввод с учетом типа викторины
func buildQuestion(quiz *entity.Quiz, input QuestionInput) (*entity.Question, error) {
	text := strings.TrimSpace(input.Q)
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", apperrors.ErrValidation)
	}
	if len(text) > maxQuestionLen {
		return nil, fmt.Errorf("%w: question text is longer than %d characters", apperrors.ErrValidation, maxQuestionLen)
	}

	choices := make([]string, 0, len(input.Choices))
	for _, c := range input.Choices {
		if c = strings.TrimSpace(c); c != "" {
			choices = append(choices, c)
		}
	}
	if len(choices) > entity.MaxChoices {
		return nil, ErrTooManyChoices
	}

	question := &entity.Question{Q: text, A: strings.ToLower(strings.TrimSpace(input.A))}
	slots := []*string{&question.ChoiceA, &question.ChoiceB, &question.ChoiceC, &question.ChoiceD}
	for i, c := range choices {
		*slots[i] = c
	}

	switch {
	case quiz.IsMultipleChoice() && len(choices) < 2:
		return nil, fmt.Errorf("%w: multiple choice question needs at least two choices", apperrors.ErrValidation)
	case quiz.IsTrueFalse() && len(choices) > 0:
		return nil, fmt.Errorf("%w: true/false question cannot have choices", apperrors.ErrValidation)
	}

	if quiz.IsTrueFalse() || question.IsMultipleChoice() {
		if !question.IsValidAnswer(question.A) {
			return nil, fmt.Errorf("%w: answer %q is not valid for this question", apperrors.ErrValidation, input.A)
		}
	} else if question.A == "" {
		return nil, fmt.Errorf("%w: answer is required", apperrors.ErrValidation)
	}
	return question, nil
}
