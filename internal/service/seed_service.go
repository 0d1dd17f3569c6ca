package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	"github.com/yourusername/quiz-web/pkg/database"
	"github.com/yourusername/quiz-web/pkg/logger"
)

// Демо-данные, которыми заполняется пустая БД
const (
	DemoUserAmazonID    = "nothing to see here"
	DemoUserDisplayName = "Dummy User"
)

// DemoQuiz - описание демо-викторины с вопросами в порядке вставки
type DemoQuiz struct {
	Name      string
	Type      string
	Questions []entity.Question
}

// DemoQuizzes возвращает набор демо-викторин
func DemoQuizzes() []DemoQuiz {
	return []DemoQuiz{
		{
			Name: "capitals",
			Type: entity.QuizTypeTrueFalse,
			Questions: []entity.Question{
				{Q: "Austin is the capital of Texas", A: "true"},
				{Q: "Chicago is the capital of Illinois", A: "false"},
			},
		},
		{
			Name: "vocab",
			Type: entity.QuizTypeMultipleChoice,
			Questions: []entity.Question{
				{Q: vocabQuestion("accurate"), A: "d", ChoiceA: "recent", ChoiceB: "better", ChoiceC: "pleased", ChoiceD: "correct"},
				{Q: vocabQuestion("prohibit"), A: "b", ChoiceA: "lose", ChoiceB: "ban", ChoiceC: "sigh", ChoiceD: "reflect"},
				{Q: vocabQuestion("definitely"), A: "c", ChoiceA: "quickly", ChoiceB: "easily", ChoiceC: "certainly", ChoiceD: "only"},
			},
		},
	}
}

func vocabQuestion(word string) string {
	return "For the word: " + word + ", what is the best synonym?"
}

// SeedDemoData создает демо-пользователя с викторинами и привязывает к ним вопросы.
// Викторины вставляются одним вложенным созданием вместе с пользователем.
func SeedDemoData(ctx context.Context, repos Repositories) error {
	demo := DemoQuizzes()

	user := &entity.User{AmazonID: DemoUserAmazonID, DisplayName: DemoUserDisplayName}
	for _, dq := range demo {
		user.Quizzes = append(user.Quizzes, entity.Quiz{
			Name:             dq.Name,
			Type:             dq.Type,
			OwnerDisplayName: DemoUserDisplayName,
		})
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	logger.Infof("[Seeder] Создан пользователь %q с %d викторинами", user.DisplayName, len(user.Quizzes))

	for _, dq := range demo {
		quiz, err := repos.Quizzes.GetByName(ctx, dq.Name)
		if err != nil {
			return fmt.Errorf("failed to find demo quiz %q: %w", dq.Name, err)
		}
		for i := range dq.Questions {
			question := dq.Questions[i]
			if err := repos.Questions.Create(ctx, &question); err != nil {
				return fmt.Errorf("failed to create question %q: %w", question.Q, err)
			}
			if err := repos.Quizzes.AddQuestion(ctx, quiz.ID, question.ID); err != nil {
				return fmt.Errorf("failed to add question %q to quiz %q: %w", question.Q, dq.Name, err)
			}
		}
		logger.Infof("[Seeder] Викторина %q: добавлено вопросов %d", dq.Name, len(dq.Questions))
	}
	return nil
}

// SeedService пересоздает схему и заполняет ее демо-данными
type SeedService struct {
	db      *gorm.DB
	factory RepositoryFactory
}

// NewSeedService создает сервис начального заполнения БД
func NewSeedService(db *gorm.DB, factory RepositoryFactory) (*SeedService, error) {
	if db == nil {
		return nil, errors.New("database is required for seeding")
	}
	if factory == nil {
		return nil, errors.New("repository factory is required for seeding")
	}
	return &SeedService{db: db, factory: factory}, nil
}

// Run выполняет всю последовательность в одной транзакции и возвращает первую ошибку.
// При ошибке транзакция откатывается и прежние данные остаются на месте.
func (s *SeedService) Run(ctx context.Context) error {
	logger.Infof("[Seeder] Пересоздание схемы и заполнение демо-данными")

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// DROP ... CASCADE снимает внешние ключи вместе с таблицами,
		// новые создаются откладываемыми
		if err := database.ResetSchema(tx); err != nil {
			return err
		}
		// Проверки внешних ключей откладываются до SET CONSTRAINTS ALL IMMEDIATE
		if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
			return fmt.Errorf("failed to defer constraints: %w", err)
		}
		if err := SeedDemoData(ctx, s.factory(tx)); err != nil {
			return err
		}
		if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
			return fmt.Errorf("failed to restore constraints: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	logger.Infof("[Seeder] Готово")
	return nil
}
